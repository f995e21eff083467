package detect

import (
	"math"
	"sort"

	"github.com/quietqr/qrscan/bitutil"
)

const (
	maxModuleCountPerEdge    = 180.0
	minModuleCountPerEdge    = 9.0
	diffModSizeCutoffPercent = 0.05
	diffModSizeCutoff        = 0.5
)

// DetectMulti finds every mutually-consistent finder-pattern triangle in
// img, for images containing several QR symbols side by side.
func (LineScanDetector) DetectMulti(img *bitutil.BitMatrix, opts Options) ([]Location, error) {
	f := &finder{image: img, opts: opts}
	groups, err := findMulti(f)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	locations := make([]Location, 0, len(groups))
	for _, group := range groups {
		info := orderFinderPatterns(group[:])
		locations = append(locations, Location{
			TopLeft:    Point{info[0].X, info[0].Y},
			TopRight:   Point{info[1].X, info[1].Y},
			BottomLeft: Point{info[2].X, info[2].Y},
		})
	}
	return locations, nil
}

func findMulti(f *finder) ([][3]*finderPattern, error) {
	image := f.image
	maxI := image.Height()
	maxJ := image.Width()

	iSkip := (3 * maxI) / (4 * maxModules)
	if iSkip < minSkip || f.opts.TryHarder {
		iSkip = minSkip
	}

	stateCount := [5]int{}
	for i := iSkip - 1; i < maxI; i += iSkip {
		stateCount = [5]int{}
		currentState := 0
		for j := 0; j < maxJ; j++ {
			if image.Get(j, i) {
				if currentState&1 == 1 {
					currentState++
				}
				stateCount[currentState]++
			} else {
				if currentState&1 == 0 {
					if currentState == 4 {
						if f.foundPatternCross(stateCount) && f.handlePossibleCenter(stateCount, i, j) {
							currentState = 0
							stateCount = [5]int{}
						} else {
							doShiftCounts2(&stateCount)
							currentState = 3
						}
					} else {
						currentState++
						stateCount[currentState]++
					}
				} else {
					stateCount[currentState]++
				}
			}
		}
		if f.foundPatternCross(stateCount) {
			f.handlePossibleCenter(stateCount, i, maxJ)
		}
	}

	return selectMultipleBestPatterns(f.possibleCenters)
}

func selectMultipleBestPatterns(possibleCenters []*finderPattern) ([][3]*finderPattern, error) {
	filtered := possibleCenters
	size := len(filtered)
	if size < 3 {
		return nil, ErrNotFound
	}

	if size == 3 {
		return [][3]*finderPattern{{filtered[0], filtered[1], filtered[2]}}, nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[j].EstimatedModuleSize < filtered[i].EstimatedModuleSize
	})

	var results [][3]*finderPattern
	for i1 := 0; i1 < size-2; i1++ {
		p1 := filtered[i1]

		for i2 := i1 + 1; i2 < size-1; i2++ {
			p2 := filtered[i2]

			vModSize12A := math.Abs(p1.EstimatedModuleSize - p2.EstimatedModuleSize)
			vModSize12 := vModSize12A / math.Min(p1.EstimatedModuleSize, p2.EstimatedModuleSize)
			if vModSize12A > diffModSizeCutoff && vModSize12 >= diffModSizeCutoffPercent {
				break
			}

			for i3 := i2 + 1; i3 < size; i3++ {
				p3 := filtered[i3]

				vModSize23A := math.Abs(p2.EstimatedModuleSize - p3.EstimatedModuleSize)
				vModSize23 := vModSize23A / math.Min(p2.EstimatedModuleSize, p3.EstimatedModuleSize)
				if vModSize23A > diffModSizeCutoff && vModSize23 >= diffModSizeCutoffPercent {
					break
				}

				test := [3]*finderPattern{p1, p2, p3}
				ordered := orderFinderPatterns(test[:])

				dA := distanceFP(ordered[0], ordered[2])
				dC := distanceFP(ordered[1], ordered[2])
				dB := distanceFP(ordered[0], ordered[1])

				estimatedModuleCount := (dA + dB) / (p1.EstimatedModuleSize * 2.0)
				if estimatedModuleCount > maxModuleCountPerEdge || estimatedModuleCount < minModuleCountPerEdge {
					continue
				}

				vABBC := math.Abs((dA - dB) / math.Min(dA, dB))
				if vABBC >= 0.1 {
					continue
				}

				dCpy := math.Sqrt(dA*dA + dB*dB)
				vPyC := math.Abs((dC - dCpy) / math.Min(dC, dCpy))
				if vPyC >= 0.1 {
					continue
				}

				results = append(results, test)
			}
		}
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

package extract

import (
	"math"

	"github.com/quietqr/qrscan/detect"
)

// calculateModuleSize averages module-size estimates along both legs of the
// finder-pattern triangle.
func (e *extraction) calculateModuleSize(topLeft, topRight, bottomLeft detect.Point) float64 {
	return (e.calculateModuleSizeOneWay(topLeft, topRight) +
		e.calculateModuleSizeOneWay(topLeft, bottomLeft)) / 2.0
}

func (e *extraction) calculateModuleSizeOneWay(pattern, otherPattern detect.Point) float64 {
	moduleSizeEst1 := e.sizeOfBlackWhiteBlackRunBothWays(
		int(pattern.X), int(pattern.Y), int(otherPattern.X), int(otherPattern.Y))
	moduleSizeEst2 := e.sizeOfBlackWhiteBlackRunBothWays(
		int(otherPattern.X), int(otherPattern.Y), int(pattern.X), int(pattern.Y))
	if math.IsNaN(moduleSizeEst1) {
		return moduleSizeEst2 / 7.0
	}
	if math.IsNaN(moduleSizeEst2) {
		return moduleSizeEst1 / 7.0
	}
	return (moduleSizeEst1 + moduleSizeEst2) / 14.0
}

// sizeOfBlackWhiteBlackRunBothWays extends the run past "to" back through
// "from" to get a full black-white-black-white-black span (finder patterns
// are seven modules wide), rather than just the three-module half measured
// by sizeOfBlackWhiteBlackRun.
func (e *extraction) sizeOfBlackWhiteBlackRunBothWays(fromX, fromY, toX, toY int) float64 {
	result := e.sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY)

	scale := 1.0
	otherToX := fromX - (toX - fromX)
	if otherToX < 0 {
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	} else if otherToX >= e.image.Width() {
		scale = float64(e.image.Width()-1-fromX) / float64(otherToX-fromX)
		otherToX = e.image.Width() - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherToY < 0 {
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	} else if otherToY >= e.image.Height() {
		scale = float64(e.image.Height()-1-fromY) / float64(otherToY-fromY)
		otherToY = e.image.Height() - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	result += e.sizeOfBlackWhiteBlackRun(fromX, fromY, otherToX, otherToY)
	return result - 1.0
}

// sizeOfBlackWhiteBlackRun walks a Bresenham line from (fromX,fromY) toward
// (toX,toY) and measures the distance across one black-white-black
// transition, i.e. half of a finder pattern's width.
func (e *extraction) sizeOfBlackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := intAbs(toY-fromY) > intAbs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := intAbs(toX - fromX)
	dy := intAbs(toY - fromY)
	errAcc := -dx / 2
	xstep := 1
	if fromX > toX {
		xstep = -1
	}
	ystep := 1
	if fromY > toY {
		ystep = -1
	}

	state := 0
	xLimit := toX + xstep
	for x, y := fromX, fromY; x != xLimit; x += xstep {
		realX := x
		realY := y
		if steep {
			realX = y
			realY = x
		}

		if (state == 1) == e.image.Get(realX, realY) {
			if state == 2 {
				return distancePtXY(x, y, fromX, fromY)
			}
			state++
		}

		errAcc += dy
		if errAcc > 0 {
			if y == toY {
				break
			}
			y += ystep
			errAcc -= dx
		}
	}

	if state == 2 {
		return distancePtXY(toX+xstep, toY, fromX, fromY)
	}
	return math.NaN()
}

func distancePtXY(x1, y1, x2, y2 int) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}

// findAlignmentInRegion searches a square region centered on the estimated
// alignment-pattern position for a confirmed 1:1:1 pattern.
func (e *extraction) findAlignmentInRegion(overallEstModuleSize float64, estAlignmentX, estAlignmentY int, allowanceFactor float64) *alignmentPattern {
	allowance := int(allowanceFactor * overallEstModuleSize)
	alignmentAreaLeftX := intMax(0, estAlignmentX-allowance)
	alignmentAreaRightX := intMin(e.image.Width()-1, estAlignmentX+allowance)
	if float64(alignmentAreaRightX-alignmentAreaLeftX) < overallEstModuleSize*3 {
		return nil
	}
	alignmentAreaTopY := intMax(0, estAlignmentY-allowance)
	alignmentAreaBottomY := intMin(e.image.Height()-1, estAlignmentY+allowance)
	if float64(alignmentAreaBottomY-alignmentAreaTopY) < overallEstModuleSize*3 {
		return nil
	}

	finder := &alignmentPatternFinder{
		image:      e.image,
		startX:     alignmentAreaLeftX,
		startY:     alignmentAreaTopY,
		width:      alignmentAreaRightX - alignmentAreaLeftX,
		height:     alignmentAreaBottomY - alignmentAreaTopY,
		moduleSize: overallEstModuleSize,
	}
	return finder.find()
}

package charset

import "testing"

func TestDecodeByteModeSegmentUTF8(t *testing.T) {
	want := "héllo wörld 日本語"
	got, err := DecodeByteModeSegment([]byte(want))
	if err != nil {
		t.Fatalf("DecodeByteModeSegment: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeByteModeSegmentLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in ISO-8859-1 but not valid UTF-8 on its own.
	data := []byte{'c', 'a', 'f', 0xE9}
	got, err := DecodeByteModeSegment(data)
	if err != nil {
		t.Fatalf("DecodeByteModeSegment: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q, want %q", got, "café")
	}
}

func TestDecodeByteModeSegmentPlainASCII(t *testing.T) {
	got, err := DecodeByteModeSegment([]byte("plain ascii text"))
	if err != nil {
		t.Fatalf("DecodeByteModeSegment: %v", err)
	}
	if got != "plain ascii text" {
		t.Errorf("got %q, want %q", got, "plain ascii text")
	}
}

func TestLooksLikeUTF8RejectsTruncatedSequence(t *testing.T) {
	// 0xC3 alone starts a two-byte sequence but has no continuation byte.
	if looksLikeUTF8([]byte{0xC3}) {
		t.Error("truncated multi-byte sequence should not look like UTF-8")
	}
}

func TestLooksLikeUTF8RequiresMultiByte(t *testing.T) {
	if looksLikeUTF8([]byte("ascii only")) {
		t.Error("plain ASCII should not be classified as the UTF-8 branch")
	}
}

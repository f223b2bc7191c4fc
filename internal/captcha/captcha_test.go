package captcha

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestNewChallengeText(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		text, err := NewChallengeText()
		if err != nil {
			t.Fatalf("NewChallengeText returned error: %v", err)
		}
		if len(text) != ChallengeLength {
			t.Fatalf("expected %d characters, got %q", ChallengeLength, text)
		}
		for _, r := range text {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("challenge %q contains %q outside the alphabet", text, r)
			}
		}
		seen[text] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied challenges, got only %d distinct value(s)", len(seen))
	}
}

func TestAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, r := range "0O1Ilo" {
		if strings.ContainsRune(Alphabet, r) {
			t.Fatalf("alphabet must not contain ambiguous glyph %q", r)
		}
	}
}

func TestRenderProducesDecodablePNG(t *testing.T) {
	data, err := Render("Ab3k")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("rendered output is not a valid PNG: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 120 || bounds.Dy() != 40 {
		t.Fatalf("expected 120x40 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestDataURI(t *testing.T) {
	data, err := Render("XY79")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	uri := DataURI(data)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected data URI prefix: %q", uri[:min(len(uri), 40)])
	}
}

package vision

import (
	"image"
	"image/color"
	"testing"
)

var testThresholds = QualityThresholds{
	MinFaceSize:   60,
	BrightnessMin: 30,
	BrightnessMax: 240,
	BlurThreshold: 30,
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func hasIssue(issues []IssueCode, want IssueCode) bool {
	for _, issue := range issues {
		if issue == want {
			return true
		}
	}
	return false
}

func TestAssessQuality(t *testing.T) {
	tests := []struct {
		name    string
		img     *image.RGBA
		want    []IssueCode
		exclude []IssueCode
	}{
		{
			name: "too small",
			img:  uniformImage(40, 40, color.RGBA{R: 128, G: 128, B: 128, A: 255}),
			want: []IssueCode{IssueTooSmall, IssueTooBlurry},
		},
		{
			name:    "too dark",
			img:     uniformImage(100, 100, color.RGBA{R: 10, G: 10, B: 10, A: 255}),
			want:    []IssueCode{IssueTooDark},
			exclude: []IssueCode{IssueTooSmall, IssueTooBright},
		},
		{
			name:    "too bright",
			img:     uniformImage(100, 100, color.RGBA{R: 250, G: 250, B: 250, A: 255}),
			want:    []IssueCode{IssueTooBright},
			exclude: []IssueCode{IssueTooDark},
		},
		{
			name: "small and dark reported together",
			img:  uniformImage(40, 40, color.RGBA{R: 5, G: 5, B: 5, A: 255}),
			want: []IssueCode{IssueTooSmall, IssueTooDark, IssueTooBlurry},
		},
		{
			name:    "sharp mid-tone passes",
			img:     checkerboard(100, 100),
			exclude: []IssueCode{IssueTooSmall, IssueTooDark, IssueTooBright, IssueTooBlurry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := AssessQuality(tt.img, testThresholds)
			for _, want := range tt.want {
				if !hasIssue(issues, want) {
					t.Errorf("missing issue %s in %v", want, issues)
				}
			}
			for _, bad := range tt.exclude {
				if hasIssue(issues, bad) {
					t.Errorf("unexpected issue %s in %v", bad, issues)
				}
			}
		})
	}
}

func TestIssueMessages(t *testing.T) {
	for _, code := range []IssueCode{IssueTooSmall, IssueTooDark, IssueTooBright, IssueTooBlurry} {
		if code.Message() == string(code) {
			t.Errorf("no user message for %s", code)
		}
	}
}

package media

import (
	"errors"
	"testing"
)

func TestScaleToHeight(t *testing.T) {
	tests := []struct {
		name      string
		img       ImageInfo
		target    int
		wantWidth int
	}{
		{"4:3 landscape", ImageInfo{Width: 800, Height: 600}, 1080, 1440},
		{"16:9 landscape", ImageInfo{Width: 1920, Height: 1080}, 1080, 1920},
		{"square", ImageInfo{Width: 500, Height: 500}, 1080, 1080},
		{"portrait", ImageInfo{Width: 600, Height: 800}, 1080, 810},
		{"odd result rounds to even", ImageInfo{Width: 1001, Height: 1080}, 1080, 1000},
		{"tiny source", ImageInfo{Width: 1, Height: 1080}, 1080, 2},
		{"no-op scale", ImageInfo{Width: 640, Height: 480}, 480, 640},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := ScaleToHeight(tc.img, tc.target)
			if err != nil {
				t.Fatalf("ScaleToHeight failed: %v", err)
			}
			if frame.Height != tc.target {
				t.Errorf("expected height %d, got %d", tc.target, frame.Height)
			}
			if frame.Width != tc.wantWidth {
				t.Errorf("expected width %d, got %d", tc.wantWidth, frame.Width)
			}
			if frame.Width%2 != 0 {
				t.Errorf("width %d is not even", frame.Width)
			}
			if frame.Path != tc.img.Path {
				t.Errorf("expected path %q, got %q", tc.img.Path, frame.Path)
			}
		})
	}
}

func TestScaleToHeight_AspectRatioWithinOnePixel(t *testing.T) {
	// Rounding to even may shift the width, but never more than 1 px from
	// the exact aspect-preserving value.
	inputs := []ImageInfo{
		{Width: 1023, Height: 767},
		{Width: 333, Height: 777},
		{Width: 4032, Height: 3024},
		{Width: 1280, Height: 853},
	}

	for _, img := range inputs {
		frame, err := ScaleToHeight(img, 1080)
		if err != nil {
			t.Fatalf("ScaleToHeight(%dx%d) failed: %v", img.Width, img.Height, err)
		}
		exact := float64(img.Width) * 1080 / float64(img.Height)
		diff := float64(frame.Width) - exact
		if diff < -1 || diff > 1 {
			t.Errorf("%dx%d: width %d deviates %.2f px from exact %.2f", img.Width, img.Height, frame.Width, diff, exact)
		}
	}
}

func TestScaleToHeight_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		img    ImageInfo
		target int
	}{
		{"zero width", ImageInfo{Width: 0, Height: 600}, 1080},
		{"zero height", ImageInfo{Width: 800, Height: 0}, 1080},
		{"negative width", ImageInfo{Width: -1, Height: 600}, 1080},
		{"zero target", ImageInfo{Width: 800, Height: 600}, 0},
		{"negative target", ImageInfo{Width: 800, Height: 600}, -1080},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ScaleToHeight(tc.img, tc.target)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("expected ErrInvalidDimensions, got %v", err)
			}
		})
	}
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("unrecognized format")
	err := &DecodeError{Path: "/tmp/in.mp3", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected DecodeError to unwrap to its cause")
	}
	msg := err.Error()
	if msg == "" {
		t.Error("Error() returned empty string")
	}
}

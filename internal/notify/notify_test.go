package notify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"hyprshot/internal/output"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSavedBody(t *testing.T) {
	d := output.Delivery{FilePath: "/home/u/Pictures/shot.png", Clipboard: true}
	want := "Image saved in <i>/home/u/Pictures/shot.png</i> and copied to the clipboard."
	if got := savedBody(d); got != want {
		t.Errorf("savedBody = %q, want %q", got, want)
	}

	if got := savedBody(output.Delivery{Clipboard: true}); got != "Image copied to the clipboard" {
		t.Errorf("savedBody = %q", got)
	}
}

func TestThumbnailDownscales(t *testing.T) {
	img, err := thumbnail(encodePNG(t, 256, 128))
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if img.Width != 128 || img.Height != 64 {
		t.Errorf("dimensions = %dx%d, want 128x64", img.Width, img.Height)
	}
	if img.Channels != 4 || img.BitsPerSample != 8 || !img.HasAlpha {
		t.Errorf("pixel format = %+v", img)
	}
	if img.Rowstride != img.Width*4 {
		t.Errorf("rowstride = %d, want %d", img.Rowstride, img.Width*4)
	}
	if len(img.Data) != int(img.Rowstride)*int(img.Height) {
		t.Errorf("data length = %d, want %d", len(img.Data), int(img.Rowstride)*int(img.Height))
	}
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	img, err := thumbnail(encodePNG(t, 64, 32))
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if img.Width != 64 || img.Height != 32 {
		t.Errorf("dimensions = %dx%d, want 64x32", img.Width, img.Height)
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	if _, err := thumbnail([]byte("not a png")); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1920, 1080, 128, 72},
		{1080, 1920, 72, 128},
		{128, 128, 128, 128},
		{10, 10, 10, 10},
		{4000, 10, 128, 1},
	}
	for _, tt := range tests {
		if w, h := fit(tt.w, tt.h); w != tt.wantW || h != tt.wantH {
			t.Errorf("fit(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

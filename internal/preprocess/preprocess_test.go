package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"reflect"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 13 % 256), uint8(y * 7 % 256), 200, 255})
		}
	}
	return img
}

func TestNormalizeOutputLength(t *testing.T) {
	raw := encodePNG(t, gradientImage(64, 48))

	tensor, err := Normalize(raw)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(tensor) != TensorLen {
		t.Fatalf("expected %d values, got %d", TensorLen, len(tensor))
	}
}

func TestNormalizeDecodesJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradientImage(32, 32), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	tensor, err := Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(tensor) != TensorLen {
		t.Fatalf("expected %d values, got %d", TensorLen, len(tensor))
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := encodePNG(t, gradientImage(100, 80))

	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := Normalize(raw)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical tensors for identical input")
	}
}

func TestNormalizeKeepsRawChannelRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 255})
		}
	}

	tensor, err := Normalize(encodePNG(t, img))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	// Uniform input survives nearest-neighbor resampling untouched, so every
	// pixel is exactly the original 0-255 channel triple.
	for i := 0; i < len(tensor); i += Channels {
		if tensor[i] != 10 || tensor[i+1] != 20 || tensor[i+2] != 30 {
			t.Fatalf("pixel %d = (%v, %v, %v), want (10, 20, 30)", i/Channels, tensor[i], tensor[i+1], tensor[i+2])
		}
	}
}

func TestNormalizeRejectsUndecodableBytes(t *testing.T) {
	if _, err := Normalize([]byte("definitely not an image")); err == nil {
		t.Fatal("expected error for undecodable bytes")
	}
}

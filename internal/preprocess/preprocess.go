package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Model input geometry: one batch of 224x224 RGB pixels.
const (
	TargetSize = 224
	Channels   = 3
	TensorLen  = 1 * TargetSize * TargetSize * Channels
)

// Normalize converts raw image bytes into the flat NHWC float32 tensor the
// classifier consumes. Channel values stay in the 0-255 range; the model was
// trained on unnormalized uint8 input.
func Normalize(raw []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Nearest-neighbor keeps the resample deterministic and cheap; the
	// classifier is not sensitive to interpolation fidelity.
	resized := resize.Resize(TargetSize, TargetSize, img, resize.NearestNeighbor)

	tensor := make([]float32, 0, TensorLen)
	bounds := resized.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			tensor = append(tensor, float32(r>>8), float32(g>>8), float32(b>>8))
		}
	}
	return tensor, nil
}

package pipeline

import (
	"errors"
	"fmt"
)

// Kind partitions pipeline failures by who can act on them. The HTTP boundary
// matches kinds exhaustively when choosing a response status.
type Kind int

const (
	// KindValidation covers malformed user input: missing file, a non-image
	// content type, or a payload over the fixed ceiling.
	KindValidation Kind = iota
	// KindDecode covers bytes that are present but not a decodable image.
	KindDecode
	// KindInference covers an unready model or a failed scoring call.
	KindInference
	// KindStorage covers asset or record persistence failures.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindInference:
		return "inference"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is the typed failure the pipeline surfaces to its caller.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation sentinels. The boundary needs to tell these apart: the oversize
// case answers 413 with a fixed message, the others answer 400.
var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrPayloadTooLarge = fmt.Errorf("payload content length greater than maximum allowed: %d", MaxUploadSize)

	errModelNotReady = errors.New("model is not ready")
)

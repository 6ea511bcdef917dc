package model

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/example/dermascan/internal/preprocess"
)

// ErrNotLoaded is returned by Predict while the host is unready.
var ErrNotLoaded = errors.New("model is not loaded")

// Predictor is the inference contract the pipeline depends on.
type Predictor interface {
	Predict(ctx context.Context, tensor []float32) (float32, error)
	Ready() bool
}

var (
	inputShape  = ort.NewShape(1, preprocess.TargetSize, preprocess.TargetSize, preprocess.Channels)
	outputShape = ort.NewShape(1, 1)
)

// Host owns the process-wide ONNX session. The session is opened once before
// serving begins and never mutated afterwards, so Predict needs no locking;
// input and output tensors are created per call.
type Host struct {
	session *ort.DynamicAdvancedSession
	logger  *zap.Logger
}

// NewHost fetches the model artifact and opens an inference session. A fetch
// or load failure leaves the host unready instead of returning an error, so
// the HTTP layer keeps serving and reports inference failures per request.
func NewHost(ctx context.Context, modelURL, cacheDir string, logger *zap.Logger) *Host {
	h := &Host{logger: logger.Named("model_host")}

	path, err := fetchArtifact(ctx, modelURL, cacheDir)
	if err != nil {
		h.logger.Error("model artifact fetch failed, serving unready", zap.Error(err), zap.String("url", modelURL))
		return h
	}

	if err := ort.InitializeEnvironment(); err != nil {
		h.logger.Error("onnxruntime environment init failed, serving unready", zap.Error(err))
		return h
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{"input"}, []string{"output"}, nil)
	if err != nil {
		h.logger.Error("model load failed, serving unready", zap.Error(err), zap.String("path", path))
		return h
	}

	h.session = session
	h.logger.Info("model loaded", zap.String("path", path))
	return h
}

// Ready reports whether the model loaded at startup.
func (h *Host) Ready() bool {
	return h.session != nil
}

// Predict runs one inference pass and returns the positive-class probability.
// The loaded weights are read-only, so concurrent calls are safe.
func (h *Host) Predict(ctx context.Context, tensor []float32) (float32, error) {
	if h.session == nil {
		return 0, ErrNotLoaded
	}
	if len(tensor) != preprocess.TensorLen {
		return 0, fmt.Errorf("input tensor has %d values, want %d", len(tensor), preprocess.TensorLen)
	}

	input, err := ort.NewTensor(inputShape, tensor)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := h.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return 0, fmt.Errorf("inference run: %w", err)
	}
	return output.GetData()[0], nil
}

// Close releases the session and the runtime environment.
func (h *Host) Close() {
	if h.session != nil {
		h.session.Destroy()
		h.session = nil
		ort.DestroyEnvironment()
	}
}

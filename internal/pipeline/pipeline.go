package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/dermascan/internal/classify"
	"github.com/example/dermascan/internal/logging"
	"github.com/example/dermascan/internal/model"
	"github.com/example/dermascan/internal/preprocess"
	"github.com/example/dermascan/internal/repository"
	"github.com/example/dermascan/internal/storage"
)

// MaxUploadSize is the fixed ceiling on uploaded image payloads, in bytes.
const MaxUploadSize = 1_000_000

const (
	historiesCacheKey = "predictions:histories"
	recordCacheTTL    = 5 * time.Minute
	historiesCacheTTL = time.Minute
)

// PredictionStore is the persistence surface the pipeline writes records to
// and reads listings from.
type PredictionStore interface {
	Save(ctx context.Context, record *repository.PredictionRecord) error
	ListAll(ctx context.Context) ([]*repository.PredictionRecord, error)
	AggregateStats(ctx context.Context) (map[string]int64, error)
}

// Upload is the inbound image payload prior to validation.
type Upload struct {
	Data        []byte
	ContentType string
}

// Pipeline orchestrates one prediction request end to end: validate the
// upload, decode it into the model tensor, score it, classify the score,
// persist the original bytes, then persist the derived record.
type Pipeline struct {
	records   PredictionStore
	assets    storage.AssetStore
	cache     Cache
	predictor model.Predictor
	metrics   *Metrics
	logger    *zap.Logger

	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New constructs a prediction pipeline.
func New(records PredictionStore, assets storage.AssetStore, cache Cache, predictor model.Predictor, metrics *Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		records:        records,
		assets:         assets,
		cache:          cache,
		predictor:      predictor,
		metrics:        metrics,
		logger:         logger.Named("prediction_pipeline"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// Handle runs the full prediction flow for one upload. On success exactly one
// asset write and one record write happen, both under the same identifier.
// Validation and decode failures have no side effects at all.
func (p *Pipeline) Handle(ctx context.Context, upload Upload) (*repository.PredictionRecord, error) {
	start := time.Now()

	if err := validate(upload); err != nil {
		p.metrics.observeFailure(KindValidation)
		return nil, err
	}

	// One identifier per request, shared by the asset path and the record.
	id := uuid.NewString()
	opLogger := logging.WithOperation(p.logger, "pipeline.handle", id)

	tensor, err := preprocess.Normalize(upload.Data)
	if err != nil {
		p.metrics.observeFailure(KindDecode)
		wrapped := &Error{Kind: KindDecode, Err: err}
		opLogger.Warn("image decode failed", zap.Error(wrapped), zap.String("content_type", upload.ContentType))
		return nil, wrapped
	}

	if !p.predictor.Ready() {
		p.metrics.observeFailure(KindInference)
		wrapped := &Error{Kind: KindInference, Err: errModelNotReady}
		opLogger.Error("prediction refused", zap.Error(wrapped))
		return nil, wrapped
	}

	score, err := p.predictor.Predict(ctx, tensor)
	if err != nil {
		p.metrics.observeFailure(KindInference)
		wrapped := &Error{Kind: KindInference, Err: err}
		opLogger.Error("inference failed", zap.Error(wrapped))
		return nil, wrapped
	}

	verdict := classify.Classify(score)

	location, err := p.assets.Store(ctx, id, upload.Data, upload.ContentType)
	if err != nil {
		p.metrics.observeFailure(KindStorage)
		wrapped := &Error{Kind: KindStorage, Err: err}
		opLogger.Error("asset write failed", zap.Error(wrapped))
		return nil, wrapped
	}

	record := &repository.PredictionRecord{
		ID:         id,
		Result:     verdict.Result,
		Suggestion: verdict.Suggestion,
		CreatedAt:  time.Now().UTC(),
		ImageURL:   location,
	}
	if err := p.records.Save(ctx, record); err != nil {
		p.metrics.observeFailure(KindStorage)
		wrapped := &Error{Kind: KindStorage, Err: err}
		// The stored asset is now orphaned. There is no compensating delete;
		// the location is logged so operators can reconcile.
		opLogger.Error("record write failed after asset write", zap.Error(wrapped), zap.String("asset_location", location))
		return nil, wrapped
	}

	p.cacheRecord(ctx, record)
	p.metrics.observePrediction(verdict.Result, time.Since(start))
	opLogger.Info("prediction persisted",
		zap.String("result", verdict.Result),
		zap.Float32("score", score),
		zap.String("image_url", location))
	return record, nil
}

// Histories returns every persisted prediction in insertion order, serving a
// cached listing when a fresh one exists.
func (p *Pipeline) Histories(ctx context.Context) ([]*repository.PredictionRecord, error) {
	opLogger := logging.WithOperation(p.logger, "pipeline.histories", "")

	if cached, err := p.cacheGet(ctx, "", "cache.get.histories", historiesCacheKey); err == nil {
		var records []*repository.PredictionRecord
		if err := json.Unmarshal([]byte(cached), &records); err != nil {
			opLogger.Warn("failed to decode cached listing", zap.Error(err))
		} else {
			return records, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		opLogger.Warn("failed to read history cache", zap.Error(err))
	}

	records, err := p.records.ListAll(ctx)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Err: err}
	}

	if serialized, err := json.Marshal(records); err == nil {
		if err := p.withCacheRetry(ctx, "", "cache.set.histories", func() error {
			return p.cache.Set(ctx, historiesCacheKey, string(serialized), historiesCacheTTL)
		}); err != nil {
			opLogger.Warn("failed to cache listing", zap.Error(err))
		}
	}
	return records, nil
}

// cacheRecord stores the freshly persisted record and drops any stale
// listing. Cache failures here are logged, never surfaced: the record is
// durable, so a dead cache must not fail the request.
func (p *Pipeline) cacheRecord(ctx context.Context, record *repository.PredictionRecord) {
	opLogger := logging.WithOperation(p.logger, "pipeline.cache_record", record.ID)

	serialized, err := json.Marshal(record)
	if err != nil {
		opLogger.Warn("failed to serialize record for cache", zap.Error(err))
	} else if err := p.withCacheRetry(ctx, record.ID, "cache.set.record", func() error {
		return p.cache.Set(ctx, recordCacheKey(record.ID), string(serialized), recordCacheTTL)
	}); err != nil {
		opLogger.Warn("failed to cache record", zap.Error(err))
	}

	if err := p.withCacheRetry(ctx, record.ID, "cache.del.histories", func() error {
		return p.cache.Del(ctx, historiesCacheKey)
	}); err != nil {
		opLogger.Warn("failed to invalidate history cache", zap.Error(err))
	}
}

func recordCacheKey(id string) string {
	return "predictions:" + id
}

func validate(upload Upload) error {
	if len(upload.Data) == 0 {
		return &Error{Kind: KindValidation, Err: ErrNoFile}
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return &Error{Kind: KindValidation, Err: ErrInvalidFileType}
	}
	if len(upload.Data) > MaxUploadSize {
		return &Error{Kind: KindValidation, Err: ErrPayloadTooLarge}
	}
	return nil
}

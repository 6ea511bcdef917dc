package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/dermascan/internal/logging"
)

// PredictionRecord is one persisted prediction. The JSON field names are a
// published contract; downstream systems parse them as-is.
type PredictionRecord struct {
	Seq        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ID         string    `gorm:"column:id;uniqueIndex;size:36" json:"id"`
	Result     string    `gorm:"column:result;size:32" json:"result"`
	Suggestion string    `gorm:"column:suggestion;type:text" json:"suggestion"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
	ImageURL   string    `gorm:"column:image_url;size:512" json:"imageUrl"`
}

// TableName overrides the default table name.
func (PredictionRecord) TableName() string {
	return "predictions"
}

// PredictionRepository provides persistence APIs for prediction records.
type PredictionRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewPredictionRepository creates a new repository instance.
func NewPredictionRepository(db *gorm.DB, logger *zap.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:             db,
		logger:         logger.Named("prediction_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *PredictionRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PredictionRecord{})
}

// Save appends one prediction record. Transient driver errors are retried
// with exponential backoff before the write is reported as failed.
func (r *PredictionRepository) Save(ctx context.Context, record *PredictionRecord) error {
	return r.executeWithRetry(ctx, "repository.save_prediction", record.ID, func() error {
		return r.db.WithContext(ctx).Create(record).Error
	})
}

// ListAll returns every prediction in insertion order, oldest first. The
// sequence column, not the timestamp, defines the order so two records
// created within one clock tick still list deterministically.
func (r *PredictionRepository) ListAll(ctx context.Context) ([]*PredictionRecord, error) {
	var records []*PredictionRecord
	if err := r.db.WithContext(ctx).Order("seq asc").Find(&records).Error; err != nil {
		return nil, logging.NewOperationError("repository.list_predictions", "", err)
	}
	return records, nil
}

// AggregateStats counts persisted predictions grouped by verdict.
func (r *PredictionRepository) AggregateStats(ctx context.Context) (map[string]int64, error) {
	type verdictCount struct {
		Result string
		Count  int64
	}
	var rows []verdictCount
	if err := r.db.WithContext(ctx).Model(&PredictionRecord{}).
		Select("result, count(*) as count").
		Group("result").
		Scan(&rows).Error; err != nil {
		return nil, logging.NewOperationError("repository.aggregate_stats", "", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Result] = row.Count
	}
	return stats, nil
}

func (r *PredictionRepository) executeWithRetry(ctx context.Context, operation, predictionID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, predictionID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, predictionID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, predictionID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, predictionID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, predictionID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}

package store

import (
	"context"

	"github.com/serroba/items-api/internal/audit"
	"go.uber.org/zap"
)

// Log is an audit.Store that writes every record to a zap logger.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging audit store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.Named("audit")}
}

func (l *Log) SaveItemChanged(_ context.Context, event *audit.ItemChanged) error {
	l.logger.Info("item changed",
		zap.String("action", string(event.Action)),
		zap.Int64("itemId", event.ItemID),
		zap.String("name", event.Name),
		zap.Time("occurredAt", event.OccurredAt),
		zap.String("requestId", event.RequestID),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

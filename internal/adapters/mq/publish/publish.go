// Package publish delivers store changes to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/pkg/logger"
)

// ErrPublish wraps delivery failures.
var ErrPublish = errors.New("publish change")

// Publisher delivers one change.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
	Close() error
}

// Encode renders a change as the JSON document published downstream.
func Encode(c model.Change) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return b, nil
}

// LogPublisher writes changes to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	log logger.Logger
}

// NewLogPublisher returns a publisher logging through l.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	return &LogPublisher{log: l}
}

// Publish logs c at info level.
func (p *LogPublisher) Publish(ctx context.Context, c model.Change) error {
	fields := []logger.Field{
		logger.String("kind", string(c.Kind)),
		logger.String("key", c.Key()),
	}
	if c.Status != "" {
		fields = append(fields, logger.String("status", string(c.Status)))
	}
	p.log.Info(ctx, "store change", fields...)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }

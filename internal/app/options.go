package service

import (
	"time"

	"github.com/okian/talentboard/internal/adapters/mq/publish"
	"github.com/okian/talentboard/internal/domain/scoring"
	"github.com/okian/talentboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of publisher goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the change queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds how many submission keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDBPath enables SQLite write-through persistence at path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithSeedDemo seeds demo records at start when the store is empty.
func WithSeedDemo(seed bool) Option {
	return func(s *Service) {
		s.seedDemo = seed
	}
}

// WithKafka publishes store changes to topic on brokers.
func WithKafka(brokers []string, topic string) Option {
	return func(s *Service) {
		s.kafkaBrokers = brokers
		s.kafkaTopic = topic
	}
}

// WithPublisher replaces the change publisher chosen at start.
func WithPublisher(p publish.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPredictor sets the remote scorer consulted for new submissions.
func WithPredictor(p scoring.Scorer) Option {
	return func(s *Service) {
		s.predictor = p
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new record ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

package vumock

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/fabricadesoftware/vumock/internal/store"
)

type settings struct {
	processingDelay time.Duration
	deletionWindow  time.Duration
	clock           func() time.Time
	rand            *rand.Rand
	logger          *slog.Logger
}

func defaultSettings() settings {
	return settings{
		processingDelay: store.DefaultProcessingDelay,
		deletionWindow:  store.DefaultDeletionWindow,
		logger:          slog.Default(),
	}
}

// Option configures a Mock.
type Option func(*settings)

// WithProcessingDelay sets how long a new or re-imaged target stays in
// the processing status. Zero keeps the 500ms default; pass a small
// positive duration for targets that should settle immediately.
func WithProcessingDelay(d time.Duration) Option {
	return func(s *settings) {
		s.processingDelay = d
	}
}

// WithDeletionWindow sets how long after deletion a target keeps tripping
// the query endpoint's server error. Zero keeps the 3s default.
func WithDeletionWindow(d time.Duration) Option {
	return func(s *settings) {
		s.deletionWindow = d
	}
}

// WithClock substitutes the time source, letting tests step through the
// processing and deletion windows without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithRand substitutes the randomness source used to draw tracking
// ratings, making target success and failure deterministic. Each added
// database gets its own rand seeded from r, so stores never contend on
// the given instance.
func WithRand(r *rand.Rand) Option {
	return func(s *settings) {
		s.rand = r
	}
}

// WithLogger substitutes the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

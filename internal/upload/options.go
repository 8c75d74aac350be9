package upload

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var errNoClient = errors.New("store client is not configured")

type settings struct {
	logger   zerolog.Logger
	checksum bool
	now      func() time.Time
}

// Option configures an Uploader or Reader.
type Option func(*settings)

// WithLogger sends debug events for each request to logger. The default is a
// disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithChecksum asks the store to verify a SHA-256 checksum of each payload.
func WithChecksum() Option {
	return func(s *settings) {
		s.checksum = true
	}
}

func withClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

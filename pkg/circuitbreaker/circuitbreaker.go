package circuitbreaker

import (
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrOpenState       = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

type Settings struct {
	Name string
	// Requests allowed through while half-open.
	MaxRequests uint32
	// Cyclic period of the closed state after which counts are cleared.
	Interval time.Duration
	// How long the breaker stays open before probing again.
	Timeout time.Duration
	// Consecutive failures that trip the breaker.
	ConsecutiveFailures uint32
	// Errors for which it returns true do not count as failures.
	IsSuccessful func(err error) bool
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

func New[T any](s Settings) *gobreaker.CircuitBreaker[T] {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         s.Name,
		MaxRequests:  s.MaxRequests,
		Interval:     s.Interval,
		Timeout:      s.Timeout,
		IsSuccessful: s.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

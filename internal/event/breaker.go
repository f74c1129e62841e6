package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Sender publishes an envelope to a topic. *pkgkafka.Producer implements it.
type Sender interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// BreakerConfig holds configuration for the publish circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial publishes allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns defaults for the Kafka publish breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "event_publisher_circuit_state",
	Help: "Current state of the event publish circuit breaker (0=closed, 1=half-open, 2=open)",
}, []string{"name"})

// stateToFloat maps gobreaker states to gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerSender stops calling an unreachable broker after repeated failures
// so requests do not each wait out the write timeout.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next Sender, cfg BreakerConfig, logger *slog.Logger) *BreakerSender {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerSender{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Publish forwards to the wrapped sender unless the breaker is open.
func (b *BreakerSender) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, topic, event)
	})
	return err
}

// State returns the current breaker state.
func (b *BreakerSender) State() gobreaker.State {
	return b.breaker.State()
}

package breaker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Alerter receives the single trip alert
type Alerter interface {
	Send(ctx context.Context, text string) error
}

// Breaker is a one-shot circuit breaker: Armed → Tripped (terminal)
// ⭐ SSOT: the scan loop stops querying upstream once Tripped() is true
type Breaker struct {
	tripped atomic.Bool
	once    sync.Once
	reason  atomic.Value // error

	alerter Alerter
	logger  *logger.Logger
}

// New creates an armed breaker. alerter may be nil.
func New(alerter Alerter, log *logger.Logger) *Breaker {
	return &Breaker{
		alerter: alerter,
		logger:  log,
	}
}

// Trip transitions to Tripped and emits one alert
// Returns true only for the call that tripped the breaker.
func (b *Breaker) Trip(ctx context.Context, reason error) bool {
	fired := false
	b.once.Do(func() {
		fired = true
		if reason != nil {
			b.reason.Store(reason)
		}
		b.tripped.Store(true)

		b.logger.WithError(reason).Error("Circuit breaker tripped, stopping upstream queries")

		if b.alerter == nil {
			return
		}
		if err := b.alerter.Send(ctx, alertText(reason)); err != nil {
			b.logger.WithError(err).Warn("Failed to send breaker alert")
		}
	})
	return fired
}

// Tripped reports whether the breaker has tripped
func (b *Breaker) Tripped() bool {
	return b.tripped.Load()
}

// Reason returns the error that tripped the breaker, nil while armed
func (b *Breaker) Reason() error {
	if v := b.reason.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func alertText(reason error) string {
	msg := "unknown"
	if reason != nil {
		msg = reason.Error()
	}
	return fmt.Sprintf("⛔ <b>SCAN STOPPED</b>\nUpstream rejected the API key: %s\nCheck GOAPI_KEY.", msg)
}

// Package analytics fires first-party goal events at the site's two
// analytics integrations. Delivery is best effort: failures are logged and
// dropped, and callers never wait on the network.
package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Goal names shared with the analytics dashboards.
const (
	GoalBookClick          = "book_click"
	GoalPromoBookClick     = "promo_book_click"
	GoalMessengerVK        = "messenger_click_vk"
	GoalMessengerTelegram  = "messenger_click_tg"
	GoalMessengerWhatsApp  = "messenger_click_wa"
	GoalPhoneClick         = "phone_click"
	GoalCalculatorUsed     = "calculator_used"
	GoalFormSubmitLead     = "form_submit_lead"
	GoalFormSubmitQuestion = "form_submit_question"
)

const sendTimeout = 5 * time.Second

// Tracker records a goal.
type Tracker interface {
	Track(ctx context.Context, goal string, params map[string]string)
}

// Event is a single goal occurrence.
type Event struct {
	Goal   string
	Params map[string]string
	At     time.Time
}

// Sink delivers events to one integration.
type Sink interface {
	Name() string
	Available() bool
	Send(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to every available sink in the background.
type Dispatcher struct {
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher over sinks; unavailable sinks are kept
// but skipped on every Track call.
func NewDispatcher(logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, logger: logger, now: time.Now}
}

// Track implements Tracker. It returns immediately.
func (d *Dispatcher) Track(ctx context.Context, goal string, params map[string]string) {
	if d == nil || goal == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ev := Event{Goal: goal, Params: copyParams(params), At: d.now().UTC()}
	base := context.WithoutCancel(ctx)
	for _, sink := range d.sinks {
		if sink == nil || !sink.Available() {
			continue
		}
		sink := sink
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					d.logger.Debug("analytics sink panicked", zap.String("sink", sink.Name()), zap.Any("panic", rec))
				}
			}()
			sendCtx, cancel := context.WithTimeout(base, sendTimeout)
			defer cancel()
			if err := sink.Send(sendCtx, ev); err != nil {
				d.logger.Debug("analytics goal dropped",
					zap.String("sink", sink.Name()),
					zap.String("goal", ev.Goal),
					zap.Error(err),
				)
			}
		}()
	}
}

// Wait blocks until in-flight sends finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(context.Context, string, map[string]string) {}

func copyParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

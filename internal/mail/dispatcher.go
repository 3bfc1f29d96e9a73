package mail

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// Dispatcher sends mail in the background on a bounded worker pool so
// request handlers never wait on the SMTP relay.
type Dispatcher struct {
	sender Sender
	pool   *ants.Pool
}

func NewDispatcher(sender Sender, workers int) (*Dispatcher, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		zap.L().Error("mail worker panic", zap.String("namespace", "mail"), zap.Any("panic", p))
	}))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{sender: sender, pool: pool}, nil
}

// Dispatch queues msg. Delivery failures are logged, never returned.
func (d *Dispatcher) Dispatch(msg Message) {
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, msg); err != nil {
			zap.L().Error("failed to send email",
				zap.String("namespace", "mail"),
				zap.String("to", msg.To),
				zap.Error(err))
		}
	})
	if err != nil {
		zap.L().Error("mail queue rejected message", zap.String("to", msg.To), zap.Error(err))
	}
}

// Sender returns the underlying synchronous sender.
func (d *Dispatcher) Sender() Sender {
	return d.sender
}

// Release waits up to timeout for queued mail, then stops the pool.
func (d *Dispatcher) Release(timeout time.Duration) {
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		zap.L().Warn("mail pool release timeout", zap.Error(err))
	}
}

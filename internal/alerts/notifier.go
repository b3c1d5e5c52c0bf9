package alerts

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, message string) error
}

// Notifier fans a message out to every sender without blocking the caller.
type Notifier struct {
	senders []Sender
	timeout time.Duration
	log     *zap.Logger
}

func NewNotifier(log *zap.Logger, senders ...Sender) *Notifier {
	return &Notifier{senders: senders, timeout: 10 * time.Second, log: log}
}

// Notify delivers in the background; failures are only logged.
func (n *Notifier) Notify(message string) {
	if n == nil || len(n.senders) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.SendAll(ctx, message); err != nil && n.log != nil {
			n.log.Warn("alert send failed", zap.Error(err))
		}
	}()
}

// SendAll delivers synchronously and joins every sender's error.
func (n *Notifier) SendAll(ctx context.Context, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

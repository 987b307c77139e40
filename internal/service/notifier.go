package service

import (
	"context"

	"go.uber.org/zap"
)

// Notifier sends an outbound message to a channel address. Implementations
// wrap the messaging provider; the core treats delivery as fire-and-forget
// and only logs failures.
type Notifier interface {
	Send(ctx context.Context, address, text string) error
}

// LogNotifier writes outbound messages to the log instead of a real channel.
// It stands in for the provider transport in development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, address, text string) error {
	n.logger.Info("outbound message",
		zap.String("address", address),
		zap.String("text", text),
	)
	return nil
}

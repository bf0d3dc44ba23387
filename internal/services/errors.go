package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	"splitledger/internal/storage"
)

// storeErr translates storage sentinels into service sentinels, keeping the
// operation context.
func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// invalid marks a validation failure while keeping the underlying reason
// comparable with errors.Is.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func groupRef(id *core.GroupID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

// publish never fails the caller: the write already succeeded.
func publish(ctx context.Context, events EventPublisher, msg *amqp.LedgerChangedMessage) {
	if events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger change message", "kind", msg.Kind)
		return
	}
	if err := events.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"kind", msg.Kind,
			"message_id", msg.ID,
			"error", err)
	}
}

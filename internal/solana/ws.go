package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSlots subscribes to slot progression notifications.
	SubscribeSlots(ctx context.Context) (<-chan SlotNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SlotNotification is one slotSubscribe message.
type SlotNotification struct {
	Slot   uint64
	Parent uint64
	Root   uint64
}

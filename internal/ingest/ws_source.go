package ingest

import (
	"context"
	"fmt"

	"solana-sandwich-watch/internal/solana"
)

// WSSlotStream announces confirmed slots from a slotSubscribe stream.
// Out-of-order or repeated notifications are filtered so consumers see a
// strictly increasing slot sequence.
type WSSlotStream struct {
	ws solana.WSClient
}

// NewWSSlotStream creates a slot stream over the given WebSocket client.
func NewWSSlotStream(ws solana.WSClient) *WSSlotStream {
	return &WSSlotStream{ws: ws}
}

var _ SlotStream = (*WSSlotStream)(nil)

// Slots subscribes and returns a channel of strictly increasing slot
// numbers. The channel closes when the subscription ends or ctx is done.
func (s *WSSlotStream) Slots(ctx context.Context) (<-chan uint64, error) {
	notifs, err := s.ws.SubscribeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe slots: %w", err)
	}

	out := make(chan uint64)
	go func() {
		defer close(out)
		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-notifs:
				if !ok {
					return
				}
				if n.Slot <= last {
					continue
				}
				last = n.Slot
				select {
				case out <- n.Slot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"

	"chestshop.dev/internal/protocol"
)

func TestHub_SendDelivers(t *testing.T) {
	hub := NewHub()
	actor := uuid.New()
	out := make(chan []byte, 1)
	hub.attach(actor, out)

	hub.Send(actor, "menu.successful-purchase", 3, "minecraft:diamond")
	var n protocol.NoticeMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &n); err != nil {
			t.Fatalf("notice: %v", err)
		}
	default:
		t.Fatalf("notice not queued")
	}
	if n.Type != protocol.TypeNotice || n.MessageID != "menu.successful-purchase" {
		t.Fatalf("notice = %+v", n)
	}

	// A full queue drops rather than blocks.
	hub.Send(actor, "a")
	hub.Send(actor, "b")
	if len(out) != 1 {
		t.Fatalf("queue = %d, want 1 after overflow drop", len(out))
	}
}

func TestHub_SendToUnknownActorIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Send(uuid.New(), "no-permission")
}

func TestHub_ReconnectReplacesSession(t *testing.T) {
	hub := NewHub()
	actor := uuid.New()
	first := make(chan []byte, 1)
	second := make(chan []byte, 1)
	hub.attach(actor, first)
	hub.attach(actor, second)

	if _, ok := <-first; ok {
		t.Fatalf("old session channel not closed on reconnect")
	}
	hub.Send(actor, "x")
	if len(second) != 1 {
		t.Fatalf("notice not routed to the new session")
	}

	// The old session's deferred detach must not tear down the new one.
	hub.detach(actor, first)
	if !hub.Online(actor) {
		t.Fatalf("stale detach removed the live session")
	}
	hub.detach(actor, second)
	if hub.Online(actor) {
		t.Fatalf("actor online after detach")
	}
}

// Reconnects racing in-flight notices must never send on a closed channel.
func TestHub_ConcurrentReconnectAndSend(t *testing.T) {
	hub := NewHub()
	actor := uuid.New()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			hub.attach(actor, make(chan []byte, 4))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			hub.Send(actor, "shop-out-of-stock")
		}
	}()
	wg.Wait()
}

package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageCreated, Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindMessageCreated {
			t.Errorf("got kind %q, want %s", evt.Kind, KindMessageCreated)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("contact.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindPresenceChanged})
	b.Publish(Event{Kind: KindContactAccepted})

	select {
	case evt := <-ch:
		if evt.Kind != KindContactAccepted {
			t.Errorf("got kind %q, want %s", evt.Kind, KindContactAccepted)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure presence event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestAudienceFiltering(t *testing.T) {
	tests := []struct {
		desc     string
		audience []string
		want     bool
	}{
		{"addressed to subscriber", []string{"alice", "bob"}, true},
		{"addressed to others", []string{"carol"}, false},
		{"broadcast", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			b := New()
			ch, unsub := b.SubscribeUser("", "bob", 1)
			defer unsub()

			b.Publish(Event{Kind: KindMessageCreated, Audience: tt.audience})

			select {
			case <-ch:
				if !tt.want {
					t.Error("event should have been filtered")
				}
			case <-time.After(50 * time.Millisecond):
				if tt.want {
					t.Error("event was not delivered")
				}
			}
		})
	}
}

func TestUnfilteredSubscriberSeesEverything(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 1)
	defer unsub()

	b.Publish(Event{Kind: KindMessageCreated, Audience: []string{"carol"}})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	unsub()

	b.Publish(Event{Kind: KindMessageCreated})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBufferIsCounted(t *testing.T) {
	b := New()
	sub := b.Watch("test.", "", 1)
	defer sub.Close()

	b.Publish(Event{Kind: "test.one"})
	b.Publish(Event{Kind: "test.two"})
	b.Publish(Event{Kind: "test.three"})

	if evt := <-sub.C; evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
	if n := sub.Lagged(); n != 2 {
		t.Errorf("Lagged() = %d, want 2", n)
	}
	if n := sub.Lagged(); n != 0 {
		t.Errorf("Lagged() after reset = %d, want 0", n)
	}
}

func TestCloseTwice(t *testing.T) {
	b := New()
	sub := b.Watch("", "", 1)
	sub.Close()
	sub.Close()
	b.Publish(Event{Kind: "x"})
	if len(b.subs) != 0 {
		t.Errorf("subs = %d after close", len(b.subs))
	}
}

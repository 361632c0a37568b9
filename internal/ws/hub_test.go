package ws

import (
	"testing"
	"time"
)

func mustReceiveMessage(t *testing.T, ch <-chan []byte, timeout time.Duration) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for websocket payload")
		return nil
	}
}

func mustNotReceiveMessage(t *testing.T, ch <-chan []byte, timeout time.Duration) {
	t.Helper()
	select {
	case payload := <-ch:
		t.Fatalf("expected no payload, got %q", string(payload))
	case <-time.After(timeout):
	}
}

func TestHubBroadcastFiltersByZone(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clientNorth := NewClient(hub, nil)
	clientNorth.SetZones([]string{"North"})

	clientEast := NewClient(hub, nil)
	clientEast.SetZones([]string{"East"})

	clientAll := NewClient(hub, nil)

	hub.Register(clientNorth)
	hub.Register(clientEast)
	hub.Register(clientAll)

	t.Cleanup(func() {
		hub.Unregister(clientNorth)
		hub.Unregister(clientEast)
		hub.Unregister(clientAll)
	})

	time.Sleep(25 * time.Millisecond)

	hub.Broadcast("North", []byte("north-update"))
	received := mustReceiveMessage(t, clientNorth.Send, 200*time.Millisecond)
	if string(received) != "north-update" {
		t.Fatalf("expected north-update payload, got %q", string(received))
	}
	received = mustReceiveMessage(t, clientAll.Send, 200*time.Millisecond)
	if string(received) != "north-update" {
		t.Fatalf("expected north-update payload for unsubscribed client, got %q", string(received))
	}
	mustNotReceiveMessage(t, clientEast.Send, 80*time.Millisecond)

	hub.Broadcast("", []byte("site-wide"))
	for _, client := range []*Client{clientNorth, clientEast, clientAll} {
		received = mustReceiveMessage(t, client.Send, 200*time.Millisecond)
		if string(received) != "site-wide" {
			t.Fatalf("expected site-wide payload, got %q", string(received))
		}
	}
}

func TestSubscribeReplacesZoneSet(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil)

	processClientMessage(client, clientMessage{Type: "subscribe", Zones: []string{"North", "East"}})
	if !client.WantsZone("North") || !client.WantsZone("East") {
		t.Fatalf("expected North and East subscriptions, got %v", client.Zones())
	}
	if client.WantsZone("West") {
		t.Fatalf("did not expect West subscription")
	}

	// Second subscribe replaces, not merges.
	processClientMessage(client, clientMessage{Type: "subscribe", Zones: []string{"West"}})
	if client.WantsZone("North") {
		t.Fatalf("expected North subscription to be dropped")
	}
	if !client.WantsZone("West") {
		t.Fatalf("expected West subscription, got %v", client.Zones())
	}

	// Empty list resets to receive-everything.
	processClientMessage(client, clientMessage{Type: "subscribe"})
	if !client.WantsZone("North") || !client.WantsZone("West") {
		t.Fatalf("expected reset client to receive all zones")
	}
}

func TestSubscribeRejectsMalformedZones(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil)

	processClientMessage(client, clientMessage{Type: "subscribe", Zones: []string{"North", "  ", "zone\nwith\nnewlines"}})
	zones := client.Zones()
	if len(zones) != 1 || zones[0] != "North" {
		t.Fatalf("expected only North to survive validation, got %v", zones)
	}
}

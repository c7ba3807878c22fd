package sink

import (
	"fmt"
	"testing"
	"time"
)

func TestUnboundedQueue_SendNeverBlocks(t *testing.T) {
	q := newUnboundedQueue()

	// No consumer: every send must still return promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			q.Send(command{kind: cmdPublish, payload: []byte(fmt.Sprintf("%d", i))})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked on an unbounded queue")
	}

	q.CloseInput()

	count := 0
	for cmd := range q.Out() {
		want := fmt.Sprintf("%d", count)
		if string(cmd.payload) != want {
			t.Fatalf("out[%d] = %q, want %q (FIFO violated)", count, cmd.payload, want)
		}
		count++
	}
	if count != 10000 {
		t.Errorf("drained %d commands, want 10000", count)
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", q.Dropped())
	}
}

func TestBoundedQueue_DropsOldest(t *testing.T) {
	q := newBoundedQueue(2)

	for i := 0; i < 5; i++ {
		q.Send(command{kind: cmdPublish, payload: []byte(fmt.Sprintf("%d", i))})
	}
	q.CloseInput()

	var got []string
	for cmd := range q.Out() {
		got = append(got, string(cmd.payload))
	}

	if len(got) != 2 {
		t.Fatalf("drained %d commands, want 2", len(got))
	}
	// With no concurrent consumer the survivors are the newest two.
	if got[0] != "3" || got[1] != "4" {
		t.Errorf("survivors = %v, want [3 4]", got)
	}
	if q.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", q.Dropped())
	}
}

func TestBoundedQueue_NoDropBelowCapacity(t *testing.T) {
	q := newBoundedQueue(8)

	for i := 0; i < 8; i++ {
		q.Send(command{kind: cmdPublish})
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0 below capacity", q.Dropped())
	}
}

package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInOrder(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() {
		fired = append(fired, "a")
		c.AfterFunc(500*time.Millisecond, func() { fired = append(fired, "a2") })
	})
	stopped := c.AfterFunc(1500*time.Millisecond, func() { fired = append(fired, "never") })
	if !stopped.Stop() {
		t.Fatalf("expected pending timer to stop")
	}

	c.Advance(3 * time.Second)

	want := []string{"a", "a2", "b"}
	if len(fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fired)
		}
	}
	if !c.Now().Equal(start.Add(3 * time.Second)) {
		t.Fatalf("unexpected now %v", c.Now())
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}

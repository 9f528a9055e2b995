package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestBurstRunsOnce(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 10)
	d := New(150*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced function never ran")
	}

	// give a stray second run the chance to show up
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestSeparatedTriggersRunEach(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 2)
	d := New(10*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})

	for i := 0; i < 2; i++ {
		d.Trigger()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("run %d never happened", i)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestStopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := New(50*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no runs after stop, got %d", got)
	}
}

func TestDefaultDelay(t *testing.T) {
	if d := New(0, func() {}); d.delay != DefaultDelay {
		t.Fatalf("expected default delay, got %v", d.delay)
	}
}

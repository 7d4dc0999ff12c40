package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type connErr struct{ msg string }

func (e *connErr) Error() string           { return e.msg }
func (e *connErr) ConnectionFailure() bool { return true }

func TestDelayForAttempt_NoJitter_ExponentialAndCapped(t *testing.T) {
	p := Policy{
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        400 * time.Millisecond,
		ExponentialBase: 2.0,
	}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		400 * time.Millisecond, // capped
	}
	for attempt, w := range want {
		if got := p.DelayForAttempt(attempt); got != w {
			t.Fatalf("attempt %d: got %v want %v", attempt, got, w)
		}
	}
}

func TestDelayForAttempt_TotalSleepSum(t *testing.T) {
	p := Policy{
		BaseDelay:       50 * time.Millisecond,
		MaxDelay:        300 * time.Millisecond,
		ExponentialBase: 2.0,
	}
	// Sum over k retries equals sum of min(base*2^a, cap).
	var total time.Duration
	for a := 0; a < 5; a++ {
		total += p.DelayForAttempt(a)
	}
	want := 50*time.Millisecond + 100*time.Millisecond + 200*time.Millisecond +
		300*time.Millisecond + 300*time.Millisecond
	if total != want {
		t.Fatalf("total sleep: got %v want %v", total, want)
	}
}

func TestDelayForAttempt_JitterWithinRange(t *testing.T) {
	p := Policy{
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
	for i := 0; i < 50; i++ {
		d := p.DelayForAttempt(0)
		if d < 0 || d >= 100*time.Millisecond {
			t.Fatalf("jittered delay out of [0, base): %v", d)
		}
	}
}

func TestExecute_SucceedsAfterRetries(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, ExponentialBase: 2.0}
	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: got %d want 3", calls)
	}
}

func TestExecute_ExhaustionWrapsLastError(t *testing.T) {
	p := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, ExponentialBase: 2.0}
	boom := errors.New("boom")
	err := p.Execute(context.Background(), func() error { return boom })
	var ex *Exhausted
	if !errors.As(err, &ex) {
		t.Fatalf("expected Exhausted, got %T: %v", err, err)
	}
	if ex.Attempts != 3 {
		t.Fatalf("attempts: got %d want 3", ex.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("Exhausted should unwrap to the last failure")
	}
}

func TestExecute_NonRetryableReturnsImmediately(t *testing.T) {
	p := Connection()
	p.BaseDelay = time.Millisecond
	calls := 0
	plain := errors.New("validation problem")
	err := p.Execute(context.Background(), func() error {
		calls++
		return plain
	})
	if !errors.Is(err, plain) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error must not be retried; calls=%d", calls)
	}
}

func TestExecute_ConnectionProfileRetriesConnectionFailures(t *testing.T) {
	p := Connection()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &connErr{msg: "socket reset"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: got %d want 2", calls)
	}
}

func TestExecute_ContextCancelStopsSleeping(t *testing.T) {
	p := Policy{MaxRetries: 5, BaseDelay: time.Hour, ExponentialBase: 2.0}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Execute(ctx, func() error { return errors.New("always") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

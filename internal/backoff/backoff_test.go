package backoff

import (
	"context"
	"testing"
	"time"
)

func TestDelayDoubles(t *testing.T) {
	p := New(time.Second, 30*time.Second, 0)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}

	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDelayClampsLowAttempt(t *testing.T) {
	p := Default()
	if got := p.Delay(0); got != time.Second {
		t.Errorf("Delay(0) = %v, want %v", got, time.Second)
	}
	if got := p.Delay(-3); got != time.Second {
		t.Errorf("Delay(-3) = %v, want %v", got, time.Second)
	}
}

func TestExhausted(t *testing.T) {
	p := New(time.Second, 30*time.Second, 3)

	if p.Exhausted(3) {
		t.Error("attempt 3 should be allowed with MaxAttempts=3")
	}
	if !p.Exhausted(4) {
		t.Error("attempt 4 should be exhausted with MaxAttempts=3")
	}

	unlimited := Default()
	if unlimited.Exhausted(1000) {
		t.Error("zero MaxAttempts must never exhaust")
	}
}

func TestNewSubstitutesDefaults(t *testing.T) {
	p := New(0, 0, 0)
	if p.Base != time.Second {
		t.Errorf("Base = %v, want 1s", p.Base)
	}
	if p.Cap != 30*time.Second {
		t.Errorf("Cap = %v, want 30s", p.Cap)
	}
}

func TestWaitCancelled(t *testing.T) {
	p := New(time.Minute, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx, 1); err != context.Canceled {
		t.Errorf("Wait on cancelled context = %v, want context.Canceled", err)
	}
}

func TestWaitCompletes(t *testing.T) {
	p := New(time.Millisecond, time.Second, 0)

	if err := p.Wait(context.Background(), 1); err != nil {
		t.Errorf("Wait returned error: %v", err)
	}
}

package pipeline

import (
	"testing"
	"time"
)

func TestRetryPolicy_DelayGrowsAndCaps(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}

	want := map[int]time.Duration{
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 8 * time.Second,
		4: 10 * time.Second,
		5: 10 * time.Second,
	}
	var prev time.Duration
	for failures := 1; failures <= 5; failures++ {
		d := p.Delay(failures)
		if d != want[failures] {
			t.Fatalf("failures=%d: expected %s, got %s", failures, want[failures], d)
		}
		if d < prev {
			t.Fatalf("delay decreased: %s after %s", d, prev)
		}
		prev = d
	}
}

func TestRetryPolicy_NormalizedFillsDefaults(t *testing.T) {
	p := RetryPolicy{}.normalized()
	def := DefaultRetryPolicy()
	if p != def {
		t.Fatalf("expected defaults %+v, got %+v", def, p)
	}
}

func TestRetryPolicy_BaseDelayAboveCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 20 * time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}
	if d := p.Delay(1); d != 10*time.Second {
		t.Fatalf("expected cap on first delay, got %s", d)
	}
}

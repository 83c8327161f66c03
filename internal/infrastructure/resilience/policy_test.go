package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsZeroValues(t *testing.T) {
	got := Config{BreakerEnabled: true}.normalize()
	def := DefaultConfig()

	if got.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("RetryMaxAttempts = %d, want %d", got.RetryMaxAttempts, def.RetryMaxAttempts)
	}
	if got.RetryInitialBackoff != def.RetryInitialBackoff {
		t.Fatalf("RetryInitialBackoff = %v, want %v", got.RetryInitialBackoff, def.RetryInitialBackoff)
	}
	if got.BreakerMinRequests != def.BreakerMinRequests {
		t.Fatalf("BreakerMinRequests = %d, want %d", got.BreakerMinRequests, def.BreakerMinRequests)
	}
	if got.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("BreakerFailureRatio = %v, want %v", got.BreakerFailureRatio, def.BreakerFailureRatio)
	}
}

func TestNormalizeRaisesMaxBackoffToInitial(t *testing.T) {
	got := Config{
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
	}.normalize()

	if got.RetryMaxBackoff != 500*time.Millisecond {
		t.Fatalf("RetryMaxBackoff = %v, want %v", got.RetryMaxBackoff, 500*time.Millisecond)
	}
}

func TestNormalizeRejectsOutOfRangeFailureRatio(t *testing.T) {
	got := Config{BreakerFailureRatio: 1.5}.normalize()
	if got.BreakerFailureRatio != DefaultConfig().BreakerFailureRatio {
		t.Fatalf("BreakerFailureRatio = %v, want default", got.BreakerFailureRatio)
	}
}

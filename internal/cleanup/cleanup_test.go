package cleanup

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewCleanupService_Defaults(t *testing.T) {
	svc := NewCleanupService(nil, 0, 0, zap.NewNop())

	if svc.anonCartTTL != 30*24*time.Hour {
		t.Errorf("expected 30d anon cart TTL default, got %v", svc.anonCartTTL)
	}
	if svc.tokenRetention != 24*time.Hour {
		t.Errorf("expected 24h token retention default, got %v", svc.tokenRetention)
	}
}

func TestConsumedCutoff_UsesConfiguredRetention(t *testing.T) {
	retention := 7 * 24 * time.Hour
	svc := NewCleanupService(nil, 0, retention, zap.NewNop())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	got := svc.consumedCutoff(now)
	if want := now.Add(-retention); !got.Equal(want) {
		t.Errorf("cutoff %v, want %v", got, want)
	}
}

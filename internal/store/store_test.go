package store

import (
	"context"
	"testing"
	"time"
)

func TestDisabledStoresAreNoops(t *testing.T) {
	ctx := context.Background()

	rs := NewRefreshStore(nil, time.Hour)
	if rs.Enabled() {
		t.Fatal("refresh store without redis must be disabled")
	}
	if err := rs.Put(ctx, "u", "j"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := rs.Consume(ctx, "u", "j"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := rs.RevokeAll(ctx, "u"); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}

	rc := NewReportCache(nil, time.Minute)
	var dst map[string]any
	hit, err := rc.GetDashboard(ctx, &dst)
	if err != nil || hit {
		t.Fatalf("GetDashboard = %v, %v; want miss", hit, err)
	}
	if err := rc.SetDashboard(ctx, map[string]int{"a": 1}); err != nil {
		t.Fatalf("SetDashboard: %v", err)
	}
	if err := rc.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}

	var nilStore *RefreshStore
	if nilStore.Enabled() {
		t.Fatal("nil store must be disabled")
	}
}

package notification

import (
	"context"
	"testing"
	"time"
)

func TestDailyCapPerUser(t *testing.T) {
	n := NewCappedNotifier()
	ctx := context.Background()

	for i := 0; i < DailyCapPerUser; i++ {
		if !n.Notify(ctx, "U1", "trade", "filled") {
			t.Fatalf("notification %d should be delivered", i+1)
		}
	}
	if n.Notify(ctx, "U1", "trade", "filled") {
		t.Error("notification over the daily cap should be dropped")
	}

	// 其他用户的配额独立
	if !n.Notify(ctx, "U2", "trade", "filled") {
		t.Error("another user should still have quota")
	}
}

func TestCapResetsLazilyAcrossMidnight(t *testing.T) {
	n := NewCappedNotifier()
	ctx := context.Background()

	current := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local)
	n.now = func() time.Time { return current }
	n.lastReset = time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)

	for i := 0; i < DailyCapPerUser; i++ {
		n.Notify(ctx, "U1", "trade", "filled")
	}
	if n.Notify(ctx, "U1", "trade", "filled") {
		t.Fatal("cap should be exhausted before midnight")
	}

	current = time.Date(2026, 3, 11, 0, 5, 0, 0, time.Local)
	if !n.Notify(ctx, "U1", "trade", "filled") {
		t.Error("quota should reset on the first call of a new day")
	}
}

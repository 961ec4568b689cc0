package canteen

import (
	"testing"
	"time"
)

func orderWithQty(status Status, createdAt time.Time, qtys ...int) *Order {
	o := &Order{ID: "o1", Status: status, CreatedAt: createdAt}
	for i, q := range qtys {
		o.Items = append(o.Items, OrderLine{MenuID: string(rune('a' + i)), Quantity: q, UnitPrice: 1000})
	}
	return o
}

func TestEstimatedMinutes(t *testing.T) {
	// 10 menit dasar + 3 menit per unit
	o := orderWithQty(StatusConfirmed, time.Now(), 2, 1)
	if got := EstimatedMinutes(o); got != 10+3*3 {
		t.Errorf("expected 19, got %d", got)
	}

	empty := orderWithQty(StatusConfirmed, time.Now())
	if got := EstimatedMinutes(empty); got != 10 {
		t.Errorf("expected base 10 for empty order, got %d", got)
	}
}

func TestWaitStatus_Boundaries(t *testing.T) {
	// Batas inklusif: tepat 100% masih on-time, tepat 150% masih
	// slightly-delayed.
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	o := orderWithQty(StatusConfirmed, created, 5) // estimasi 10 + 15 = 25 menit

	cases := []struct {
		elapsed time.Duration
		want    WaitClass
	}{
		{10 * time.Minute, WaitOnTime},
		{25 * time.Minute, WaitOnTime},                  // tepat 100%
		{25*time.Minute + 30*time.Second, WaitSlightlyDelayed}, // > 100%
		{37*time.Minute + 30*time.Second, WaitSlightlyDelayed}, // tepat 150%
		{38 * time.Minute, WaitDelayed},                 // > 150%
	}
	for _, c := range cases {
		info, ok := WaitStatus(o, created.Add(c.elapsed))
		if !ok {
			t.Fatalf("confirmed order must be monitored")
		}
		if info.Class != c.want {
			t.Errorf("elapsed %s: expected %s, got %s (pct=%.1f)", c.elapsed, c.want, info.Class, info.Percentage)
		}
	}
}

func TestWaitStatus_OnlyConfirmedAndPreparingMonitored(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour) // jauh melewati estimasi
	monitored := map[Status]bool{StatusConfirmed: true, StatusPreparing: true}

	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled} {
		o := orderWithQty(s, created, 1)
		_, ok := WaitStatus(o, time.Now())
		if ok != monitored[s] {
			t.Errorf("WaitStatus monitored(%s) = %v, want %v", s, ok, monitored[s])
		}
	}
}

func TestIsDueForAutoConfirm(t *testing.T) {
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	after := 2 * time.Minute

	o := orderWithQty(StatusPending, created, 1)
	if IsDueForAutoConfirm(o, created.Add(time.Minute), after) {
		t.Error("not yet due")
	}
	if !IsDueForAutoConfirm(o, created.Add(2*time.Minute), after) {
		t.Error("due exactly at the window")
	}

	confirmed := orderWithQty(StatusConfirmed, created, 1)
	if IsDueForAutoConfirm(confirmed, created.Add(time.Hour), after) {
		t.Error("only pending orders auto-confirm")
	}
}

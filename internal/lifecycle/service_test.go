package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	kafkago "github.com/segmentio/kafka-go"
)

type memOrders struct {
	mu       sync.Mutex
	orders   map[string]*canteen.Order
	stock    map[string]int
	restores int // berapa kali restore stok dieksekusi
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]*canteen.Order{}, stock: map[string]int{}}
}

func (m *memOrders) put(o *canteen.Order) { m.orders[o.ID] = o }

func (m *memOrders) Get(ctx context.Context, id string) (*canteen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, canteen.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Cancel(ctx context.Context, id string) (bool, []canteen.RestoredLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, nil, canteen.ErrNotFound
	}
	if !canteen.CanCancel(o.Status) {
		return false, nil, nil
	}
	now := time.Now()
	o.Status = canteen.StatusCancelled
	o.CancelledAt = &now
	var restored []canteen.RestoredLine
	for _, it := range o.Items {
		m.stock[it.MenuID] += it.Quantity
		restored = append(restored, canteen.RestoredLine{MenuID: it.MenuID, Qty: it.Quantity})
	}
	m.restores++
	return true, restored, nil
}

func (m *memOrders) Advance(ctx context.Context, id string, from, to canteen.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	if to == canteen.StatusCompleted {
		now := time.Now()
		o.CompletedAt = &now
	}
	return true, nil
}

type nopPublisher struct{ n atomic.Int32 }

func (p *nopPublisher) Publish(key, value []byte, headers ...kafkago.Header) { p.n.Add(1) }

func testOrder(id, status string) *canteen.Order {
	return &canteen.Order{
		ID: id, BuyerID: "buyer-1", SellerID: "seller-1", StoreName: "Warung A",
		Items: []canteen.OrderLine{
			{MenuID: "m1", MenuName: "Nasi Goreng", UnitPrice: 15000, Quantity: 2},
		},
		TotalAmount: 30000, PaymentMethod: canteen.PayCash,
		Status: canteen.Status(status), CreatedAt: time.Now(),
	}
}

func newLifecycle(m *memOrders) *Service {
	return &Service{Orders: m, ProducerStatus: &nopPublisher{}, ProducerCancel: &nopPublisher{}, ServiceName: "test"}
}

func TestAdvance_FullProgression(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "pending"))
	svc := newLifecycle(m)
	ctx := context.Background()

	want := []canteen.Status{canteen.StatusConfirmed, canteen.StatusPreparing, canteen.StatusReady, canteen.StatusCompleted}
	for _, expected := range want {
		o, err := svc.Advance(ctx, "o1", "seller-1", "")
		if err != nil {
			t.Fatalf("advance to %s: %v", expected, err)
		}
		if o.Status != expected {
			t.Fatalf("expected %s, got %s", expected, o.Status)
		}
	}

	final, _ := m.Get(ctx, "o1")
	if final.CompletedAt == nil {
		t.Error("completedAt must be set on completion")
	}

	if _, err := svc.Advance(ctx, "o1", "seller-1", ""); !errors.Is(err, canteen.ErrTerminalState) {
		t.Errorf("advance on completed order: expected ErrTerminalState, got %v", err)
	}
}

func TestAdvance_OnlySeller(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "pending"))
	svc := newLifecycle(m)

	if _, err := svc.Advance(context.Background(), "o1", "buyer-1", ""); !errors.Is(err, canteen.ErrNotOwner) {
		t.Errorf("buyer advancing order: expected ErrNotOwner, got %v", err)
	}

	o, _ := m.Get(context.Background(), "o1")
	if o.Status != canteen.StatusPending {
		t.Errorf("authz failure must not mutate, status=%s", o.Status)
	}
}

func TestCancel_RestoresStockExactlyOnce(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "pending"))
	m.stock["m1"] = 3 // sisa stok setelah order dibuat (awal 5, qty 2)
	svc := newLifecycle(m)
	ctx := context.Background()

	o, err := svc.Cancel(ctx, "o1", "buyer-1", "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if o.Status != canteen.StatusCancelled || o.CancelledAt == nil {
		t.Errorf("expected cancelled with timestamp, got %s", o.Status)
	}
	if m.stock["m1"] != 5 {
		t.Errorf("expected stock restored to 5, got %d", m.stock["m1"])
	}

	// cancel kedua: stok tidak boleh bertambah lagi
	var ise *canteen.InvalidStateError
	if _, err := svc.Cancel(ctx, "o1", "buyer-1", ""); !errors.As(err, &ise) {
		t.Errorf("double cancel: expected InvalidStateError, got %v", err)
	}
	if m.stock["m1"] != 5 {
		t.Errorf("double cancel must not restore twice, stock=%d", m.stock["m1"])
	}
	if m.restores != 1 {
		t.Errorf("restore executed %d times, want 1", m.restores)
	}
}

func TestCancel_ConcurrentSingleRestore(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "confirmed"))
	m.stock["m1"] = 3
	svc := newLifecycle(m)

	var success atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Cancel(context.Background(), "o1", "buyer-1", ""); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	if success.Load() != 1 {
		t.Errorf("exactly one cancel may succeed, got %d", success.Load())
	}
	if m.stock["m1"] != 5 || m.restores != 1 {
		t.Errorf("stock=%d restores=%d, want 5/1", m.stock["m1"], m.restores)
	}
}

func TestCancel_SellerMayCancel(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "pending"))
	svc := newLifecycle(m)

	if _, err := svc.Cancel(context.Background(), "o1", "seller-1", ""); err != nil {
		t.Errorf("seller-initiated cancel must work: %v", err)
	}
}

func TestCancel_NotOwner(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "pending"))
	svc := newLifecycle(m)

	if _, err := svc.Cancel(context.Background(), "o1", "someone-else", ""); !errors.Is(err, canteen.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	o, _ := m.Get(context.Background(), "o1")
	if o.Status != canteen.StatusPending {
		t.Errorf("authz failure must not mutate, status=%s", o.Status)
	}
}

func TestCancel_AfterPreparing(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "preparing"))
	m.stock["m1"] = 3
	svc := newLifecycle(m)

	var ise *canteen.InvalidStateError
	if _, err := svc.Cancel(context.Background(), "o1", "buyer-1", ""); !errors.As(err, &ise) {
		t.Errorf("cancel from preparing: expected InvalidStateError, got %v", err)
	}
	if m.stock["m1"] != 3 {
		t.Errorf("no restore on failed cancel, stock=%d", m.stock["m1"])
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc := newLifecycle(newMemOrders())
	if _, err := svc.Cancel(context.Background(), "missing", "buyer-1", ""); !errors.Is(err, canteen.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestComplete_OnlyFromReady(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "preparing"))
	svc := newLifecycle(m)
	ctx := context.Background()

	var ise *canteen.InvalidStateError
	if _, err := svc.Complete(ctx, "o1", "seller-1", ""); !errors.As(err, &ise) {
		t.Errorf("complete from preparing: expected InvalidStateError, got %v", err)
	}

	m.orders["o1"].Status = canteen.StatusReady
	o, err := svc.Complete(ctx, "o1", "seller-1", "")
	if err != nil {
		t.Fatalf("complete from ready: %v", err)
	}
	if o.Status != canteen.StatusCompleted || o.CompletedAt == nil {
		t.Errorf("expected completed with timestamp, got %s", o.Status)
	}
}

func TestComplete_BuyerMayPickUp(t *testing.T) {
	m := newMemOrders()
	m.put(testOrder("o1", "ready"))
	svc := newLifecycle(m)

	o, err := svc.Complete(context.Background(), "o1", "buyer-1", "")
	if err != nil {
		t.Fatalf("buyer pickup: %v", err)
	}
	if o.Status != canteen.StatusCompleted {
		t.Errorf("expected completed, got %s", o.Status)
	}
}

func TestAutoConfirm(t *testing.T) {
	m := newMemOrders()
	o := testOrder("o1", "pending")
	o.CreatedAt = time.Now().Add(-5 * time.Minute)
	m.put(o)
	svc := newLifecycle(m)
	ctx := context.Background()

	fresh := testOrder("o2", "pending")
	m.put(fresh)

	ok, err := svc.AutoConfirm(ctx, o, time.Now(), 2*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected auto-confirm applied, ok=%v err=%v", ok, err)
	}
	got, _ := m.Get(ctx, "o1")
	if got.Status != canteen.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}

	ok, err = svc.AutoConfirm(ctx, fresh, time.Now(), 2*time.Minute)
	if err != nil || ok {
		t.Errorf("fresh pending order must not auto-confirm, ok=%v err=%v", ok, err)
	}
}

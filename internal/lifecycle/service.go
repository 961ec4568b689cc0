package lifecycle

import (
	"context"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	kafkax "github.com/ariefcatur/go-canteen-orders.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type OrderStore interface {
	Get(ctx context.Context, id string) (*canteen.Order, error)
	// Cancel: conditional transition pending/confirmed -> cancelled plus
	// restore stok, satu unit atomik. applied=false kalau status sudah lewat.
	Cancel(ctx context.Context, id string) (applied bool, restored []canteen.RestoredLine, err error)
	// Advance: CAS status from -> to.
	Advance(ctx context.Context, id string, from, to canteen.Status) (bool, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service menjalankan state machine order. Tidak ada side effect stok di
// jalur maju; hanya cancel yg mengembalikan stok (lewat OrderStore.Cancel).
type Service struct {
	Orders         OrderStore
	ProducerStatus Publisher // topic order.status.changed
	ProducerCancel Publisher // topic order.cancelled
	ServiceName    string
}

// Cancel oleh buyer atau seller. Cek kepemilikan wajib sebelum mutasi
// apa pun; error authz tidak bocorin state order.
func (s *Service) Cancel(ctx context.Context, orderID, requesterID, trace string) (*canteen.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requesterID != o.BuyerID && requesterID != o.SellerID {
		return nil, canteen.ErrNotOwner
	}

	applied, restored, err := s.Orders.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// status sudah bergeser (double-cancel, atau dapur keburu masak)
		cur, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &canteen.InvalidStateError{OrderID: orderID, Status: cur.Status, Action: "cancel"}
	}

	now := time.Now().UTC()
	from := o.Status
	o.Status = canteen.StatusCancelled
	o.CancelledAt = &now
	s.publishCancelled(o, requesterID, restored, trace)
	s.publishStatus(o.ID, from, canteen.StatusCancelled, trace)
	return o, nil
}

// Advance menggeser order satu langkah maju. Hanya seller pemilik order.
func (s *Service) Advance(ctx context.Context, orderID, requesterID, trace string) (*canteen.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requesterID != o.SellerID {
		return nil, canteen.ErrNotOwner
	}
	if canteen.IsTerminal(o.Status) {
		return nil, canteen.ErrTerminalState
	}
	next, ok := canteen.Next(o.Status)
	if !ok {
		return nil, canteen.ErrTerminalState
	}

	applied, err := s.Orders.Advance(ctx, orderID, o.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		cur, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &canteen.InvalidStateError{OrderID: orderID, Status: cur.Status, Action: "advance"}
	}

	from := o.Status
	o.Status = next
	if next == canteen.StatusCompleted {
		now := time.Now().UTC()
		o.CompletedAt = &now
	}
	s.publishStatus(o.ID, from, next, trace)
	return o, nil
}

// Complete: pickup, hanya sah dari ready. Beda dgn Advance, buyer juga
// boleh (dia yg ambil pesanannya).
func (s *Service) Complete(ctx context.Context, orderID, requesterID, trace string) (*canteen.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requesterID != o.BuyerID && requesterID != o.SellerID {
		return nil, canteen.ErrNotOwner
	}
	if o.Status != canteen.StatusReady {
		if canteen.IsTerminal(o.Status) {
			return nil, canteen.ErrTerminalState
		}
		return nil, &canteen.InvalidStateError{OrderID: orderID, Status: o.Status, Action: "complete"}
	}

	applied, err := s.Orders.Advance(ctx, orderID, canteen.StatusReady, canteen.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !applied {
		cur, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &canteen.InvalidStateError{OrderID: orderID, Status: cur.Status, Action: "complete"}
	}

	now := time.Now().UTC()
	o.Status = canteen.StatusCompleted
	o.CompletedAt = &now
	s.publishStatus(o.ID, canteen.StatusReady, canteen.StatusCompleted, trace)
	return o, nil
}

// AutoConfirm dipanggil scheduler (cmd/monitor) utk order pending yg sudah
// melewati jendela konfirmasi. CAS-guarded: kalau seller keburu aksi lain,
// applied=false dan itu bukan error.
func (s *Service) AutoConfirm(ctx context.Context, o *canteen.Order, now time.Time, after time.Duration) (bool, error) {
	if !canteen.IsDueForAutoConfirm(o, now, after) {
		return false, nil
	}
	applied, err := s.Orders.Advance(ctx, o.ID, canteen.StatusPending, canteen.StatusConfirmed)
	if err != nil || !applied {
		return false, err
	}
	s.publishStatus(o.ID, canteen.StatusPending, canteen.StatusConfirmed, "")
	return true, nil
}

func (s *Service) publishStatus(orderID string, from, to canteen.Status, trace string) {
	if s.ProducerStatus == nil {
		return
	}
	ev := canteen.Envelope{
		EventID:       uuid.NewString(),
		EventType:     canteen.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(canteen.OrderStatusChangedPayload{
			OrderID: orderID, From: from, To: to, At: time.Now().UTC(),
		}),
	}
	s.ProducerStatus.Publish(canteen.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(canteen.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishCancelled(o *canteen.Order, by string, restored []canteen.RestoredLine, trace string) {
	if s.ProducerCancel == nil {
		return
	}
	ev := canteen.Envelope{
		EventID:       uuid.NewString(),
		EventType:     canteen.EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(canteen.OrderCancelledPayload{
			OrderID: o.ID, CancelledBy: by, Restored: restored,
		}),
	}
	s.ProducerCancel.Publish(canteen.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(canteen.EventOrderCancelled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	kafkax "github.com/ariefcatur/go-canteen-orders.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

type CartStore interface {
	ListByBuyer(ctx context.Context, buyerID string) ([]canteen.CartLine, error)
}

type OrderStore interface {
	// CreateForGroup harus atomik: cek+kurangi stok, insert order, hapus
	// cart line group itu, atau tidak sama sekali.
	CreateForGroup(ctx context.Context, g canteen.SellerGroup, pay canteen.PaymentMethod) (canteen.Order, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// RejectedGroup: satu seller group yg gagal karena stok. Cart line-nya
// tidak disentuh.
type RejectedGroup struct {
	SellerID  string
	StoreName string
	Stock     *canteen.InsufficientStockError
}

type Result struct {
	Orders   []canteen.Order
	Rejected []RejectedGroup
}

// Service = Order Factory. Satu-satunya tempat stok berkurang di jalur normal.
type Service struct {
	Carts            CartStore
	Orders           OrderStore
	ProducerCreated  Publisher // topic order.created
	ProducerRejected Publisher // topic order.stock.rejected
	ServiceName      string
}

// Checkout memecah cart buyer jadi satu order per seller. Atomisitas
// per-seller, bukan per-checkout: group yg stoknya cukup tetap jadi order
// walau group lain ditolak.
func (s *Service) Checkout(ctx context.Context, buyerID string, pay canteen.PaymentMethod, traceID string) (Result, error) {
	lines, err := s.Carts.ListByBuyer(ctx, buyerID)
	if err != nil {
		return Result{}, err
	}
	groups := canteen.GroupBySeller(lines)
	if len(groups) == 0 {
		return Result{}, canteen.ErrEmptyCart
	}
	if pay == "" {
		return Result{}, canteen.ErrNoPaymentMethod
	}
	if !pay.Valid() {
		return Result{}, canteen.ErrBadPayment
	}

	type outcome struct {
		order    canteen.Order
		rejected *RejectedGroup
	}
	outcomes := make([]outcome, len(groups))

	// tiap group independen, boleh paralel; hasil ditaruh per-index supaya
	// urutan respons tetap deterministik
	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			o, err := s.Orders.CreateForGroup(gctx, grp, pay)
			if err != nil {
				var ise *canteen.InsufficientStockError
				if errors.As(err, &ise) {
					outcomes[i] = outcome{rejected: &RejectedGroup{SellerID: grp.SellerID, StoreName: grp.StoreName, Stock: ise}}
					return nil
				}
				return err // infra error: gagalkan checkout
			}
			outcomes[i] = outcome{order: o}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, oc := range outcomes {
		if oc.rejected != nil {
			res.Rejected = append(res.Rejected, *oc.rejected)
			s.publishRejected(buyerID, oc.rejected, traceID)
			continue
		}
		res.Orders = append(res.Orders, oc.order)
		s.publishCreated(oc.order, traceID)
	}
	return res, nil
}

func (s *Service) publishCreated(o canteen.Order, trace string) {
	if s.ProducerCreated == nil {
		return
	}
	items := make([]canteen.EventLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, canteen.EventLine{MenuID: it.MenuID, MenuName: it.MenuName, UnitPrice: it.UnitPrice, Qty: it.Quantity})
	}
	ev := canteen.Envelope{
		EventID:       uuid.NewString(),
		EventType:     canteen.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(canteen.OrderCreatedPayload{
			OrderID: o.ID, BuyerID: o.BuyerID, SellerID: o.SellerID, StoreName: o.StoreName,
			Items: items, TotalAmount: o.TotalAmount, PaymentMethod: string(o.PaymentMethod),
		}),
	}
	s.ProducerCreated.Publish(canteen.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(canteen.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishRejected(buyerID string, rj *RejectedGroup, trace string) {
	if s.ProducerRejected == nil {
		return
	}
	ev := canteen.Envelope{
		EventID:      uuid.NewString(),
		EventType:    canteen.EventStockRejected,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.ServiceName,
		TraceID:      trace,
		Payload: kafkax.MustMarshal(canteen.StockRejectedPayload{
			BuyerID: buyerID, SellerID: rj.SellerID, Reason: "OUT_OF_STOCK",
			Details: []canteen.StockRejectedDetail{{
				MenuID: rj.Stock.MenuID, MenuName: rj.Stock.MenuName,
				Required: rj.Stock.Required, Available: rj.Stock.Available,
			}},
		}),
	}
	s.ProducerRejected.Publish(canteen.PartitionKey(rj.SellerID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(canteen.EventStockRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

package monitor

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	kafkax "github.com/ariefcatur/go-canteen-orders.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type OrderStore interface {
	ListActive(ctx context.Context) ([]canteen.Order, error)
}

// AlertGate menjamin alert delayed per order keluar maksimal satu kali.
// first=true hanya pada pemanggilan pertama utk order tsb.
type AlertGate interface {
	FirstDelayAlert(ctx context.Context, orderID string) (first bool, err error)
}

type Confirmer interface {
	AutoConfirm(ctx context.Context, o *canteen.Order, now time.Time, after time.Duration) (bool, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Stats struct {
	Scanned       int
	AutoConfirmed int
	Alerts        int
}

// Service = Wait-Time Monitor. Murni poller: baca order aktif, hitung
// klasifikasi, tanpa timer tertanam di domain.
type Service struct {
	Orders           OrderStore
	Gate             AlertGate
	Lifecycle        Confirmer
	ProducerDelayed  Publisher // topic order.delayed
	AutoConfirmAfter time.Duration
	ServiceName      string
}

// Tick dipanggil scheduler (ticker di cmd/monitor). Satu order bermasalah
// tidak menghentikan scan order lain.
func (s *Service) Tick(ctx context.Context, now time.Time) (Stats, error) {
	active, err := s.Orders.ListActive(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Scanned: len(active)}
	for i := range active {
		o := &active[i]

		if o.Status == canteen.StatusPending {
			ok, err := s.Lifecycle.AutoConfirm(ctx, o, now, s.AutoConfirmAfter)
			if err != nil {
				log.Printf("monitor: auto-confirm %s: %v", o.ID, err)
				continue
			}
			if ok {
				st.AutoConfirmed++
			}
			continue
		}

		info, ok := canteen.WaitStatus(o, now)
		if !ok || info.Class != canteen.WaitDelayed {
			continue
		}
		first, err := s.Gate.FirstDelayAlert(ctx, o.ID)
		if err != nil {
			log.Printf("monitor: alert gate %s: %v", o.ID, err)
			continue
		}
		if !first {
			continue
		}
		s.publishDelayed(o.ID, info)
		st.Alerts++
	}
	return st, nil
}

func (s *Service) publishDelayed(orderID string, info canteen.WaitInfo) {
	if s.ProducerDelayed == nil {
		return
	}
	ev := canteen.Envelope{
		EventID:       uuid.NewString(),
		EventType:     canteen.EventOrderDelayed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(canteen.OrderDelayedPayload{
			OrderID:          orderID,
			EstimatedMinutes: info.EstimatedMinutes,
			ElapsedMinutes:   info.ElapsedMinutes,
			Percentage:       info.Percentage,
		}),
	}
	s.ProducerDelayed.Publish(canteen.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(canteen.EventOrderDelayed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

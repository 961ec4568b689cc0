package httpx

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
)

func TestStatusCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{canteen.ErrEmptyCart, http.StatusBadRequest},
		{canteen.ErrNoPaymentMethod, http.StatusBadRequest},
		{canteen.ErrBadPayment, http.StatusBadRequest},
		{canteen.ErrNotOwner, http.StatusForbidden},
		{canteen.ErrNotFound, http.StatusNotFound},
		{canteen.ErrTerminalState, http.StatusConflict},
		{&canteen.InvalidStateError{OrderID: "o1", Status: canteen.StatusCompleted, Action: "cancel"}, http.StatusConflict},
		{&canteen.InsufficientStockError{MenuID: "m1", MenuName: "Nasi Goreng", Required: 3, Available: 1}, http.StatusConflict},
		{fmt.Errorf("wrap: %w", canteen.ErrNotOwner), http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusCodeFor(c.err); got != c.want {
			t.Errorf("statusCodeFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-canteen-orders.git/internal/canteen"
	"github.com/ariefcatur/go-canteen-orders.git/internal/checkout"
	"github.com/ariefcatur/go-canteen-orders.git/internal/lifecycle"
	"github.com/ariefcatur/go-canteen-orders.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	Checkout  *checkout.Service
	Lifecycle *lifecycle.Service
	Orders    *canteen.OrderRepo
	Menus     *canteen.MenuRepo
	Carts     *canteen.CartRepo
	Redis     *redis.Client
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/checkout", h.doCheckout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Get("/orders/{id}/wait-status", h.waitStatus)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/advance", h.advanceOrder)
	r.Post("/orders/{id}/complete", h.completeOrder)
	r.Get("/menus", h.listMenus)
	r.Get("/cart/{buyerID}", h.getCart)
	r.Put("/cart/{buyerID}/items", h.putCartLine)
	r.Delete("/cart/{buyerID}/items/{menuID}", h.removeCartLine)
}

// ---- DTO ----

type CheckoutReq struct {
	BuyerID       string `json:"buyer_id"`
	PaymentMethod string `json:"payment_method"`
	ExternalID    string `json:"external_id,omitempty"` // optional, utk idempotency
}

type OrderLineDTO struct {
	MenuID    string `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	UnitPrice int    `json:"unit_price"`
	Qty       int    `json:"qty"`
	Notes     string `json:"notes,omitempty"`
}

type OrderDTO struct {
	ID            string         `json:"id"`
	BuyerID       string         `json:"buyer_id"`
	SellerID      string         `json:"seller_id"`
	StoreName     string         `json:"store_name"`
	Items         []OrderLineDTO `json:"items"`
	TotalAmount   int            `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
}

type RejectedDTO struct {
	SellerID  string `json:"seller_id"`
	StoreName string `json:"store_name"`
	MenuID    string `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Error     string `json:"error"`
}

type CheckoutResp struct {
	Orders   []OrderDTO    `json:"orders"`
	Rejected []RejectedDTO `json:"rejected,omitempty"`
}

type TransitionReq struct {
	RequesterID string `json:"requester_id"`
}

type CartLineReq struct {
	MenuID string `json:"menu_id"`
	Qty    int    `json:"qty"`
	Notes  string `json:"notes,omitempty"`
}

func toOrderDTO(o *canteen.Order) OrderDTO {
	items := make([]OrderLineDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderLineDTO{
			MenuID: it.MenuID, MenuName: it.MenuName, UnitPrice: it.UnitPrice, Qty: it.Quantity, Notes: it.Notes,
		})
	}
	return OrderDTO{
		ID: o.ID, BuyerID: o.BuyerID, SellerID: o.SellerID, StoreName: o.StoreName,
		Items: items, TotalAmount: o.TotalAmount, PaymentMethod: string(o.PaymentMethod),
		Status: string(o.Status), CreatedAt: o.CreatedAt, CompletedAt: o.CompletedAt, CancelledAt: o.CancelledAt,
	}
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusCodeFor memetakan taksonomi error domain ke kode HTTP. Tiap error
// user-visible dapat pesan spesifik, bukan "failed" generik.
func statusCodeFor(err error) int {
	var ise *canteen.InvalidStateError
	var stk *canteen.InsufficientStockError
	switch {
	case errors.Is(err, canteen.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, canteen.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, canteen.ErrEmptyCart),
		errors.Is(err, canteen.ErrNoPaymentMethod),
		errors.Is(err, canteen.ErrBadPayment):
		return http.StatusBadRequest
	case errors.Is(err, canteen.ErrTerminalState),
		errors.As(err, &ise),
		errors.As(err, &stk):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	code := statusCodeFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) cacheStatus(ctx context.Context, orderID string, st canteen.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}

// ---- checkout ----

func (h *Handler) doCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.BuyerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing buyer_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency via Redis (best effort; DB tetap jadi kebenaran).
	idemKey := ""
	if req.ExternalID != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, req.BuyerID, req.ExternalID)
		if cached, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && cached != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(cached))
			return
		}
	}

	res, err := h.Checkout.Checkout(ctx, req.BuyerID, canteen.PaymentMethod(req.PaymentMethod), r.Header.Get("X-Request-Id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := CheckoutResp{}
	for i := range res.Orders {
		resp.Orders = append(resp.Orders, toOrderDTO(&res.Orders[i]))
		h.cacheStatus(ctx, res.Orders[i].ID, canteen.StatusPending)
	}
	for _, rj := range res.Rejected {
		resp.Rejected = append(resp.Rejected, RejectedDTO{
			SellerID: rj.SellerID, StoreName: rj.StoreName,
			MenuID: rj.Stock.MenuID, MenuName: rj.Stock.MenuName,
			Required: rj.Stock.Required, Available: rj.Stock.Available,
			Error: rj.Stock.Error(),
		})
	}

	if idemKey != "" {
		if b, err := json.Marshal(resp); err == nil {
			_ = h.Redis.Set(ctx, idemKey, b, redisx.TTLIdempotency).Err()
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ---- orders ----

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx, r.URL.Query().Get("buyer_id"), r.URL.Query().Get("seller_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, toOrderDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// getOrderStatus: cache dulu, fallback DB (pola teacher GET order).
func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

type WaitStatusResp struct {
	OrderID          string  `json:"order_id"`
	Status           string  `json:"status"`
	Monitored        bool    `json:"monitored"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	ElapsedMinutes   float64 `json:"elapsed_minutes,omitempty"`
	Percentage       float64 `json:"percentage,omitempty"`
	Class            string  `json:"class,omitempty"`
}

func (h *Handler) waitStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := WaitStatusResp{
		OrderID:          o.ID,
		Status:           string(o.Status),
		EstimatedMinutes: canteen.EstimatedMinutes(o),
	}
	if info, ok := canteen.WaitStatus(o, time.Now()); ok {
		resp.Monitored = true
		resp.ElapsedMinutes = info.ElapsedMinutes
		resp.Percentage = info.Percentage
		resp.Class = string(info.Class)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, orderID, requesterID, trace string) (*canteen.Order, error)) {

	var req TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.RequesterID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing requester_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := fn(ctx, chi.URLParam(r, "id"), req.RequesterID, r.Header.Get("X-Request-Id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Cancel)
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Advance)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Complete)
}

// ---- menus & cart ----

func (h *Handler) listMenus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ms, err := h.Menus.List(ctx, r.URL.Query().Get("seller_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Carts.ListByBuyer(ctx, chi.URLParam(r, "buyerID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	groups := canteen.GroupBySeller(lines)
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines, "groups": groups})
}

func (h *Handler) putCartLine(w http.ResponseWriter, r *http.Request) {
	var req CartLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.MenuID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing menu_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Upsert(ctx, chi.URLParam(r, "buyerID"), req.MenuID, req.Qty, req.Notes); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Remove(ctx, chi.URLParam(r, "buyerID"), chi.URLParam(r, "menuID")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

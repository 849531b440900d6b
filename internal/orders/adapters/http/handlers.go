package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/foodorder/internal/orders/adapters/paystack"
	"github.com/dejobratic/foodorder/internal/orders/app"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxWebhookBody    = 1 << 20
	qrCodeSize        = 256
)

// Options tune the order handlers.
type Options struct {
	// PublicBaseURL is the storefront origin encoded into tracking QR codes.
	PublicBaseURL  string
	PreviewLimiter *UserLimiter
	Logger         *slog.Logger
}

// Handler exposes HTTP endpoints for carts, checkout, orders and payments.
type Handler struct {
	service        *app.Service
	publicBaseURL  string
	previewLimiter *UserLimiter
	logger         *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := opts.PreviewLimiter
	if limiter == nil {
		limiter = NewUserLimiter(5, 10)
	}
	return &Handler{
		service:        service,
		publicBaseURL:  strings.TrimRight(opts.PublicBaseURL, "/"),
		previewLimiter: limiter,
		logger:         logger,
	}
}

// Register binds the handlers to the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/payments/paystack", func(r chi.Router) {
		r.Get("/callback", h.paymentCallback)
		r.Post("/webhook", h.paymentWebhook)
	})
	r.Get("/v1/menu/popular", h.popularItems)

	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", h.viewCart)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{itemID}", h.setCartQuantity)
			r.Delete("/items/{itemID}", h.removeCartItem)
		})
		r.With(h.previewLimiter.Middleware).Post("/v1/coupons/preview", h.previewCoupon)
		r.Post("/v1/checkout", h.checkout)

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Get("/stats", h.customerStats)
			r.Get("/track/{number}", h.trackOrder)
			r.Get("/track/{number}/qr.png", h.trackingQRCode)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/cash", h.confirmCash)
			r.Post("/{orderID}/pay", h.initiatePayment)
			r.Post("/{orderID}/cancel", h.cancelOrder)
		})

		r.Route("/admin/v1/orders", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/stats", h.orderStatusCounts)
			r.Patch("/{orderID}/status", h.updateOrderStatus)
			r.Delete("/{orderID}", h.deleteOrder)
		})
	})
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view, err := h.service.ViewCart(r.Context(), actorFrom(r), app.CartPricingInput{
		DeliveryZoneID: query.Get("delivery_zone_id"),
		Address:        query.Get("delivery_address"),
		CouponCode:     query.Get("code"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var payload app.CartItemInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	cart, err := h.service.AddCartItem(r.Context(), actorFrom(r), payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cart.Lines()})
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	cart, err := h.service.SetCartQuantity(r.Context(), actorFrom(r), chi.URLParam(r, "itemID"), payload.Quantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cart.Lines()})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveCartItem(r.Context(), actorFrom(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cart.Lines()})
}

func (h *Handler) previewCoupon(w http.ResponseWriter, r *http.Request) {
	var payload app.CartPricingInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	preview, err := h.service.PreviewCoupon(r.Context(), actorFrom(r), payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// checkout places an order once per Idempotency-Key. Keys are scoped to the
// caller so two customers cannot collide.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(r)

	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, idempotencyHeader+" header required")
		return
	}
	scopedKey := actor.UserID + ":" + idemKey

	if stored, err := h.service.GetIdempotentResponse(ctx, scopedKey); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload app.CheckoutInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	order, err := h.service.Checkout(ctx, actor, payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	stored := ports.StoredResponse{
		StatusCode: http.StatusCreated,
		Body:       body,
		OrderID:    order.ID,
	}
	if err := h.service.SaveIdempotentResponse(ctx, scopedKey, stored); err != nil {
		h.logger.ErrorContext(ctx, "failed to store idempotent response",
			"error", err,
			"order_id", order.ID,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := app.ListOrdersInput{Status: query.Get("status")}

	if pageParam := query.Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			input.Page = page
		}
	}

	if pageSizeParam := query.Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			input.PageSize = pageSize
		}
	}

	page, err := h.service.ListOrders(r.Context(), actorFrom(r), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.service.TrackOrder(r.Context(), actorFrom(r), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tracking)
}

func (h *Handler) trackingQRCode(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.service.TrackOrder(r.Context(), actorFrom(r), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	png, err := qrcode.Encode(h.trackingURL(tracking.Order.Number), qrcode.Medium, qrCodeSize)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) trackingURL(number string) string {
	return h.publicBaseURL + "/track/" + number
}

func (h *Handler) customerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CustomerStats(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) popularItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.PopularItems(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) orderStatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.OrderStatusCounts(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) confirmCash(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ConfirmCash(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	initiation, err := h.service.InitiatePayment(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, initiation)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload app.UpdateStatusInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"), payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}

	outcome, err := h.service.ConfirmPaymentRedirect(r.Context(), reference)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":   outcome.Order,
		"applied": outcome.Applied,
	})
}

// paymentWebhook acknowledges every authenticated delivery so the gateway
// stops retrying. Only storage failures ask for a retry.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	outcome, err := h.service.HandlePaymentWebhook(r.Context(), body, r.Header.Get(paystack.SignatureHeader))
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	case errors.Is(err, domain.ErrValidation):
		h.logger.WarnContext(r.Context(), "ignoring malformed webhook", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	case err != nil:
		writeServiceError(w, r, h.logger, err)
		return
	}

	status := "ignored"
	if outcome.Order != nil {
		status = "processed"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "applied": outcome.Applied})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/core/service"
)

// identityHeader carries the verified caller identity, set by the upstream
// auth gateway after token verification. Token checking itself is not this
// service's concern.
const identityHeader = "X-User-ID"

type HTTPHandler struct {
	cartService *service.CartService
	logger      *slog.Logger
}

func NewHTTPHandler(cartService *service.CartService, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		cartService: cartService,
		logger:      logger,
	}
}

func (h *HTTPHandler) Register(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/api/cart/{ownerID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.AddItem)
		r.Delete("/", h.ClearCart)
		r.Put("/{itemID}", h.UpdateItem)
		r.Delete("/{itemID}", h.RemoveItem)
	})
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type lineItemResponse struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	ProductName   string          `json:"product_name"`
	ProductImage  string          `json:"product_image"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type cartResponse struct {
	OwnerID string             `json:"owner_id"`
	Items   []lineItemResponse `json:"items"`
	Total   decimal.Decimal    `json:"total"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.Fetch(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Cart retrieved successfully",
		Data:    toCartResponse(cart),
	})
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Message: "invalid request body",
			Data:    struct{}{},
		})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.cartService.Add(r.Context(), ownerID, req.ProductID, quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "Item added to cart",
		Data:    toItemResponse(item),
	})
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Message: "invalid request body",
			Data:    struct{}{},
		})
		return
	}

	item, err := h.cartService.UpdateQuantity(r.Context(), ownerID, chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if item == nil {
		writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "Item removed",
			Data:    struct{}{},
		})
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Item updated",
		Data:    toItemResponse(*item),
	})
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	if err := h.cartService.Remove(r.Context(), ownerID, chi.URLParam(r, "itemID")); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Item deleted from cart",
		Data:    struct{}{},
	})
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), ownerID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Cart cleared successfully",
		Data:    struct{}{},
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorized extracts the acting identity and checks it against the cart
// owner in the path. A missing identity is 401; a mismatched one is 403.
func (h *HTTPHandler) authorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	actingID := r.Header.Get(identityHeader)
	if actingID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Success: false,
			Message: "missing identity",
			Data:    struct{}{},
		})
		return "", false
	}

	ownerID := chi.URLParam(r, "ownerID")
	if err := service.Authorize(actingID, ownerID); err != nil {
		writeJSON(w, http.StatusForbidden, response{
			Success: false,
			Message: "Unauthorized",
			Data:    struct{}{},
		})
		return "", false
	}

	return ownerID, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidProduct):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
		message = "Product not found"
	case errors.Is(err, service.ErrItemNotFound):
		status = http.StatusNotFound
		message = "Item not found"
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
		message = "Unauthorized"
	default:
		h.logger.Error("cart operation failed", "error", err)
	}

	writeJSON(w, status, response{
		Success: false,
		Message: message,
		Data:    struct{}{},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func toItemResponse(item domain.EnrichedItem) lineItemResponse {
	return lineItemResponse{
		ID:            item.ID,
		OwnerID:       item.OwnerID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		PriceSnapshot: item.PriceSnapshot,
		ProductName:   item.ProductName,
		ProductImage:  item.ProductImage,
		UnitPrice:     item.UnitPrice,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := make([]lineItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, toItemResponse(item))
	}
	return cartResponse{
		OwnerID: cart.OwnerID,
		Items:   items,
		Total:   cart.Total,
	}
}

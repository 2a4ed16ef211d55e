package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/services"
)

// AdminHandler, operasyon endpoint'lerini yöneten struct.
// Route seviyesinde BearerMiddleware (ADMIN_TOKEN) arkasındadır.
type AdminHandler struct {
	orderService services.OrderService
}

// NewAdminHandler, constructor.
func NewAdminHandler(orderService services.OrderService) *AdminHandler {
	return &AdminHandler{orderService: orderService}
}

// ResendOrder godoc
// POST /admin
// Sipariş onay mailini manuel tetikler — webhook kaçtığında veya müşteri
// maili kaybettiğinde kullanılır. Download token'ları yeniden üretilir.
func (h *AdminHandler) ResendOrder(w http.ResponseWriter, r *http.Request) {
	var req models.ResendOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orderService.ResendConfirmation(r.Context(), requestOrigin(r), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"sent": true})
}

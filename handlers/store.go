package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/services"
)

// StoreHandler, üyelere ücretsiz ürün akışını yöneten struct.
type StoreHandler struct {
	orderService     services.OrderService
	confirmationPage string
}

// NewStoreHandler, constructor.
// confirmationPage: başarılı siparişte kullanıcının yönlendirileceği sayfa.
func NewStoreHandler(orderService services.OrderService, confirmationPage string) *StoreHandler {
	return &StoreHandler{
		orderService:     orderService,
		confirmationPage: confirmationPage,
	}
}

// Order godoc
// POST /store
// Üye, membership'i dahilindeki ücretsiz bir ürünü sipariş eder.
// Form content platform'daki sayfadan POST edilir — başarı yanıtı JSON değil,
// onay sayfasına redirect'tir.
func (h *StoreHandler) Order(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStoreRequest(r)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orderService.MemberOrder(r.Context(), requestOrigin(r), req); err != nil {
		pkg.Error(w, err)
		return
	}

	http.Redirect(w, r, h.confirmationPage, http.StatusFound)
}

// decodeStoreRequest, hem JSON hem form-encoded body kabul eder —
// istek tarayıcı formundan da API client'tan da gelebilir.
func decodeStoreRequest(r *http.Request) (*models.StoreRequest, error) {
	var req models.StoreRequest

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.Path = r.PostFormValue("path")
		req.Email = r.PostFormValue("email")
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

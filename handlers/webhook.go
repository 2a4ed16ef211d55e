package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/services"
	"github.com/akinalp/kurye/stripe"
)

// maxWebhookBody, webhook body'si için üst sınır.
// Checkout event'leri birkaç KB'dir — 1 MB fazlasıyla yeter.
const maxWebhookBody = 1 << 20

// WebhookHandler, payment provider webhook endpoint'ini yöneten struct.
type WebhookHandler struct {
	orderService  services.OrderService
	signingSecret string
}

// NewWebhookHandler, constructor.
func NewWebhookHandler(orderService services.OrderService, signingSecret string) *WebhookHandler {
	return &WebhookHandler{
		orderService:  orderService,
		signingSecret: signingSecret,
	}
}

// HandleEvent godoc
// POST /
// Payment provider'dan gelen checkout.session.completed event'ini karşılar.
//
// İmza, raw body üzerinden doğrulanır — body'ye decode ÖNCESİ dokunulmamalı.
// En az bir sipariş maili gönderildiyse 201, hiç gönderilmediyse 200 döner
// (örn. sepette sadece membership aboneliği varsa).
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "could not read request body")
		return
	}

	if err := stripe.VerifySignature(h.signingSecret, r.Header.Get("Stripe-Signature"), payload); err != nil {
		log.Printf("[webhook] signature verification failed: %v", err)
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, err.Error())
		return
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "could not parse webhook event")
		return
	}
	if event.Type != "checkout.session.completed" {
		log.Printf("[webhook] unexpected event type %q", event.Type)
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid webhook type")
		return
	}

	sent, err := h.orderService.FulfillCheckout(r.Context(), requestOrigin(r), event.Data.Object.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if sent {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/services"
)

// PollHandler, anket endpoint'lerini yöneten struct.
// Submit herkese açıktır; Results ve Broadcast BearerMiddleware (ADMIN_TOKEN)
// arkasındadır.
type PollHandler struct {
	pollService      services.PollService
	confirmationPage string
}

// NewPollHandler, constructor.
func NewPollHandler(pollService services.PollService, confirmationPage string) *PollHandler {
	return &PollHandler{
		pollService:      pollService,
		confirmationPage: confirmationPage,
	}
}

// Submit godoc
// POST /polls
// Anket yanıtı kaydeder. Form content platform'daki sayfadan POST edilir —
// başarıda onay sayfasına redirect.
func (h *PollHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sub, err := decodePollSubmission(r)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.pollService.Submit(r.Context(), sub); err != nil {
		pkg.Error(w, err)
		return
	}

	http.Redirect(w, r, h.confirmationPage, http.StatusFound)
}

// Results godoc
// GET /polls/{name}
// Anketin tüm yanıtlarını döner.
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "missing name")
		return
	}

	results, err := h.pollService.Results(r.Context(), name)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, results)
}

// Broadcast godoc
// POST /polls/{name}/sendmail
// Anket yanıtlarındaki email adreslerine toplu mail gönderir.
// preview=true ile mail önce sadece FROM adresine gider.
func (h *PollHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "missing name")
		return
	}

	var req models.PollBroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.pollService.Broadcast(r.Context(), name, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

// decodePollSubmission, hem JSON hem form-encoded body kabul eder.
func decodePollSubmission(r *http.Request) (*models.PollSubmission, error) {
	var sub models.PollSubmission

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			return nil, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		sub.Name = r.PostFormValue("name")
		sub.Response = r.PostFormValue("response")
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}

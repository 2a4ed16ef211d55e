package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// errorResponse, hata yanıtlarının wire formatı.
// Webhook çağıran servisler ve login sayfası hep aynı şekli bekler: {"error": "..."}
type errorResponse struct {
	Error string `json:"error"`
}

// JSON, başarılı bir yanıtı olduğu gibi serialize eder.
// Envelope yok — her endpoint kendi response şeklini döner
// (ör: {"message": ...}, {"authorized": true}).
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Error, domain error'ı uygun HTTP status code'a çevirip {"error": msg} döner.
func Error(w http.ResponseWriter, err error) {
	ErrorWithMessage(w, mapErrorToStatus(err), err.Error())
}

// ErrorWithMessage, özel mesajlı hata yanıtı gönderir.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// mapErrorToStatus, domain error'ları HTTP status code'larına eşler.
// errors.Is() ile error chain kontrol edilir — wrap edilmiş error'lar da match eder.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

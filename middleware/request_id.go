package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey, context'te request id'nin saklandığı özel tip.
// string yerine özel tip: başka paketlerin key'leriyle çakışmaz.
type requestIDKey struct{}

// RequestID, her request'e benzersiz bir id atar.
//
// Reverse proxy zaten bir X-Request-Id gönderiyorsa o korunur — log'lar
// proxy log'larıyla eşleştirilebilir kalır. Yoksa yeni UUID üretilir.
// Id hem context'e hem response header'ına yazılır.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID, context'teki request id'yi döner. Middleware çalışmadıysa boş string.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

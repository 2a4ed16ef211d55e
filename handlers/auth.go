package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/ratelimit"
	"github.com/akinalp/kurye/services"
)

// AuthHandler, magic link ve yetki kontrolü endpoint'lerini yöneten struct.
type AuthHandler struct {
	authService services.AuthService
	limiter     *ratelimit.Limiter
	fallback    http.Handler // query parametresiz GET /login → statik login sayfası
}

// NewAuthHandler, constructor.
func NewAuthHandler(authService services.AuthService, limiter *ratelimit.Limiter, fallback http.Handler) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		limiter:     limiter,
		fallback:    fallback,
	}
}

// RequestLogin godoc
// POST /login
// Kayıtlı kullanıcıya magic link maili gönderir.
//
// Rate limit IP bazlıdır: endpoint hem email enumeration hem de mail bombing
// için cazip bir hedef. Limit aşımında 429 + Retry-After döner.
func (h *AuthHandler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if !h.limiter.Allow(ip) {
		w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds(ip)))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	linkBase := requestOrigin(r) + "/login"
	if err := h.authService.RequestLogin(r.Context(), &req, linkBase); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "Check your emails"})
}

// ConfirmLogin godoc
// GET /login?emailhmac=..&token=..&redirect=..
// Magic link redemption. Üç parametre de yoksa istek statik login
// sayfasına düşer — aynı path hem sayfayı hem redemption'ı taşır.
//
// Token tutmazsa kullanıcı login sayfasına error parametresi ile geri
// yollanır (eski linke tıklamış olabilir, yeni link isteyebilmeli).
// Başarıda session cookie'leri yazılır ve redirect'e gidilir.
func (h *AuthHandler) ConfirmLogin(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	emailHmac := query.Get("emailhmac")
	loginToken := query.Get("token")
	redirect := query.Get("redirect")

	if emailHmac == "" || loginToken == "" || redirect == "" {
		h.fallback.ServeHTTP(w, r)
		return
	}

	session, err := h.authService.ConfirmLogin(r.Context(), emailHmac, loginToken, ratelimit.ExtractIP(r))
	if err != nil {
		if errors.Is(err, services.ErrWrongLoginToken) {
			log.Printf("[auth] invalid login token presented")
			target := fmt.Sprintf("%s/login?error=invalid-token&redirect=%s", requestOrigin(r), url.QueryEscape(redirect))
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		pkg.Error(w, err)
		return
	}

	domain := cookieDomain(r.Host)
	http.SetCookie(w, &http.Cookie{Name: "session-salt", Value: session.Salt, Domain: domain, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "session-token", Value: session.Token, Domain: domain, Path: "/"})

	http.Redirect(w, r, redirect, http.StatusFound)
}

// Authorize godoc
// POST /authorize
// Server-to-server yetki kontrolü — content platform'un önündeki proxy,
// korumalı path'lere erişimi buraya sorar. BearerMiddleware (AUTH_TOKEN)
// arkasındadır.
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req models.AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.Authorize(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]bool{"authorized": true})
}

// Status godoc
// GET /status
// Sağlık kontrolü — load balancer ve uptime monitör için.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// cookieDomain, session cookie'lerinin yazılacağı domain'i hesaplar.
//
// Subdomain'ler arası paylaşım için apex domain kullanılır: auth servisi
// auth.example.com'da, korunan içerik www.example.com'da olabilir —
// cookie ".example.com"a yazılır. localhost özel durumdur.
func cookieDomain(host string) string {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	if hostname == "localhost" {
		return "localhost"
	}

	labels := strings.Split(hostname, ".")
	if len(labels) <= 2 {
		return "." + hostname
	}
	return "." + strings.Join(labels[len(labels)-2:], ".")
}

package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/ghost"
	"github.com/akinalp/kurye/middleware"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/crypto"
	"github.com/akinalp/kurye/pkg/email"
	"github.com/akinalp/kurye/pkg/ratelimit"
	"github.com/akinalp/kurye/repository"
	"github.com/akinalp/kurye/services"
	"github.com/akinalp/kurye/stripe"
)

const (
	testHMACSecret    = "test-hmac-secret"
	testAdminToken    = "admin-secret"
	testAuthToken     = "auth-secret"
	testWebhookSecret = "whsec_test"
)

// fakeSender, gönderilen mailleri bellekte biriktirir.
type fakeSender struct {
	mu    sync.Mutex
	mails []string
}

func (f *fakeSender) Send(_ context.Context, to, subject, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mails = append(f.mails, text)
	return nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.mails) == 0 {
		return ""
	}
	return f.mails[len(f.mails)-1]
}

var _ email.Sender = (*fakeSender)(nil)

// fakePayments, sabit checkout session'lar dönen SessionFetcher.
type fakePayments struct {
	sessions map[string]*stripe.CheckoutSession
}

func (f *fakePayments) CheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %s", id)
	}
	return session, nil
}

// fakeMembers, tek üyeli MemberFinder.
type fakeMembers struct{}

func (fakeMembers) FindMemberByEmail(_ context.Context, emailAddr string) (*ghost.Member, error) {
	if emailAddr == "member@example.com" {
		return &ghost.Member{ID: "m1", Name: "Grace Hopper", Email: emailAddr}, nil
	}
	return nil, fmt.Errorf("%w: member lookup", pkg.ErrNotFound)
}

type fixture struct {
	mux      *http.ServeMux
	db       *database.DB
	users    repository.UserRepository
	sessions repository.SessionRepository
	auths    repository.AuthorizationRepository
	sender   *fakeSender
	payments *fakePayments
	limiter  *ratelimit.Limiter
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.EmbeddedMigrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	downloadsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(downloadsDir, "example-v2.epub"), []byte("epub-bytes"), 0644))

	storePath := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(storePath, []byte(`{
		"books/example": {
			"id": "prod_book",
			"name": "Example Book",
			"files": {"example.epub": "example-v2.epub"},
			"members": true
		}
	}`), 0644))
	store, err := catalog.LoadStore(storePath)
	require.NoError(t, err)

	pollsPath := filepath.Join(t.TempDir(), "polls.json")
	require.NoError(t, os.WriteFile(pollsPath, []byte(`{
		"newsletter": {"type": "email", "unique": true}
	}`), 0644))
	polls, err := catalog.LoadPolls(pollsPath)
	require.NoError(t, err)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			HMACSecret:         testHMACSecret,
			SessionConcurrency: 3,
			AdminToken:         testAdminToken,
			AuthToken:          testAuthToken,
		},
		Download: config.DownloadConfig{Dir: downloadsDir, ExpiryHours: 24},
		Mail: config.MailConfig{
			Provider:  "smtp",
			FromName:  "Ada Lovelace",
			FromEmail: "ada@example.com",
		},
		Stripe: config.StripeConfig{
			WebhookSigningSecret: testWebhookSecret,
			GhostJoinProductID:   "prod_join",
		},
		Ghost: config.GhostConfig{
			StoreConfirmationPage: "https://site.example.com/thanks",
			PollsConfirmationPage: "https://site.example.com/poll-thanks",
		},
	}

	f := &fixture{
		db:       db,
		users:    repository.NewSQLiteUserRepo(db.Conn),
		sessions: repository.NewSQLiteSessionRepo(db.Conn),
		auths:    repository.NewSQLiteAuthorizationRepo(db.Conn),
		sender:   &fakeSender{},
		payments: &fakePayments{sessions: map[string]*stripe.CheckoutSession{}},
		cfg:      cfg,
	}
	downloadRepo := repository.NewSQLiteDownloadRepo(db.Conn)
	pollRepo := repository.NewSQLitePollRepo(db.Conn)

	authService := services.NewAuthService(db.Conn, f.users, f.sessions, f.auths, f.sender, cfg)
	orderService := services.NewOrderService(db.Conn, f.users, f.auths, downloadRepo, store, f.payments, fakeMembers{}, f.sender, cfg)
	downloadService := services.NewDownloadService(downloadRepo, store, cfg)
	pollService := services.NewPollService(pollRepo, polls, f.sender, cfg)

	f.limiter = ratelimit.New(100, time.Minute)
	t.Cleanup(f.limiter.Close)

	staticHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "login page")
	})

	webhookHandler := NewWebhookHandler(orderService, cfg.Stripe.WebhookSigningSecret)
	adminHandler := NewAdminHandler(orderService)
	storeHandler := NewStoreHandler(orderService, cfg.Ghost.StoreConfirmationPage)
	authHandler := NewAuthHandler(authService, f.limiter, staticHandler)
	downloadHandler := NewDownloadHandler(downloadService)
	pollHandler := NewPollHandler(pollService, cfg.Ghost.PollsConfirmationPage)

	adminMw := middleware.NewBearerMiddleware(cfg.Auth.AdminToken)
	authMw := middleware.NewBearerMiddleware(cfg.Auth.AuthToken)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", webhookHandler.HandleEvent)
	mux.Handle("POST /admin", adminMw.Require(http.HandlerFunc(adminHandler.ResendOrder)))
	mux.HandleFunc("POST /store", storeHandler.Order)
	mux.HandleFunc("GET /downloads/{filename}", downloadHandler.Serve)
	mux.HandleFunc("POST /login", authHandler.RequestLogin)
	mux.HandleFunc("GET /login", authHandler.ConfirmLogin)
	mux.Handle("POST /authorize", authMw.Require(http.HandlerFunc(authHandler.Authorize)))
	mux.HandleFunc("POST /polls", pollHandler.Submit)
	mux.Handle("GET /polls/{name}", adminMw.Require(http.HandlerFunc(pollHandler.Results)))
	mux.Handle("POST /polls/{name}/sendmail", adminMw.Require(http.HandlerFunc(pollHandler.Broadcast)))
	mux.HandleFunc("GET /status", authHandler.Status)

	f.mux = mux
	return f
}

func (f *fixture) seedUser(t *testing.T, emailAddr string) *models.User {
	t.Helper()

	user, err := f.users.Upsert(context.Background(), crypto.EmailHash([]byte(testHMACSecret), emailAddr), "seed")
	require.NoError(t, err)
	return user
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

var magicLinkRegexp = regexp.MustCompile(`https?://\S+/login\?emailhmac=\S+`)

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "reader@example.com")

	// 1. Magic link iste
	w := f.do(jsonRequest("POST", "http://app.example.com/login",
		`{"email": "reader@example.com", "redirect": "https://site.example.com/books"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Check your emails")

	link := magicLinkRegexp.FindString(f.sender.last())
	require.NotEmpty(t, link, "mail should contain magic link")

	// 2. Linke tıkla — session cookie'leri + redirect
	w = f.do(httptest.NewRequest("GET", link, nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://site.example.com/books", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	var salt, token string
	for _, c := range cookies {
		switch c.Name {
		case "session-salt":
			salt = c.Value
		case "session-token":
			token = c.Value
		}
	}
	require.NotEmpty(t, salt)
	require.NotEmpty(t, token)

	// 3. Aynı link ikinci kez — login sayfasına hata parametresi ile geri
	w = f.do(httptest.NewRequest("GET", link, nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=invalid-token")
	assert.Contains(t, w.Header().Get("Location"), "redirect=")
}

func TestRequestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(jsonRequest("POST", "/login",
		`{"email": "nobody@example.com", "redirect": "https://site.example.com"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decodeError(t, w), "wrong credentials")
}

func TestRequestLogin_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(jsonRequest("POST", "/login", `{"redirect": "https://x"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing email", decodeError(t, w))

	w = f.do(jsonRequest("POST", "/login", `{"email": "a@b.co"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing redirect", decodeError(t, w))
}

func TestRequestLogin_RateLimited(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "reader@example.com")

	// Fixture limiti genel testler için yüksek — bu test kendi dar limiter'ı
	// ile handler'ı izole kurar.
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Close()
	authService := services.NewAuthService(f.db.Conn, f.users, f.sessions, f.auths, f.sender, f.cfg)
	handler := NewAuthHandler(authService, limiter, http.NotFoundHandler())

	body := `{"email": "reader@example.com", "redirect": "https://x"}`
	w := httptest.NewRecorder()
	handler.RequestLogin(w, jsonRequest("POST", "/login", body))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.RequestLogin(w, jsonRequest("POST", "/login", body))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestConfirmLogin_FallsThroughToStatic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(httptest.NewRequest("GET", "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "login page", w.Body.String())
}

func TestAuthorizeEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t, "reader@example.com")
	ctx := context.Background()

	session := &models.Session{UserID: user.ID, Token: "sess-token", Hmac: "c"}
	require.NoError(t, f.sessions.Create(ctx, session))
	require.NoError(t, f.auths.Create(ctx, &models.Authorization{
		UserID: user.ID, Path: "books/example", ExpiresOn: time.Now().Add(time.Hour),
	}))

	body := `{"sessionSalt": "s", "sessionToken": "sess-token", "path": "books/example"}`

	// Bearer yok → 401
	w := f.do(jsonRequest("POST", "/authorize", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Doğru bearer → authorized
	req := jsonRequest("POST", "/authorize", body)
	req.Header.Set("Authorization", "Bearer "+testAuthToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authorized":true`)

	// Bilinmeyen session → 404
	req = jsonRequest("POST", "/authorize", `{"sessionSalt": "s", "sessionToken": "nope", "path": "books/example"}`)
	req.Header.Set("Authorization", "Bearer "+testAuthToken)
	w = f.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Grant yok → 401
	req = jsonRequest("POST", "/authorize", `{"sessionSalt": "s", "sessionToken": "sess-token", "path": "books/other"}`)
	req.Header.Set("Authorization", "Bearer "+testAuthToken)
	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func signWebhook(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte("1700000000."))
	mac.Write(payload)
	return fmt.Sprintf("t=1700000000,v1=%s", hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	session := &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: "paid",
		Customer:      stripe.Customer{Name: "Grace Hopper", Email: "grace@example.com"},
	}
	var item stripe.LineItem
	item.Price.Product = "prod_book"
	session.LineItems.Data = []stripe.LineItem{item}
	f.payments.sessions["cs_1"] = session

	payload := []byte(`{"type": "checkout.session.completed", "data": {"object": {"id": "cs_1"}}}`)

	// İmzasız → 401
	w := f.do(httptest.NewRequest("POST", "/", strings.NewReader(string(payload))))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Yanlış imza → 401
	req := httptest.NewRequest("POST", "/", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", "t=1700000000,v1=deadbeef")
	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Geçerli imza → 201 + sipariş maili
	req = httptest.NewRequest("POST", "/", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signWebhook(payload))
	w = f.do(req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, f.sender.last(), "/downloads/example.epub?token=")
}

func TestWebhook_WrongEventType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	payload := []byte(`{"type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)

	req := httptest.NewRequest("POST", "/", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signWebhook(payload))
	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_MembershipOnlyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	session := &stripe.CheckoutSession{ID: "cs_1", PaymentStatus: "paid"}
	var item stripe.LineItem
	item.Price.Product = "prod_join"
	session.LineItems.Data = []stripe.LineItem{item}
	f.payments.sessions["cs_1"] = session

	payload := []byte(`{"type": "checkout.session.completed", "data": {"object": {"id": "cs_1"}}}`)
	req := httptest.NewRequest("POST", "/", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signWebhook(payload))
	w := f.do(req)

	// Mail gönderilmedi ama event başarıyla işlendi.
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminResend(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := `{"name": "Grace Hopper", "email": "grace@example.com", "path": "books/example"}`

	// Bearer yok → 401
	w := f.do(jsonRequest("POST", "/admin", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := jsonRequest("POST", "/admin", body)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sent":true`)
	assert.Contains(t, f.sender.last(), "/downloads/example.epub?token=")
}

func TestStoreOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	form := url.Values{"path": {"books/example"}, "email": {"member@example.com"}}
	req := httptest.NewRequest("POST", "/store", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://site.example.com/thanks", w.Header().Get("Location"))
	assert.Contains(t, f.sender.last(), "Hi Grace")

	// Üye olmayan → 401
	form = url.Values{"path": {"books/example"}, "email": {"stranger@example.com"}}
	req = httptest.NewRequest("POST", "/store", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDownloadEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Mail akışından gerçek bir token üret.
	req := jsonRequest("POST", "/admin", `{"name": "Grace Hopper", "email": "grace@example.com", "path": "books/example"}`)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	linkRe := regexp.MustCompile(`/downloads/example\.epub\?token=([0-9a-f]+)`)
	match := linkRe.FindStringSubmatch(f.sender.last())
	require.NotNil(t, match)

	// Token'sız → 401
	w := f.do(httptest.NewRequest("GET", "/downloads/example.epub", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Geçerli token → dosya içeriği + attachment header
	w = f.do(httptest.NewRequest("GET", match[0], nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="example.epub"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "epub-bytes", w.Body.String())

	// Bilinmeyen token → 401
	w = f.do(httptest.NewRequest("GET", "/downloads/example.epub?token=ffffffffffffffffffffffff", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPollEndpoints(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Form ile yanıt gönder → onay sayfasına redirect
	form := url.Values{"name": {"newsletter"}, "response": {"a@example.com"}}
	req := httptest.NewRequest("POST", "/polls", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://site.example.com/poll-thanks", w.Header().Get("Location"))

	// Sonuçlar bearer ister
	w = f.do(httptest.NewRequest("GET", "/polls/newsletter", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/polls/newsletter", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"responses":1`)
	assert.Contains(t, w.Body.String(), "a@example.com")

	// Broadcast preview
	req = jsonRequest("POST", "/polls/newsletter/sendmail", `{"subject": "Hi", "body": "News", "preview": true}`)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"preview":true`)
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(httptest.NewRequest("GET", "/status", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCookieDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost", cookieDomain("localhost:3080"))
	assert.Equal(t, "localhost", cookieDomain("localhost"))
	assert.Equal(t, ".example.com", cookieDomain("example.com"))
	assert.Equal(t, ".example.com", cookieDomain("auth.example.com"))
	assert.Equal(t, ".example.com", cookieDomain("deep.auth.example.com:443"))
}

package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/ghost"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/crypto"
	"github.com/akinalp/kurye/repository"
	"github.com/akinalp/kurye/stripe"
)

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

// fakeMembers, email → üye tablosu üzerinden MemberFinder.
type fakeMembers struct {
	members map[string]*ghost.Member
	calls   int
}

func (f *fakeMembers) FindMemberByEmail(_ context.Context, emailAddr string) (*ghost.Member, error) {
	f.calls++
	member, ok := f.members[emailAddr]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return member, nil
}

const testStoreCatalog = `{
	"books/example": {
		"id": "prod_book",
		"name": "Example Book",
		"files": {"example.epub": "example-v2.epub", "example.pdf": "example.pdf"},
		"links": ["https://example.com/extras"]
	},
	"courses/video": {
		"id": "prod_video",
		"name": "Video Course",
		"members": true,
		"cdn": {
			"redirect": "/courses/video",
			"expiry": {"amount": 3, "unit": "months"}
		}
	},
	"books/paid-only": {
		"id": "prod_paid",
		"name": "Paid Only",
		"files": {"paid.epub": "paid.epub"}
	},
	"books/broken": {
		"id": "prod_broken",
		"name": "Broken Product"
	}
}`

type orderFixture struct {
	db       *database.DB
	users    repository.UserRepository
	auths    repository.AuthorizationRepository
	download repository.DownloadRepository
	sender   *fakeSender
	payments *fakePayments
	members  *fakeMembers
	service  OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.EmbeddedMigrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storePath := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(storePath, []byte(testStoreCatalog), 0644))
	store, err := catalog.LoadStore(storePath)
	require.NoError(t, err)

	cfg := testConfig(3)
	cfg.Stripe.GhostJoinProductID = "prod_join"

	f := &orderFixture{
		db:       db,
		users:    repository.NewSQLiteUserRepo(db.Conn),
		auths:    repository.NewSQLiteAuthorizationRepo(db.Conn),
		download: repository.NewSQLiteDownloadRepo(db.Conn),
		sender:   &fakeSender{},
		payments: &fakePayments{sessions: map[string]*stripe.CheckoutSession{}},
		members: &fakeMembers{members: map[string]*ghost.Member{
			"member@example.com": {ID: "m1", Name: "Grace Hopper", Email: "member@example.com"},
		}},
	}
	f.service = NewOrderService(
		db.Conn, f.users, f.auths, f.download, store,
		f.payments, f.members, f.sender, cfg,
	)
	return f
}

func paidSession(products ...string) *stripe.CheckoutSession {
	session := &stripe.CheckoutSession{
		ID:            "cs_test",
		PaymentStatus: "paid",
		Customer:      stripe.Customer{Name: "Grace Hopper", Email: "grace@example.com"},
	}
	for _, p := range products {
		var item stripe.LineItem
		item.Price.Product = p
		session.LineItems.Data = append(session.LineItems.Data, item)
	}
	return session
}

func TestFulfillCheckout_SendsDownloadsAndLinks(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	f.payments.sessions["cs_test"] = paidSession("prod_book")

	sent, err := f.service.FulfillCheckout(context.Background(), "https://shop.example.com", "cs_test")
	require.NoError(t, err)
	assert.True(t, sent)

	mails := f.sender.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, "Grace Hopper <grace@example.com>", mails[0].To)
	assert.Equal(t, "Example Book", mails[0].Subject)
	assert.Contains(t, mails[0].Text, "Hi Grace")
	assert.Contains(t, mails[0].Text, "https://shop.example.com/downloads/example.epub?token=")
	assert.Contains(t, mails[0].Text, "https://shop.example.com/downloads/example.pdf?token=")
	assert.Contains(t, mails[0].Text, "https://example.com/extras")

	// Maildeki token DB'de karşılığı olan gerçek bir download olmalı.
	token := extractQueryParam(t, mails[0].Text, "/downloads/example.epub?token=")
	download, err := f.download.GetByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "books/example", download.Path)
	assert.Equal(t, "example.epub", download.Filename)
	assert.Nil(t, download.ExpiresOn, "clock must not start at order time")
}

func TestFulfillCheckout_UnpaidSession(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	session := paidSession("prod_book")
	session.PaymentStatus = "unpaid"
	f.payments.sessions["cs_test"] = session

	_, err := f.service.FulfillCheckout(context.Background(), "https://shop.example.com", "cs_test")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Empty(t, f.sender.sent())
}

func TestFulfillCheckout_SkipsMembershipProduct(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	f.payments.sessions["cs_test"] = paidSession("prod_join")

	sent, err := f.service.FulfillCheckout(context.Background(), "https://shop.example.com", "cs_test")
	require.NoError(t, err)
	assert.False(t, sent, "membership-only cart sends no order mail")
	assert.Empty(t, f.sender.sent())
}

func TestFulfillCheckout_UnknownProduct(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	f.payments.sessions["cs_test"] = paidSession("prod_unknown")

	_, err := f.service.FulfillCheckout(context.Background(), "https://shop.example.com", "cs_test")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestFulfillCheckout_CDNGrantsAuthorization(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	f.payments.sessions["cs_test"] = paidSession("prod_video")
	ctx := context.Background()

	sent, err := f.service.FulfillCheckout(ctx, "https://shop.example.com", "cs_test")
	require.NoError(t, err)
	assert.True(t, sent)

	mails := f.sender.sent()
	require.Len(t, mails, 1)
	assert.Contains(t, mails[0].Text, "https://shop.example.com/login?emailhmac=")
	assert.Contains(t, mails[0].Text, "redirect="+url.QueryEscape("/courses/video"))

	// Kullanıcı ve yetki yazılmış olmalı.
	emailHmac := crypto.EmailHash([]byte(testHMACSecret), "grace@example.com")
	user, err := f.users.GetByEmailHmac(ctx, emailHmac)
	require.NoError(t, err)
	require.NotNil(t, user.Token, "magic link token pending")

	auth, err := f.auths.GetByUserAndPath(ctx, user.ID, "courses/video")
	require.NoError(t, err)
	assert.True(t, auth.ExpiresOn.After(time.Now().AddDate(0, 2, 0)), "3 month grant")
}

func TestFulfillCheckout_RepurchaseRefreshesAuthorization(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	f.payments.sessions["cs_test"] = paidSession("prod_video")
	ctx := context.Background()

	_, err := f.service.FulfillCheckout(ctx, "https://shop.example.com", "cs_test")
	require.NoError(t, err)

	emailHmac := crypto.EmailHash([]byte(testHMACSecret), "grace@example.com")
	user, err := f.users.GetByEmailHmac(ctx, emailHmac)
	require.NoError(t, err)
	first, err := f.auths.GetByUserAndPath(ctx, user.ID, "courses/video")
	require.NoError(t, err)

	// Yetkiyi geçmişe çek, tekrar satın al — süre tazelenmeli, satır aynı kalmalı.
	require.NoError(t, f.auths.UpdateExpiry(ctx, first.ID, time.Now().Add(-time.Hour)))

	_, err = f.service.FulfillCheckout(ctx, "https://shop.example.com", "cs_test")
	require.NoError(t, err)

	renewed, err := f.auths.GetByUserAndPath(ctx, user.ID, "courses/video")
	require.NoError(t, err)
	assert.Equal(t, first.ID, renewed.ID, "upsert must not create a second row")
	assert.True(t, renewed.ExpiresOn.After(time.Now()), "expiry refreshed")
}

func TestResendConfirmation(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)

	err := f.service.ResendConfirmation(context.Background(), "https://shop.example.com", &models.ResendOrderRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Path:  "books/example",
	})
	require.NoError(t, err)
	require.Len(t, f.sender.sent(), 1)

	err = f.service.ResendConfirmation(context.Background(), "https://shop.example.com", &models.ResendOrderRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Path:  "books/missing",
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSendConfirmation_BrokenProduct(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)

	// Dosyası, linki ve cdn'i olmayan ürün: gönderilecek bir şey yok.
	err := f.service.ResendConfirmation(context.Background(), "https://shop.example.com", &models.ResendOrderRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Path:  "books/broken",
	})
	assert.ErrorIs(t, err, pkg.ErrInternal)
	assert.Empty(t, f.sender.sent())
}

func TestMemberOrder(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	ctx := context.Background()

	// Üye + üyelere açık ürün → mail gider.
	err := f.service.MemberOrder(ctx, "https://shop.example.com", &models.StoreRequest{
		Path: "courses/video", Email: "member@example.com",
	})
	require.NoError(t, err)
	require.Len(t, f.sender.sent(), 1)
	assert.Equal(t, "Grace Hopper <member@example.com>", f.sender.sent()[0].To)

	// Üye değil → 401.
	err = f.service.MemberOrder(ctx, "https://shop.example.com", &models.StoreRequest{
		Path: "courses/video", Email: "stranger@example.com",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Ürün üyelere açık değil → 403.
	err = f.service.MemberOrder(ctx, "https://shop.example.com", &models.StoreRequest{
		Path: "books/paid-only", Email: "member@example.com",
	})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// Ürün yok → 404.
	err = f.service.MemberOrder(ctx, "https://shop.example.com", &models.StoreRequest{
		Path: "books/missing", Email: "member@example.com",
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMemberOrder_CachesLookup(t *testing.T) {
	t.Parallel()

	f := newOrderFixture(t)
	ctx := context.Background()

	req := &models.StoreRequest{Path: "courses/video", Email: "member@example.com"}
	require.NoError(t, f.service.MemberOrder(ctx, "https://shop.example.com", req))
	require.NoError(t, f.service.MemberOrder(ctx, "https://shop.example.com", req))

	assert.Equal(t, 1, f.members.calls, "second lookup should hit the cache")
}

// extractQueryParam, mail gövdesindeki "<marker><value>" kalıbından value'yu çıkarır.
func extractQueryParam(t *testing.T, body, marker string) string {
	t.Helper()

	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0, "marker %q not found in mail body", marker)
	rest := body[idx+len(marker):]
	if end := strings.IndexAny(rest, "\n \t"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

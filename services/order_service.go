package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/ghost"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/cache"
	"github.com/akinalp/kurye/pkg/crypto"
	"github.com/akinalp/kurye/pkg/email"
	"github.com/akinalp/kurye/pkg/token"
	"github.com/akinalp/kurye/repository"
	"github.com/akinalp/kurye/stripe"
	"github.com/akinalp/kurye/templates"
)

// memberCacheTTL, membership lookup sonuçlarının bellekte tutulma süresi.
// Üyelik mağazasında aynı üye arka arkaya birkaç ürün alabilir — her
// tıklamada content platform'a gitmeye gerek yok.
const memberCacheTTL = 5 * time.Minute

// OrderService, sipariş karşılama iş mantığı interface'i.
//
// FulfillCheckout: Ödemesi tamamlanmış checkout session'ı karşılar
// (webhook akışı). En az bir sipariş maili gönderildiyse true döner.
// ResendConfirmation: Belirli bir alıcı + ürün için onay mailini yeniden
// üretir (operasyon ekibi, /admin).
// MemberOrder: Üyelere ücretsiz ürün akışı — membership kontrolü + onay maili.
type OrderService interface {
	FulfillCheckout(ctx context.Context, origin, sessionID string) (bool, error)
	ResendConfirmation(ctx context.Context, origin string, req *models.ResendOrderRequest) error
	MemberOrder(ctx context.Context, origin string, req *models.StoreRequest) error
}

type orderService struct {
	db           *sql.DB
	userRepo     repository.UserRepository
	authRepo     repository.AuthorizationRepository
	downloadRepo repository.DownloadRepository
	store        *catalog.Store
	payments     stripe.SessionFetcher
	members      ghost.MemberFinder
	memberCache  *cache.TTLCache[string, *ghost.Member]
	sender       email.Sender
	secret       []byte
	expiryHours  int
	joinProduct  string // membership aboneliği ürün id'si — sipariş maili atlanır
	fromName     string
	fromEmail    string
}

// NewOrderService, constructor.
// payments nil olamaz; members nil ise MemberOrder her zaman 401 döner
// (content platform konfigüre edilmemiş kurulumlar için).
func NewOrderService(
	db *sql.DB,
	userRepo repository.UserRepository,
	authRepo repository.AuthorizationRepository,
	downloadRepo repository.DownloadRepository,
	store *catalog.Store,
	payments stripe.SessionFetcher,
	members ghost.MemberFinder,
	sender email.Sender,
	cfg *config.Config,
) OrderService {
	return &orderService{
		db:           db,
		userRepo:     userRepo,
		authRepo:     authRepo,
		downloadRepo: downloadRepo,
		store:        store,
		payments:     payments,
		members:      members,
		memberCache:  cache.New[string, *ghost.Member](memberCacheTTL, time.Minute),
		sender:       sender,
		secret:       []byte(cfg.Auth.HMACSecret),
		expiryHours:  cfg.Download.ExpiryHours,
		joinProduct:  cfg.Stripe.GhostJoinProductID,
		fromName:     cfg.Mail.FromName,
		fromEmail:    cfg.Mail.FromEmail,
	}
}

// FulfillCheckout, checkout session'ı okuyup her satın alınan ürün için
// sipariş onay maili gönderir.
//
// İş mantığı:
//  1. Session'ı customer + line_items expand edilmiş halde çek
//  2. payment_status "paid" değilse 400 — webhook retry eder
//  3. Her line item için ürünü katalogda bul ve onay maili gönder;
//     membership aboneliği (joinProduct) atlanır — onun maili content
//     platform'dan gider
//
// Dönen bool: en az bir mail gönderildi mi (handler 201/200 kararı verir).
func (s *orderService) FulfillCheckout(ctx context.Context, origin, sessionID string) (bool, error) {
	session, err := s.payments.CheckoutSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch checkout session: %w", err)
	}
	if session.PaymentStatus != "paid" {
		return false, fmt.Errorf("%w: invalid payment status %q", pkg.ErrBadRequest, session.PaymentStatus)
	}

	to := models.Recipient{Name: session.Customer.Name, Email: session.Customer.Email}

	sent := false
	for _, item := range session.LineItems.Data {
		productID := item.Price.Product
		if s.joinProduct != "" && productID == s.joinProduct {
			continue
		}

		path, product, ok := s.store.FindByExternalID(productID)
		if !ok {
			return sent, fmt.Errorf("%w: product not found", pkg.ErrNotFound)
		}

		if err := s.sendConfirmation(ctx, origin, to, path, product); err != nil {
			return sent, err
		}
		sent = true
	}

	return sent, nil
}

// ResendConfirmation, onay mailini manuel tetikler (webhook kaçtıysa veya
// müşteri maili kaybettiyse). Downloads yeniden üretilir, yetki süresi tazelenir.
func (s *orderService) ResendConfirmation(ctx context.Context, origin string, req *models.ResendOrderRequest) error {
	product, ok := s.store.Get(req.Path)
	if !ok {
		return fmt.Errorf("%w: product not found", pkg.ErrNotFound)
	}

	to := models.Recipient{Name: req.Name, Email: req.Email}
	return s.sendConfirmation(ctx, origin, to, req.Path, product)
}

// MemberOrder, üyelere ücretsiz ürün siparişi.
//
// İş mantığı:
//  1. Email'i content platform'da ara — tam olarak bir üye eşleşmeli (401)
//  2. Ürün katalogda olmalı (404) ve üyelere açık olmalı (403)
//  3. Normal sipariş onay akışı çalışır
func (s *orderService) MemberOrder(ctx context.Context, origin string, req *models.StoreRequest) error {
	member, err := s.findMember(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: membership required", pkg.ErrUnauthorized)
		}
		return err
	}

	product, ok := s.store.Get(req.Path)
	if !ok {
		return fmt.Errorf("%w: product not found", pkg.ErrNotFound)
	}
	if !product.Members {
		return fmt.Errorf("%w: product paid-only", pkg.ErrForbidden)
	}

	to := models.Recipient{Name: member.Name, Email: member.Email}
	return s.sendConfirmation(ctx, origin, to, req.Path, product)
}

// findMember, membership lookup'ı kısa süreli cache'ler.
func (s *orderService) findMember(ctx context.Context, emailAddr string) (*ghost.Member, error) {
	if s.members == nil {
		return nil, fmt.Errorf("%w: membership lookup not configured", pkg.ErrNotFound)
	}

	key := crypto.EmailHash(s.secret, emailAddr)
	if member, ok := s.memberCache.Get(key); ok {
		return member, nil
	}

	member, err := s.members.FindMemberByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}

	s.memberCache.Set(key, member)
	return member, nil
}

// sendConfirmation, tek bir (alıcı, ürün) çifti için sipariş onay maili üretir.
//
// Mail üç tür erişim içerebilir:
//   - downloads: ürün dosyaları için taze download token'lı URL'ler
//   - links: ürün tanımındaki sabit linkler
//   - cdn: korumalı içerik — kullanıcı upsert + yetki upsert + magic link URL
//
// Üçü de boş kalırsa ürün tanımı bozuktur, mail gönderilmez.
func (s *orderService) sendConfirmation(ctx context.Context, origin string, to models.Recipient, path string, product *catalog.Product) error {
	var downloads []string
	for _, filename := range sortedKeys(product.Files) {
		t, err := token.Generate(token.DefaultSize)
		if err != nil {
			return fmt.Errorf("failed to generate download token: %w", err)
		}
		download := &models.Download{Path: path, Filename: filename, Token: t}
		if err := s.downloadRepo.Create(ctx, download); err != nil {
			return err
		}
		downloads = append(downloads, fmt.Sprintf("%s/downloads/%s?token=%s", origin, filename, t))
	}

	links := make([]string, 0, len(product.Links))
	links = append(links, product.Links...)

	if product.CDN != nil {
		loginURL, err := s.grantAccess(ctx, origin, to.Email, path, product.CDN)
		if err != nil {
			return err
		}
		links = append(links, loginURL)
	}

	if len(downloads) == 0 && len(links) == 0 {
		return fmt.Errorf("%w: invalid email payload", pkg.ErrInternal)
	}

	data := templates.OrderConfirmationData{
		From:      templates.Party{FirstName: firstWord(s.fromName), Email: s.fromEmail},
		To:        templates.Party{FirstName: to.FirstName(), Email: to.Email},
		Downloads: downloads,
		Links:     links,
	}
	if len(downloads) > 0 {
		data.Expiry = templates.HumanizeHours(s.expiryHours)
	}
	if product.EventOn != "" {
		if eventTime, err := time.Parse(time.RFC3339, product.EventOn); err == nil {
			data.EventOn = templates.FormatEventTime(eventTime)
		} else {
			data.EventOn = product.EventOn
		}
	}

	body, err := templates.Render("order-confirmation.tmpl", data)
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, email.Address(to.Name, to.Email), product.Name, body); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}

	log.Printf("[order] confirmation sent for %s (%d downloads, %d links)", path, len(downloads), len(links))
	return nil
}

// grantAccess, korumalı içerik için kullanıcıyı ve süreli yetkiyi hazırlar,
// giriş yapmaya hazır magic link URL'ini döner.
//
// Upsert'ler tek transaction: kullanıcı yaratıldı ama yetki yazılamadıysa
// ikisi de geri alınır — token'lı ama yetkisiz mail gitmez.
func (s *orderService) grantAccess(ctx context.Context, origin, emailAddr, path string, cdn *catalog.CDN) (string, error) {
	emailHmac := crypto.EmailHash(s.secret, emailAddr)
	pending, err := token.Generate(token.DefaultSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate login token: %w", err)
	}

	expiresOn, err := cdn.Expiry.From(timeNow())
	if err != nil {
		return "", err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.userRepo.WithTx(tx)
		auths := s.authRepo.WithTx(tx)

		user, err := users.Upsert(ctx, emailHmac, pending)
		if err != nil {
			return err
		}

		// Yetki upsert: aynı ürün tekrar alındığında satır çoğalmaz,
		// süre tazelenir.
		existing, err := auths.GetByUserAndPath(ctx, user.ID, path)
		switch {
		case err == nil:
			return auths.UpdateExpiry(ctx, existing.ID, expiresOn)
		case errors.Is(err, pkg.ErrNotFound):
			return auths.Create(ctx, &models.Authorization{
				UserID:    user.ID,
				Path:      path,
				ExpiresOn: expiresOn,
			})
		default:
			return err
		}
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/login?emailhmac=%s&token=%s&redirect=%s",
		origin, emailHmac, pending, url.QueryEscape(cdn.Redirect)), nil
}

// sortedKeys, map iterasyonunu deterministik yapar — mail içindeki download
// sırası her gönderimde aynı kalır.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

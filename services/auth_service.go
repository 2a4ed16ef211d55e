package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/crypto"
	"github.com/akinalp/kurye/pkg/email"
	"github.com/akinalp/kurye/pkg/token"
	"github.com/akinalp/kurye/repository"
	"github.com/akinalp/kurye/templates"
)

// ErrWrongLoginToken, magic link'teki token'ın bekleyen token ile eşleşmediğini
// belirtir. Handler bunu diğer hatalardan ayırır: JSON error yerine login
// sayfasına error parametresi ile redirect yapılır — kullanıcı yeni link ister.
var ErrWrongLoginToken = errors.New("wrong token")

// LoginSession, başarılı bir magic link redemption'ının sonucu.
// Token ve Salt ayrı cookie'ler olarak client'a verilir.
type LoginSession struct {
	Token string
	Salt  string
}

// AuthService, magic link kimlik doğrulama iş mantığı interface'i.
//
// RequestLogin: Kayıtlı kullanıcıya magic link maili gönderir.
// ConfirmLogin: Magic link'i redeem eder, session oluşturur (single use).
// Authorize: Session + path çifti için erişim hakkını kontrol eder.
type AuthService interface {
	RequestLogin(ctx context.Context, req *models.LoginRequest, linkBase string) error
	ConfirmLogin(ctx context.Context, emailHmac, loginToken, clientIP string) (*LoginSession, error)
	Authorize(ctx context.Context, req *models.AuthorizeRequest) error
}

type authService struct {
	db        *sql.DB
	userRepo  repository.UserRepository
	sessRepo  repository.SessionRepository
	authRepo  repository.AuthorizationRepository
	sender    email.Sender
	secret    []byte
	keepValid int // kullanıcı başına eşzamanlı geçerli session sayısı
	fromName  string
	fromEmail string
}

// NewAuthService, constructor.
// db: multi-step diziler (redemption) transaction içinde çalışır.
func NewAuthService(
	db *sql.DB,
	userRepo repository.UserRepository,
	sessRepo repository.SessionRepository,
	authRepo repository.AuthorizationRepository,
	sender email.Sender,
	cfg *config.Config,
) AuthService {
	return &authService{
		db:        db,
		userRepo:  userRepo,
		sessRepo:  sessRepo,
		authRepo:  authRepo,
		sender:    sender,
		secret:    []byte(cfg.Auth.HMACSecret),
		keepValid: cfg.Auth.SessionConcurrency,
		fromName:  cfg.Mail.FromName,
		fromEmail: cfg.Mail.FromEmail,
	}
}

// RequestLogin, kayıtlı bir kullanıcıya magic link maili gönderir.
//
// İş mantığı:
//  1. Email'i hash'le, kullanıcıyı bul — yoksa 401 (kayıt endpoint'i yok,
//     kullanıcılar sadece sipariş/üyelik akışından oluşur)
//  2. Yeni bekleyen token üret ve ESKİSİNİN ÜZERİNE yaz — önceki link ölür
//  3. Magic link'i mail ile gönder
//
// linkBase: "https://host/login" — handler request'ten türetir.
func (s *authService) RequestLogin(ctx context.Context, req *models.LoginRequest, linkBase string) error {
	emailHmac := crypto.EmailHash(s.secret, req.Email)

	user, err := s.userRepo.GetByEmailHmac(ctx, emailHmac)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Hesap yoksa da 401 — hangi email'lerin kayıtlı olduğu sızmaz.
			return fmt.Errorf("%w: wrong credentials", pkg.ErrUnauthorized)
		}
		return err
	}

	pending, err := token.Generate(token.DefaultSize)
	if err != nil {
		return fmt.Errorf("failed to generate login token: %w", err)
	}
	if err := s.userRepo.SetPendingToken(ctx, user.ID, &pending); err != nil {
		return err
	}

	// Redirect query escape edilir — '&' veya boşluk içeren bir URL
	// aksi halde linki ortasından böler.
	link := fmt.Sprintf("%s?emailhmac=%s&token=%s&redirect=%s",
		linkBase, emailHmac, pending, url.QueryEscape(req.Redirect))
	body, err := templates.Render("default.tmpl", templates.DefaultData{
		From:    templates.Party{FirstName: firstWord(s.fromName), Email: s.fromEmail},
		To:      templates.Party{Email: req.Email},
		Message: "Please click following magic link to log in.\n\n" + link,
	})
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, req.Email, "Magic link", body); err != nil {
		return fmt.Errorf("failed to send magic link email: %w", err)
	}

	log.Printf("[auth] magic link sent for user %s", user.ID)
	return nil
}

// ConfirmLogin, magic link'i redeem edip yeni bir session oluşturur.
//
// Tamamı tek transaction: aynı link iki kez aynı anda redeem edilirse
// biri token'ı temizler, diğeri ErrWrongLoginToken alır — link single use.
//
// İş mantığı:
//  1. Kullanıcıyı bul — yoksa 404
//  2. Token eşleşmesi — tutmuyorsa ErrWrongLoginToken (handler redirect eder)
//  3. Bekleyen token'ı temizle
//  4. Rotation: kullanıcının en yeni keepValid-1 session'ı kalır, gerisi
//     geçersiz işaretlenir — yeni session ile toplam keepValid olur
//  5. Yeni session'ı token + salt + doğrulama kodu ile yaz
func (s *authService) ConfirmLogin(ctx context.Context, emailHmac, loginToken, clientIP string) (*LoginSession, error) {
	sessionToken, err := token.Generate(token.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	sessionSalt, err := token.Generate(token.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session salt: %w", err)
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.userRepo.WithTx(tx)
		sessions := s.sessRepo.WithTx(tx)

		user, err := users.GetByEmailHmac(ctx, emailHmac)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return fmt.Errorf("%w: could not find user", pkg.ErrNotFound)
			}
			return err
		}

		if user.Token == nil || !crypto.Equal(*user.Token, loginToken) {
			return ErrWrongLoginToken
		}

		// Token session yazılmadan ÖNCE temizlenir — sonraki adımlardan biri
		// hata verirse rollback her şeyi geri alır, link redeem edilmemiş kalır.
		if err := users.SetPendingToken(ctx, user.ID, nil); err != nil {
			return err
		}

		keepIDs, err := sessions.RecentIDs(ctx, user.ID, s.keepValid-1)
		if err != nil {
			return err
		}
		if err := sessions.InvalidateOthers(ctx, user.ID, keepIDs); err != nil {
			return err
		}

		session := &models.Session{
			UserID: user.ID,
			Token:  sessionToken,
			Hmac:   crypto.SessionCode(s.secret, sessionSalt, clientIP),
		}
		if err := sessions.Create(ctx, session); err != nil {
			return err
		}

		log.Printf("[auth] session %s created for user %s", session.ID, user.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &LoginSession{Token: sessionToken, Salt: sessionSalt}, nil
}

// Authorize, (session, path) çifti için erişim kararı verir.
//
// Dönen error'un status karşılıkları:
//   - session yok          → 404
//   - session geçersiz     → 401
//   - yetki kaydı yok      → 401
//   - yetki süresi dolmuş  → 403
//
// nil dönerse erişim var.
func (s *authService) Authorize(ctx context.Context, req *models.AuthorizeRequest) error {
	session, err := s.sessRepo.GetByToken(ctx, req.SessionToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: session not found", pkg.ErrNotFound)
		}
		return err
	}
	if !session.Valid {
		return fmt.Errorf("%w: session expired", pkg.ErrUnauthorized)
	}

	auth, err := s.authRepo.GetByUserAndPath(ctx, session.UserID, req.Path)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: authorization not found", pkg.ErrUnauthorized)
		}
		return err
	}
	if auth.Expired(timeNow()) {
		return fmt.Errorf("%w: authorization expired", pkg.ErrForbidden)
	}

	return nil
}

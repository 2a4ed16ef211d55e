// Package main, kurye sipariş karşılama servisinin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat
//  3. Katalogları (store + polls) yükle
//  4. Dış servisleri kur (mail, payment, content platform)
//  5. Repository'leri oluştur
//  6. Service'leri oluştur
//  7. Handler'ları ve middleware'ları oluştur, route'ları bağla
//  8. CORS + HTTP Server + graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/database"
	"github.com/akinalp/kurye/ghost"
	"github.com/akinalp/kurye/handlers"
	"github.com/akinalp/kurye/middleware"
	"github.com/akinalp/kurye/pkg/email"
	"github.com/akinalp/kurye/pkg/ratelimit"
	"github.com/akinalp/kurye/repository"
	"github.com/akinalp/kurye/services"
	"github.com/akinalp/kurye/static"
	"github.com/akinalp/kurye/stripe"
)

// Login denemeleri IP başına sınırlıdır — endpoint mail gönderdiği için
// hem enumeration hem bombing hedefi.
const (
	loginRateLimit  = 5
	loginRateWindow = 15 * time.Minute
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] kurye starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.EmbeddedMigrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Kataloglar ───
	store, err := catalog.LoadStore(cfg.Catalog.StorePath)
	if err != nil {
		log.Fatalf("[main] failed to load store catalog: %v", err)
	}
	polls, err := catalog.LoadPolls(cfg.Catalog.PollsPath)
	if err != nil {
		log.Fatalf("[main] failed to load poll definitions: %v", err)
	}

	// ─── 4. Dış Servisler ───
	var sender email.Sender
	switch cfg.Mail.Provider {
	case "resend":
		sender = email.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	default:
		sender = email.NewSMTPSender(
			cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword,
			cfg.Mail.FromName, cfg.Mail.FromEmail,
		)
	}

	payments := stripe.NewClient(cfg.Stripe.APIBaseURL, cfg.Stripe.RestrictedAPIKey)

	// Content platform opsiyoneldir: konfigüre edilmemişse üyelik mağazası
	// kapalı kalır ama sipariş/login akışları çalışır.
	var members ghost.MemberFinder
	if cfg.Ghost.APIURL != "" && cfg.Ghost.AdminAPIKey != "" {
		ghostClient, err := ghost.NewClient(cfg.Ghost.APIURL, cfg.Ghost.AdminAPIKey)
		if err != nil {
			log.Fatalf("[main] failed to initialize content platform client: %v", err)
		}
		members = ghostClient
	} else {
		log.Println("[main] content platform not configured, member store disabled")
	}

	// ─── 5. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	sessionRepo := repository.NewSQLiteSessionRepo(db.Conn)
	authorizationRepo := repository.NewSQLiteAuthorizationRepo(db.Conn)
	downloadRepo := repository.NewSQLiteDownloadRepo(db.Conn)
	pollRepo := repository.NewSQLitePollRepo(db.Conn)

	// ─── 6. Service Layer ───
	authService := services.NewAuthService(db.Conn, userRepo, sessionRepo, authorizationRepo, sender, cfg)
	orderService := services.NewOrderService(db.Conn, userRepo, authorizationRepo, downloadRepo, store, payments, members, sender, cfg)
	downloadService := services.NewDownloadService(downloadRepo, store, cfg)
	pollService := services.NewPollService(pollRepo, polls, sender, cfg)

	// ─── 7. Handlers + Middleware + Routes ───
	loginLimiter := ratelimit.New(loginRateLimit, loginRateWindow)
	defer loginLimiter.Close()

	publicFiles, err := fs.Sub(static.PublicFS, "public")
	if err != nil {
		log.Fatalf("[main] failed to mount static files: %v", err)
	}
	staticHandler := http.FileServer(http.FS(publicFiles))

	webhookHandler := handlers.NewWebhookHandler(orderService, cfg.Stripe.WebhookSigningSecret)
	adminHandler := handlers.NewAdminHandler(orderService)
	storeHandler := handlers.NewStoreHandler(orderService, cfg.Ghost.StoreConfirmationPage)
	authHandler := handlers.NewAuthHandler(authService, loginLimiter, staticHandler)
	downloadHandler := handlers.NewDownloadHandler(downloadService)
	pollHandler := handlers.NewPollHandler(pollService, cfg.Ghost.PollsConfirmationPage)

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
	mux.Handle("GET /", staticHandler)

	// ─── 8. CORS ───
	// Store ve poll formları content platform'daki sayfalardan POST edilir —
	// o origin'lere izin verilmeli. Liste boşsa CORS header'ı yazılmaz,
	// sadece same-origin çalışır.
	var handler http.Handler = mux
	if len(cfg.Server.CORSOrigins) > 0 {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		})
		handler = corsHandler.Handler(mux)
	}
	handler = middleware.RequestID(handler)

	// ─── 9. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // download'lar büyük dosya olabilir
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}

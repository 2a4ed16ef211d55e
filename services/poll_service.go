package services

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/models"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/pkg/email"
	"github.com/akinalp/kurye/repository"
)

// PollResults, bir poll'un toplanmış yanıtları.
type PollResults struct {
	Name      string   `json:"name"`
	Data      []string `json:"data"`
	Responses int      `json:"responses"`
}

// BroadcastResult, toplu mail gönderiminin özeti.
type BroadcastResult struct {
	Preview    bool     `json:"preview"`
	Recipients []string `json:"recipients"`
	Sent       bool     `json:"sent"`
}

// PollService, anket iş mantığı interface'i.
//
// Submit: Yanıt kaydeder — poll tipine göre doğrular, unique poll'larda
// duplicate'i sessizce yutar.
// Results: Poll'un tüm yanıtlarını döner (yönetim endpoint'i).
// Broadcast: Yanıt olarak email toplayan poll'lardaki adreslere toplu
// mail gönderir.
type PollService interface {
	Submit(ctx context.Context, sub *models.PollSubmission) error
	Results(ctx context.Context, name string) (*PollResults, error)
	Broadcast(ctx context.Context, name string, req *models.PollBroadcastRequest) (*BroadcastResult, error)
}

type pollService struct {
	pollRepo   repository.PollRepository
	polls      *catalog.Polls
	sender     email.Sender
	localRelay bool
	fromName   string
	fromEmail  string
}

// NewPollService, constructor.
func NewPollService(pollRepo repository.PollRepository, polls *catalog.Polls, sender email.Sender, cfg *config.Config) PollService {
	return &pollService{
		pollRepo:   pollRepo,
		polls:      polls,
		sender:     sender,
		localRelay: cfg.Mail.LocalRelay(),
		fromName:   cfg.Mail.FromName,
		fromEmail:  cfg.Mail.FromEmail,
	}
}

// Submit, poll yanıtı kaydeder.
//
// İş mantığı:
//  1. Poll tanımı katalogta olmalı — yoksa 400 "invalid name"
//  2. Tipe göre doğrulama: email → format kontrolü, text → uzunluk sınırı
//  3. unique=true ise aynı yanıt ikinci kez KAYDEDİLMEZ ama hata da dönmez —
//     formu iki kez gönderen kullanıcı hata görmemeli
func (s *pollService) Submit(ctx context.Context, sub *models.PollSubmission) error {
	poll, ok := s.polls.Get(sub.Name)
	if !ok {
		return fmt.Errorf("%w: invalid name", pkg.ErrBadRequest)
	}

	switch poll.Type {
	case "email":
		if !models.IsEmail(sub.Response) {
			return fmt.Errorf("%w: invalid email", pkg.ErrBadRequest)
		}
	case "text":
		if err := models.ValidatePollResponseLength(sub.Response); err != nil {
			return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err)
		}
	}

	if poll.Unique {
		exists, err := s.pollRepo.Exists(ctx, sub.Name, sub.Response)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	return s.pollRepo.Create(ctx, &models.PollResponse{
		Name:     sub.Name,
		Response: sub.Response,
	})
}

// Results, poll'un tüm yanıtlarını döner.
func (s *pollService) Results(ctx context.Context, name string) (*PollResults, error) {
	if _, ok := s.polls.Get(name); !ok {
		return nil, fmt.Errorf("%w: invalid name", pkg.ErrBadRequest)
	}

	responses, err := s.pollRepo.ListResponses(ctx, name)
	if err != nil {
		return nil, err
	}

	return &PollResults{
		Name:      name,
		Data:      responses,
		Responses: len(responses),
	}, nil
}

// Broadcast, poll yanıtlarındaki email adreslerine toplu mail gönderir.
//
// Preview modunda mail sadece FROM adresine gider — içerik son kontrolden
// geçer, liste maili ondan sonra tetiklenir. Email formatında olmayan
// yanıtlar sessizce atlanır.
//
// Self-host SMTP relay'de gönderimler arasına 500–2000ms rastgele bekleme
// girer — hızlı ardışık gönderim spam filtrelerini tetikliyor.
func (s *pollService) Broadcast(ctx context.Context, name string, req *models.PollBroadcastRequest) (*BroadcastResult, error) {
	if _, ok := s.polls.Get(name); !ok {
		return nil, fmt.Errorf("%w: invalid name", pkg.ErrBadRequest)
	}

	var recipients []string
	if req.Preview {
		recipients = []string{s.fromEmail}
	} else {
		responses, err := s.pollRepo.ListResponses(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, response := range responses {
			if models.IsEmail(response) {
				recipients = append(recipients, response)
			}
		}
	}

	for _, recipient := range recipients {
		if s.localRelay {
			select {
			case <-time.After(time.Duration(500+rand.IntN(1500)) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := s.sender.Send(ctx, recipient, req.Subject, req.Body); err != nil {
			return nil, fmt.Errorf("failed to send broadcast email: %w", err)
		}
	}

	log.Printf("[poll] broadcast %q sent to %d recipients (preview=%t)", name, len(recipients), req.Preview)
	return &BroadcastResult{
		Preview:    req.Preview,
		Recipients: recipients,
		Sent:       true,
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/akinalp/kurye/catalog"
	"github.com/akinalp/kurye/config"
	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/repository"
)

// Redemption, geçerli bir download token'ının çözümlenmiş hali.
// Filename kullanıcıya görünen ad, FilePath disk üzerindeki gerçek dosya —
// katalog ikisini ayrı tutar, dosya sessizce yeni sürümle değiştirilebilir.
type Redemption struct {
	Filename string
	FilePath string
}

// DownloadService, download token redemption iş mantığı interface'i.
type DownloadService interface {
	Redeem(ctx context.Context, downloadToken string) (*Redemption, error)
}

type downloadService struct {
	downloadRepo repository.DownloadRepository
	store        *catalog.Store
	dir          string
	expiryHours  int
}

// NewDownloadService, constructor.
func NewDownloadService(downloadRepo repository.DownloadRepository, store *catalog.Store, cfg *config.Config) DownloadService {
	return &downloadService{
		downloadRepo: downloadRepo,
		store:        store,
		dir:          cfg.Download.Dir,
		expiryHours:  cfg.Download.ExpiryHours,
	}
}

// Redeem, download token'ını dosya yoluna çözer.
//
// İş mantığı:
//  1. Token'dan download kaydını bul — yoksa 401 (token capability'dir,
//     bilinmeyen token = yetkisiz istek)
//  2. Süre dolmuşsa 403
//  3. Ürün ve dosya eşlemesi katalogtan — ikisi de yoksa 404
//  4. Süre saati henüz başlamamışsa (ilk tıklama) şimdi + expiryHours
//     olarak sabitle; guard'lı UPDATE sayesinde eşzamanlı iki redemption'da
//     saat bir kez başlar
func (s *downloadService) Redeem(ctx context.Context, downloadToken string) (*Redemption, error) {
	download, err := s.downloadRepo.GetByToken(ctx, downloadToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: wrong token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if download.Expired(timeNow()) {
		return nil, fmt.Errorf("%w: download expired", pkg.ErrForbidden)
	}

	product, ok := s.store.Get(download.Path)
	if !ok {
		return nil, fmt.Errorf("%w: product not found", pkg.ErrNotFound)
	}
	file, ok := product.Files[download.Filename]
	if !ok {
		return nil, fmt.Errorf("%w: invalid filename", pkg.ErrNotFound)
	}

	if download.ExpiresOn == nil {
		expiresOn := timeNow().Add(time.Duration(s.expiryHours) * time.Hour)
		if err := s.downloadRepo.StartExpiry(ctx, download.ID, expiresOn); err != nil {
			return nil, err
		}
		log.Printf("[download] expiry clock started for %s", download.ID)
	}

	return &Redemption{
		Filename: download.Filename,
		FilePath: filepath.Join(s.dir, file),
	}, nil
}

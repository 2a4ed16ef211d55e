package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/kurye/pkg"
	"github.com/akinalp/kurye/services"
)

// DownloadHandler, download token redemption endpoint'ini yöneten struct.
type DownloadHandler struct {
	downloadService services.DownloadService
}

// NewDownloadHandler, constructor.
func NewDownloadHandler(downloadService services.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService}
}

// Serve godoc
// GET /downloads/{filename}?token=..
// Download token'ını çözüp dosyayı attachment olarak sunar.
//
// Path'teki filename sadece URL'in okunur görünmesi içindir — hangi dosyanın
// sunulacağını token belirler. Content-Disposition'daki ad, download kaydının
// filename'idir; diskteki gerçek dosya adı dışarı sızmaz.
func (h *DownloadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	downloadToken := r.URL.Query().Get("token")
	if downloadToken == "" {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "missing token")
		return
	}

	redemption, err := h.downloadService.Redeem(r.Context(), downloadToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", redemption.Filename))
	http.ServeFile(w, r, redemption.FilePath)
}

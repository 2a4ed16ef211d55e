// Package static, login sayfasını binary'ye gömer.
//
// GET /login query parametresiz geldiğinde bu sayfa servis edilir:
// kullanıcı email'ini girer, sayfa POST /login'e JSON gönderir ve
// "check your emails" mesajını gösterir. Runtime'da dosya sistemi
// bağımlılığı yok — binary tek başına deploy edilir.
package static

import "embed"

// PublicFS, public/ dizinindeki statik dosyaları içerir.
// Kullanım: fs.Sub(PublicFS, "public") ile alt dizine eriş.
//
//go:embed all:public
var PublicFS embed.FS

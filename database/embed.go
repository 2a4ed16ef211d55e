// Package database embed dosyası — migration SQL dosyalarını binary'ye gömer.
// Deploy edilen binary'nin yanında migration dosyası taşımak gerekmez.
package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyalarını içerir.
// Dosyalar "migrations/" önekiyle gömülür; New açılışta alt dizine iner.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

// Package database, SQLite bağlantısını ve migration sistemini yönetir.
//
// Store MySQL yerine SQLite: tek instance, düşük hacim, sıfır operasyon yükü.
// modernc.org/sqlite pure-Go driver — CGO gerekmez, her platformda çalışır.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// DB, veritabanı bağlantısını saran struct.
// *sql.DB Go'nun built-in connection pool'udur, thread-safe'dir.
type DB struct {
	Conn *sql.DB
}

// New, SQLite bağlantısı açar ve migration'ları çalıştırır.
//
// dbPath: SQLite dosya yolu. migrationsFS: migration SQL dosyalarını içeren
// fs.FS (EmbeddedMigrations veya test'lerde os.DirFS olabilir).
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys: SQLite'ta varsayılan kapalı — cascade delete için gerekli.
	// WAL: eşzamanlı okuma/yazma performansı.
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	// EmbeddedMigrations dosyaları "migrations/" alt dizini altında taşır
	// (go:embed path'i korur) — runMigrations ise düz bir SQL dizini bekler.
	// Alt dizin varsa ona in; os.DirFS gibi düz FS'ler olduğu gibi geçer.
	if info, err := fs.Stat(migrationsFS, "migrations"); err == nil && info.IsDir() {
		sub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return nil, fmt.Errorf("failed to enter migrations directory: %w", err)
		}
		migrationsFS = sub
	}

	if err := db.runMigrations(migrationsFS); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[database] connected and migrations applied")
	return db, nil
}

// Close, veritabanı bağlantısını kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations, migration dosyalarını (001_*.sql, 002_*.sql, ...) sırayla
// çalıştırır. schema_migrations tablosu hangi dosyaların uygulandığını tutar;
// tekrar başlatmada sadece yeni dosyalar çalışır.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied := make(map[string]bool)
	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migration rows: %w", err)
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if _, err := db.Conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}

		if _, err := db.Conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

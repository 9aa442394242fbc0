package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"food-co2-estimator/internal/pkg/common"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MemoryPath SQLite 記憶體資料庫（測試用）
const MemoryPath = ":memory:"

// Open 開啟排放係數資料庫並套用 PRAGMA
func Open(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// :memory: 每個連線各自一份資料庫
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS dk_co2_emission (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		name_da     TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		unit        TEXT NOT NULL DEFAULT 'kg CO2e/kg',
		co2_per_kg  REAL NOT NULL,
		energy_kj   REAL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_dk_co2_emission_name ON dk_co2_emission(name);`,
}

// Migrate 建立資料表
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	common.LogDebug("資料庫遷移完成", zap.Int("statements", len(migrations)))
	return nil
}

// OpenAndMigrate 開啟並遷移
func OpenAndMigrate(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

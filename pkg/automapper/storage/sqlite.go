//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "automapper.sqlite3"

// logical store names inside one database file
const (
	CompactStore = "compact"
	LargeStore   = "large"
)

const errDBClientNil = "db client is nil"

// Blob is one stored value, keyed by logical store and key.
type Blob struct {
	Store     string `gorm:"primaryKey;type:varchar(32)"`
	Name      string `gorm:"primaryKey;type:varchar(128)"`
	Data      []byte
	Size      int
	UpdatedAt time.Time
}

// DBClient owns the SQLite connection shared by its logical stores.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("AUTOMAPPER_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Blob{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Store returns a logical store backed by this client. A capacity of zero
// disables the size check.
func (c *DBClient) Store(name string, capacity int) *SQLStore {
	return &SQLStore{client: c, name: name, capacity: capacity}
}

// Keys lists the keys of one logical store.
func (c *DBClient) Keys(ctx context.Context, store string) ([]string, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var keys []string
	err := c.DB.WithContext(ctx).Model(&Blob{}).Where("store = ?", store).Order("name").Pluck("name", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

// SQLStore is one named store inside a DBClient.
type SQLStore struct {
	client   *DBClient
	name     string
	capacity int
}

func (s *SQLStore) Put(ctx context.Context, key string, blob []byte) error {
	if s.client == nil || s.client.DB == nil {
		return errors.New(errDBClientNil)
	}
	if s.capacity > 0 && len(blob) > s.capacity {
		return fmt.Errorf("%w: %s store holds %d bytes, got %d", ErrQuotaExceeded, s.name, s.capacity, len(blob))
	}

	row := Blob{Store: s.name, Name: key, Data: blob, Size: len(blob), UpdatedAt: time.Now()}
	err := s.client.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "size", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", s.name, key, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil || s.client.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var row Blob
	err := s.client.DB.WithContext(ctx).Where("store = ? AND name = ?", s.name, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", s.name, key, err)
	}
	return row.Data, nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.client == nil || s.client.DB == nil {
		return errors.New(errDBClientNil)
	}

	err := s.client.DB.WithContext(ctx).Where("store = ? AND name = ?", s.name, key).Delete(&Blob{}).Error
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", s.name, key, err)
	}
	return nil
}

// Close is a no-op; the owning DBClient closes the connection.
func (s *SQLStore) Close() error { return nil }

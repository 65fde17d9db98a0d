// Package store keeps named program texts in SQLite.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/soft_delete"
)

var (
	ErrNotFound  = errors.New("program not found")
	ErrEmptyName = errors.New("program name is empty")
)

// Program is one saved program.
type Program struct {
	ID          int64  `json:"-" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex:idx_program_name"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint" gorm:"index:idx_program_fingerprint"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	// unix seconds of the soft delete, 0 while live
	RemovedAt int64 `json:"-"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `json:"-" gorm:"softDelete:flag;default:0"`
}

func (Program) TableName() string {
	return "program"
}

// Fingerprint is the hex blake3 digest of a program text.
func Fingerprint(src string) string {
	h := blake3.New()
	_, _ = h.WriteString(src)
	return hex.EncodeToString(h.Sum(nil))
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Program{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return sqlDB.Close()
}

// Save creates or replaces the program called name. Saving over a deleted
// name brings it back. Names are trimmed here and in Load and Delete.
func (s *Store) Save(ctx context.Context, name, src string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	now := s.now().Unix()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Model(&Program{}).Where("name = ?", name).Updates(map[string]any{
			"source":      src,
			"fingerprint": Fingerprint(src),
			"updated_at":  now,
			"removed_at":  0,
			"deleted":     0,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&Program{
			Name:        name,
			Source:      src,
			Fingerprint: Fingerprint(src),
			CreatedAt:   now,
			UpdatedAt:   now,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("store: save %q: %w", name, err)
	}
	return nil
}

// Load returns the live program called name.
func (s *Store) Load(ctx context.Context, name string) (*Program, error) {
	name = strings.TrimSpace(name)
	var p Program
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store: load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %q: %w", name, err)
	}
	return &p, nil
}

// List returns the names of all live programs in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&Program{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return names, nil
}

// Delete soft-deletes the program called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Program
		if err := tx.Where("name = ?", name).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&p).Update("removed_at", s.now().Unix()).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	return nil
}

// Purge hard-deletes programs soft-deleted before the given time and reports
// how many rows went away.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("deleted = ? AND removed_at < ?", 1, before.Unix()).
		Delete(&Program{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}

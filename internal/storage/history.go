// Package storage keeps a sqlite history of finished battles.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/logger"
)

// BattleRecord is one row of battle history.
type BattleRecord struct {
	ID         uint   `gorm:"primaryKey"`
	BattleID   string `gorm:"uniqueIndex;size:36"`
	Player     string
	Enemy      string
	EnemyType  string `gorm:"index"`
	EnemyLevel int
	Victory    bool
	Turns      int
	Experience int
	Gold       int
	Items      string
	StartedAt  time.Time
	EndedAt    time.Time
	CreatedAt  time.Time
}

// Stats aggregates the whole history.
type Stats struct {
	Battles    int64
	Victories  int64
	Experience int64
	Gold       int64
}

// History records battles to a sqlite database.
type History struct {
	db  *gorm.DB
	log *logrus.Entry
}

// Open opens (creating if needed) the history database at path and
// migrates its schema. Use ":memory:" for a throwaway store.
func Open(path string) (*History, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	if err := db.AutoMigrate(&BattleRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &History{db: db, log: logger.For("storage")}, nil
}

// RecordBattle stores a finished battle.
func (h *History) RecordBattle(ctx context.Context, s combat.Summary) error {
	names := make([]string, len(s.Rewards.Items))
	for i, item := range s.Rewards.Items {
		names[i] = item.Name
	}
	rec := BattleRecord{
		BattleID:   s.BattleID,
		Player:     s.Player,
		Enemy:      s.Enemy,
		EnemyType:  s.EnemyType,
		EnemyLevel: s.EnemyLevel,
		Victory:    s.Victory,
		Turns:      s.Turns,
		Experience: s.Rewards.Experience,
		Gold:       s.Rewards.Gold,
		Items:      strings.Join(names, ","),
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record battle %s: %w", s.BattleID, err)
	}
	h.log.WithFields(logrus.Fields{"battle": s.BattleID, "victory": s.Victory}).Debug("battle recorded")
	return nil
}

// Recent returns up to limit battles, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]BattleRecord, error) {
	var out []BattleRecord
	err := h.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}

// Stats sums the whole history.
func (h *History) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := h.db.WithContext(ctx).Model(&BattleRecord{}).
		Select("COUNT(*) AS battles, " +
			"COALESCE(SUM(CASE WHEN victory THEN 1 ELSE 0 END), 0) AS victories, " +
			"COALESCE(SUM(experience), 0) AS experience, " +
			"COALESCE(SUM(gold), 0) AS gold").
		Scan(&s).Error
	return s, err
}

// Close releases the database.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ combat.Recorder = (*History)(nil)

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PageTransition is the table row of one Event.
type PageTransition struct {
	gorm.Model
	SessionID  string `gorm:"index;size:36"`
	Page       int
	Stage      string `gorm:"size:16"`
	Status     string `gorm:"size:16"`
	Diagnostic string
	At         time.Time
}

// TableName pins the table name.
func (PageTransition) TableName() string {
	return "page_transitions"
}

// GormLedger stores events in a SQL database.
type GormLedger struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the ledger table.
func OpenPostgres(dsn string) (*GormLedger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormLedger(db)
}

// NewGormLedger migrates the ledger table on db.
func NewGormLedger(db *gorm.DB) (*GormLedger, error) {
	if err := db.AutoMigrate(&PageTransition{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return &GormLedger{db: db}, nil
}

func toRow(e Event) PageTransition {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return PageTransition{
		SessionID:  e.Session,
		Page:       e.Page,
		Stage:      e.Stage,
		Status:     e.Status,
		Diagnostic: e.Diagnostic,
		At:         e.At,
	}
}

// Record inserts e.
func (l *GormLedger) Record(ctx context.Context, e Event) error {
	row := toRow(e)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// History returns the session's events ordered by insertion.
func (l *GormLedger) History(ctx context.Context, session string) ([]Event, error) {
	var rows []PageTransition
	err := l.db.WithContext(ctx).
		Where("session_id = ?", session).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	events := make([]Event, len(rows))
	for i, r := range rows {
		events[i] = Event{
			Session:    r.SessionID,
			Page:       r.Page,
			Stage:      r.Stage,
			Status:     r.Status,
			Diagnostic: r.Diagnostic,
			At:         r.At,
		}
	}
	return events, nil
}

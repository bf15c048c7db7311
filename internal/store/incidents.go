package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// IncidentStore persists incidents. Creation is append-only; the only
// later mutation is the read marker, owned by the notification workflow.
type IncidentStore struct {
	db *gorm.DB
}

func NewIncidentStore(db *gorm.DB) *IncidentStore {
	return &IncidentStore{db: db}
}

func (s *IncidentStore) Create(ctx context.Context, incident *models.Incident) error {
	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(incident).Error
}

// CountRecent counts incidents for a (rule, account) pair triggered at or
// after the given instant. Drives the SOFT severity threshold.
func (s *IncidentStore) CountRecent(ctx context.Context, ruleID, accountID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("risk_rule_id = ? AND account_id = ? AND triggered_at >= ?", ruleID, accountID, since).
		Count(&count).Error
	return count, err
}

func (s *IncidentStore) Get(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	var incident models.Incident
	err := s.db.WithContext(ctx).
		Preload("Account").Preload("RiskRule").Preload("Trade").
		First(&incident, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// List returns incidents, newest first, optionally filtered by account
// and unread state.
func (s *IncidentStore) List(ctx context.Context, accountID *uuid.UUID, unreadOnly bool, limit int) ([]models.Incident, error) {
	q := s.db.WithContext(ctx).
		Preload("Account").Preload("RiskRule").Preload("Trade").
		Order("triggered_at DESC")
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var incidents []models.Incident
	err := q.Find(&incidents).Error
	return incidents, err
}

func (s *IncidentStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

func (s *IncidentStore) MarkAllRead(ctx context.Context, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("read_at IS NULL").
		Update("read_at", at).Error
}

func (s *IncidentStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Incident{}).Count(&count).Error
	return count, err
}

func (s *IncidentStore) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Incident{}).
		Where("read_at IS NULL").Count(&count).Error
	return count, err
}

// DayCount is one bucket of the dashboard activity chart.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ActivitySince returns per-day incident counts from the given instant.
func (s *IncidentStore) ActivitySince(ctx context.Context, since time.Time) ([]DayCount, error) {
	var buckets []DayCount
	err := s.db.WithContext(ctx).Model(&models.Incident{}).
		Select("date(triggered_at) AS day, COUNT(*) AS count").
		Where("triggered_at >= ?", since).
		Group("date(triggered_at)").
		Order("day").
		Scan(&buckets).Error
	return buckets, err
}

// SeverityCount is one severity bucket of the per-account statistics.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

// StatsByAccount returns incident counts grouped by rule severity for one
// account.
func (s *IncidentStore) StatsByAccount(ctx context.Context, accountID uuid.UUID) ([]SeverityCount, error) {
	var stats []SeverityCount
	err := s.db.WithContext(ctx).Model(&models.Incident{}).
		Select("risk_rules.severity AS severity, COUNT(*) AS count").
		Joins("JOIN risk_rules ON risk_rules.id = incidents.risk_rule_id").
		Where("incidents.account_id = ?", accountID).
		Group("risk_rules.severity").
		Scan(&stats).Error
	return stats, err
}

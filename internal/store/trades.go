package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// TradeStore persists trades and answers the historical queries the rule
// strategies depend on. It satisfies rules.History.
type TradeStore struct {
	db *gorm.DB
}

func NewTradeStore(db *gorm.DB) *TradeStore {
	return &TradeStore{db: db}
}

func (s *TradeStore) Create(ctx context.Context, trade *models.Trade) error {
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(trade).Error
}

func (s *TradeStore) Update(ctx context.Context, trade *models.Trade) error {
	return s.db.WithContext(ctx).Save(trade).Error
}

// Get loads a trade with its owning account.
func (s *TradeStore) Get(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	if err := s.db.WithContext(ctx).Preload("Account").First(&trade, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

// List returns trades, newest first, optionally filtered by account and
// status.
func (s *TradeStore) List(ctx context.Context, accountID *uuid.UUID, status string, limit int) ([]models.Trade, error) {
	q := s.db.WithContext(ctx).Preload("Account").Order("created_at DESC")
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var trades []models.Trade
	err := q.Find(&trades).Error
	return trades, err
}

func (s *TradeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Trade{}).Count(&count).Error
	return count, err
}

func (s *TradeStore) RecentClosedTrades(ctx context.Context, accountID uuid.UUID, limit int, excludeTradeID uuid.UUID) ([]models.Trade, error) {
	q := s.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, models.TradeStatusClosed).
		Order("close_time DESC").
		Limit(limit)
	if excludeTradeID != uuid.Nil {
		q = q.Where("id <> ?", excludeTradeID)
	}
	var trades []models.Trade
	err := q.Find(&trades).Error
	return trades, err
}

func (s *TradeStore) CountTradesOpenedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("account_id = ? AND open_time >= ?", accountID, since).
		Count(&count).Error
	return count, err
}

func (s *TradeStore) CountOpenTrades(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("account_id = ? AND status = ?", accountID, models.TradeStatusOpen).
		Count(&count).Error
	return count, err
}

func (s *TradeStore) SumProfitClosedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return s.sumProfit(ctx, accountID, &since)
}

func (s *TradeStore) SumProfitClosed(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return s.sumProfit(ctx, accountID, nil)
}

func (s *TradeStore) sumProfit(ctx context.Context, accountID uuid.UUID, since *time.Time) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("account_id = ? AND status = ?", accountID, models.TradeStatusClosed).
		Select("COALESCE(SUM(profit), 0)")
	if since != nil {
		q = q.Where("close_time >= ?", *since)
	}
	var sum decimal.Decimal
	if err := q.Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

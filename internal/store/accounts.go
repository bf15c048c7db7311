package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// AccountStore persists accounts. The action executor is the only runtime
// writer of the status fields; everything else is administrative.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Status == "" {
		account.Status = models.StatusEnabled
	}
	if account.TradingStatus == "" {
		account.TradingStatus = models.StatusEnabled
	}
	return s.db.WithContext(ctx).Create(account).Error
}

func (s *AccountStore) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).Order("login").Find(&accounts).Error
	return accounts, err
}

func (s *AccountStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).Count(&count).Error
	return count, err
}

// Enabled returns accounts qualifying for the periodic sweep.
func (s *AccountStore) Enabled(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusEnabled).
		Find(&accounts).Error
	return accounts, err
}

// DisableAccount sets the account status to disabled. Trading status is
// left untouched; the two are independent.
func (s *AccountStore) DisableAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("status", models.StatusDisabled).Error
}

// DisableTrading sets the trading status to disabled. Account status is
// left untouched.
func (s *AccountStore) DisableTrading(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("trading_status", models.StatusDisabled).Error
}

// Restore re-enables both statuses. Administrative operation, never
// called by the engine.
func (s *AccountStore) Restore(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.StatusEnabled,
			"trading_status": models.StatusEnabled,
		}).Error
}

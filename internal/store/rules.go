package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// RuleStore persists risk rules and configured actions. The engine only
// reads active rules; all mutation comes from the administrative API.
type RuleStore struct {
	db *gorm.DB
}

func NewRuleStore(db *gorm.DB) *RuleStore {
	return &RuleStore{db: db}
}

// Active returns all active rules with their attached actions preloaded.
func (s *RuleStore) Active(ctx context.Context) ([]models.RiskRule, error) {
	var rules []models.RiskRule
	err := s.db.WithContext(ctx).Preload("Actions").
		Where("is_active = ?", true).
		Find(&rules).Error
	return rules, err
}

func (s *RuleStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RiskRule{}).
		Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (s *RuleStore) List(ctx context.Context) ([]models.RiskRule, error) {
	var rules []models.RiskRule
	err := s.db.WithContext(ctx).Preload("Actions").Order("created_at DESC").Find(&rules).Error
	return rules, err
}

func (s *RuleStore) Get(ctx context.Context, id uuid.UUID) (*models.RiskRule, error) {
	var rule models.RiskRule
	if err := s.db.WithContext(ctx).Preload("Actions").First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *RuleStore) Create(ctx context.Context, rule *models.RiskRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(rule).Error
}

func (s *RuleStore) Update(ctx context.Context, rule *models.RiskRule) error {
	return s.db.WithContext(ctx).Save(rule).Error
}

func (s *RuleStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.RiskRule{}, "id = ?", id).Error
}

// ReplaceActions rewires the rule's attached actions to exactly the given
// set.
func (s *RuleStore) ReplaceActions(ctx context.Context, rule *models.RiskRule, actions []models.ConfiguredAction) error {
	return s.db.WithContext(ctx).Model(rule).Association("Actions").Replace(actions)
}

func (s *RuleStore) ListActions(ctx context.Context) ([]models.ConfiguredAction, error) {
	var actions []models.ConfiguredAction
	err := s.db.WithContext(ctx).Order("name").Find(&actions).Error
	return actions, err
}

func (s *RuleStore) GetActions(ctx context.Context, ids []uuid.UUID) ([]models.ConfiguredAction, error) {
	var actions []models.ConfiguredAction
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&actions).Error
	return actions, err
}

func (s *RuleStore) CreateAction(ctx context.Context, action *models.ConfiguredAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(action).Error
}

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// Seed installs the default rule and action set when the rules table is
// empty. Safe to call on every startup.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.RiskRule{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	emailAction := models.ConfiguredAction{
		ID:         uuid.New(),
		Name:       "Email Notification",
		ActionType: models.ActionNotifyEmail,
		Config: models.JSONMap{
			"recipient": "admin@example.com",
			"subject":   "Risk Alert: Rule Violation Detected",
		},
	}
	webhookAction := models.ConfiguredAction{
		ID:         uuid.New(),
		Name:       "Webhook Notification",
		ActionType: models.ActionNotifyWebhook,
		Config: models.JSONMap{
			"webhook_url": "https://hooks.example.com/risk-alerts",
		},
	}
	disableAccountAction := models.ConfiguredAction{
		ID:         uuid.New(),
		Name:       "Disable Account",
		ActionType: models.ActionDisableAccount,
		Config:     models.JSONMap{},
	}
	disableTradingAction := models.ConfiguredAction{
		ID:         uuid.New(),
		Name:       "Disable Trading",
		ActionType: models.ActionDisableTrading,
		Config:     models.JSONMap{},
	}

	rules := []models.RiskRule{
		{
			ID:       uuid.New(),
			Name:     "Fast Trade Detection",
			RuleType: "min_duration",
			Parameters: models.JSONMap{
				"min_duration_seconds": 10,
			},
			Severity:      models.SeverityHard,
			IncidentLimit: 1,
			IsActive:      true,
			Actions:       []models.ConfiguredAction{emailAction, webhookAction, disableAccountAction},
		},
		{
			ID:       uuid.New(),
			Name:     "Unusual Volume Detection",
			RuleType: "volume_consistency",
			Parameters: models.JSONMap{
				"min_factor":      0.5,
				"max_factor":      2.0,
				"lookback_trades": 10,
			},
			Severity:      models.SeveritySoft,
			IncidentLimit: 3,
			IsActive:      true,
			Actions:       []models.ConfiguredAction{emailAction, disableTradingAction},
		},
		{
			ID:       uuid.New(),
			Name:     "High Frequency Trading Detection",
			RuleType: "trade_frequency",
			Parameters: models.JSONMap{
				"time_window_minutes": 5,
				"max_open_trades":     10,
			},
			Severity:      models.SeveritySoft,
			IncidentLimit: 2,
			IsActive:      false,
			Actions:       []models.ConfiguredAction{webhookAction},
		},
	}

	for i := range rules {
		if err := db.WithContext(ctx).Create(&rules[i]).Error; err != nil {
			return fmt.Errorf("seed rule %s: %w", rules[i].Name, err)
		}
	}
	return nil
}

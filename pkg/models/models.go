package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status values shared by Account.Status and Account.TradingStatus.
const (
	StatusEnabled  = "enable"
	StatusDisabled = "disable"
)

// Trade lifecycle states.
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

// Trade directions.
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Rule severities.
const (
	SeverityHard = "HARD"
	SeveritySoft = "SOFT"
)

// Closed set of remediation action types.
const (
	ActionNotifyEmail    = "NOTIFY_EMAIL"
	ActionNotifyWebhook  = "NOTIFY_WEBHOOK"
	ActionDisableAccount = "DISABLE_ACCOUNT"
	ActionDisableTrading = "DISABLE_TRADING"
)

// Threshold value types for drawdown / risk-per-trade rules.
const (
	ValueTypeFixed   = "FIXED"
	ValueTypePercent = "PERCENT"
)

// JSONMap is a free-form JSON object stored in a single column.
// Implements driver.Valuer and sql.Scanner so it works across
// Postgres and SQLite.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Float returns the value under key as a float64, or def when the key is
// absent or not numeric. JSON numbers decode as float64.
func (m JSONMap) Float(key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Int returns the value under key as an int, or def when absent.
func (m JSONMap) Int(key string, def int) int {
	return int(m.Float(key, float64(def)))
}

// IntOK returns the value under key as an int and whether it was present.
// Used for optional bounds that have no default.
func (m JSONMap) IntOK(key string) (int, bool) {
	if _, ok := m[key]; !ok {
		return 0, false
	}
	return m.Int(key, 0), true
}

// String returns the value under key as a string, or def when absent.
func (m JSONMap) String(key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// Account represents a trading account. Status and TradingStatus are
// independent: disabling one never implies disabling the other.
type Account struct {
	ID             uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	Login          int64           `json:"login" gorm:"uniqueIndex"`
	Status         string          `json:"status" gorm:"default:enable"`
	TradingStatus  string          `json:"trading_status" gorm:"default:enable"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(15,2)"`
	InitialBalance decimal.Decimal `json:"initial_balance" gorm:"type:decimal(15,2)"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (a *Account) IsEnabled() bool {
	return a.Status == StatusEnabled
}

func (a *Account) IsTradingEnabled() bool {
	return a.TradingStatus == StatusEnabled
}

// Trade represents one trading operation. The engine only ever reads
// trades; content ownership is external.
type Trade struct {
	ID         uuid.UUID           `json:"id" gorm:"primaryKey;type:uuid"`
	AccountID  uuid.UUID           `json:"account_id" gorm:"type:uuid;index"`
	Account    *Account            `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	Type       string              `json:"type"`
	Volume     decimal.Decimal     `json:"volume" gorm:"type:decimal(15,2)"`
	OpenTime   time.Time           `json:"open_time" gorm:"index"`
	CloseTime  *time.Time          `json:"close_time" gorm:"index"`
	OpenPrice  decimal.Decimal     `json:"open_price" gorm:"type:decimal(15,5)"`
	ClosePrice decimal.NullDecimal `json:"close_price" gorm:"type:decimal(15,5)"`
	StopLoss   decimal.NullDecimal `json:"stop_loss" gorm:"type:decimal(15,5)"`
	Profit     decimal.Decimal     `json:"profit" gorm:"type:decimal(15,2)"`
	Status     string              `json:"status" gorm:"index;default:OPEN"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (t *Trade) IsClosed() bool {
	return t.Status == TradeStatusClosed
}

func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// DurationSeconds returns the trade duration. The second return is false
// while the trade is still open.
func (t *Trade) DurationSeconds() (int64, bool) {
	if t.CloseTime == nil {
		return 0, false
	}
	d := t.CloseTime.Sub(t.OpenTime)
	if d < 0 {
		d = -d
	}
	return int64(d / time.Second), true
}

// RiskRule is a policy definition: a typed, parameterized record with a
// severity and zero or more attached remediation actions.
type RiskRule struct {
	ID            uuid.UUID          `json:"id" gorm:"primaryKey;type:uuid"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	RuleType      string             `json:"rule_type" gorm:"index"`
	Parameters    JSONMap            `json:"parameters" gorm:"type:text"`
	Severity      string             `json:"severity" gorm:"default:SOFT"`
	IncidentLimit int                `json:"incident_limit" gorm:"default:1"`
	IsActive      bool               `json:"is_active" gorm:"default:true"`
	Actions       []ConfiguredAction `json:"actions,omitempty" gorm:"many2many:risk_rule_actions"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (r *RiskRule) IsHard() bool {
	return r.Severity == SeverityHard
}

func (r *RiskRule) IsSoft() bool {
	return r.Severity == SeveritySoft
}

// ConfiguredAction is a remediation recipe attachable to one or more rules.
type ConfiguredAction struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name       string    `json:"name"`
	ActionType string    `json:"action_type" gorm:"index"`
	Config     JSONMap   `json:"config" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Incident origin tags recorded in the details snapshot.
const (
	IncidentSourceTradeEvent    = "trade_event"
	IncidentSourcePeriodicCheck = "periodic_check"
)

// Incident is the record of one rule violation. Created exactly once per
// detected violation; only the read marker is ever mutated afterwards,
// and that belongs to the notification-read workflow, not the engine.
type Incident struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	AccountID   uuid.UUID  `json:"account_id" gorm:"type:uuid;index"`
	Account     *Account   `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	RiskRuleID  uuid.UUID  `json:"risk_rule_id" gorm:"type:uuid;index"`
	RiskRule    *RiskRule  `json:"risk_rule,omitempty" gorm:"foreignKey:RiskRuleID"`
	TradeID     *uuid.UUID `json:"trade_id" gorm:"type:uuid;index"`
	Trade       *Trade     `json:"trade,omitempty" gorm:"foreignKey:TradeID"`
	Details     JSONMap    `json:"details" gorm:"type:text"`
	TriggeredAt time.Time  `json:"triggered_at" gorm:"index"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

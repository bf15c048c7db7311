// Package rules contains the pluggable rule strategies and the registry
// that maps rule-type identifiers to them. A strategy is a pure predicate
// over a Subject; its only view of the outside world is the read-only
// History queries.
package rules

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// Subject is the entity being evaluated: exactly one of a Trade or an
// Account. Strategies pattern-match on the variant and decide
// applicability themselves.
type Subject struct {
	trade   *models.Trade
	account *models.Account
}

// TradeSubject wraps a trade for evaluation.
func TradeSubject(t *models.Trade) Subject {
	return Subject{trade: t}
}

// AccountSubject wraps an account for evaluation.
func AccountSubject(a *models.Account) Subject {
	return Subject{account: a}
}

// Trade returns the trade variant, if any.
func (s Subject) Trade() (*models.Trade, bool) {
	return s.trade, s.trade != nil
}

// Account resolves the account the subject belongs to: the account itself
// for account subjects, the owning account for trade subjects. Returns nil
// when a trade subject was loaded without its account relation.
func (s Subject) Account() *models.Account {
	if s.account != nil {
		return s.account
	}
	if s.trade != nil {
		return s.trade.Account
	}
	return nil
}

// AccountID returns the owning account id for either variant.
func (s Subject) AccountID() (uuid.UUID, bool) {
	if s.account != nil {
		return s.account.ID, true
	}
	if s.trade != nil {
		return s.trade.AccountID, true
	}
	return uuid.Nil, false
}

// History exposes the read-only historical queries strategies need.
// Implemented by the trade store.
type History interface {
	// RecentClosedTrades returns up to limit closed trades for the account,
	// most recently closed first, excluding excludeTradeID (uuid.Nil to
	// exclude nothing).
	RecentClosedTrades(ctx context.Context, accountID uuid.UUID, limit int, excludeTradeID uuid.UUID) ([]models.Trade, error)

	// CountTradesOpenedSince counts the account's trades with an open time
	// at or after the given instant, regardless of current status.
	CountTradesOpenedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error)

	// CountOpenTrades counts the account's currently open trades.
	CountOpenTrades(ctx context.Context, accountID uuid.UUID) (int64, error)

	// SumProfitClosedSince sums realized profit over the account's trades
	// closed at or after the given instant.
	SumProfitClosedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (decimal.Decimal, error)

	// SumProfitClosed sums realized profit over all of the account's
	// closed trades.
	SumProfitClosed(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// Strategy implements the violation check for one rule type. Violated
// returns true when the subject breaks the rule under the given
// parameters; inapplicable subjects (wrong variant, missing relation)
// report not violated rather than an error.
type Strategy interface {
	Type() string
	Description() string
	Violated(ctx context.Context, subject Subject, params models.JSONMap) (bool, error)
}

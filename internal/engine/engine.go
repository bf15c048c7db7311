// Package engine implements the rule evaluation orchestrator: it runs a
// subject against every active rule, records an incident per violation
// and dispatches remediation according to rule severity.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/internal/actions"
	"github.com/MAHD04/Risk-Control-System/internal/metrics"
	"github.com/MAHD04/Risk-Control-System/internal/rules"
	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// RuleSource yields the active rules with their attached actions.
type RuleSource interface {
	Active(ctx context.Context) ([]models.RiskRule, error)
}

// IncidentSink persists incidents and answers the SOFT-severity count.
type IncidentSink interface {
	Create(ctx context.Context, incident *models.Incident) error
	CountRecent(ctx context.Context, ruleID, accountID uuid.UUID, since time.Time) (int64, error)
}

// Publisher receives each created incident, e.g. for the live feed.
type Publisher interface {
	PublishIncident(incident *models.Incident)
}

// Engine evaluates subjects against active rules. It is safe for
// concurrent use; all state lives in its collaborators.
type Engine struct {
	logger    *zap.Logger
	ruleSrc   RuleSource
	incidents IncidentSink
	registry  *rules.Registry
	executor  *actions.Executor
	publisher Publisher
}

// NewEngine wires the engine. publisher may be nil.
func NewEngine(logger *zap.Logger, ruleSrc RuleSource, incidents IncidentSink, registry *rules.Registry, executor *actions.Executor, publisher Publisher) *Engine {
	return &Engine{
		logger:    logger,
		ruleSrc:   ruleSrc,
		incidents: incidents,
		registry:  registry,
		executor:  executor,
		publisher: publisher,
	}
}

// EvaluateTrade runs one trade against every active rule. Strategy and
// action failures are absorbed and logged; only a failure to load rules
// or persist an incident propagates.
func (e *Engine) EvaluateTrade(ctx context.Context, trade *models.Trade) ([]models.Incident, error) {
	metrics.Evaluations.WithLabelValues("trade").Inc()
	return e.evaluate(ctx, rules.TradeSubject(trade), models.IncidentSourceTradeEvent)
}

// EvaluateAccount runs one account against every active rule; used by the
// periodic sweep for rules that are naturally account-level.
func (e *Engine) EvaluateAccount(ctx context.Context, account *models.Account) ([]models.Incident, error) {
	metrics.Evaluations.WithLabelValues("account").Inc()
	return e.evaluate(ctx, rules.AccountSubject(account), models.IncidentSourcePeriodicCheck)
}

func (e *Engine) evaluate(ctx context.Context, subject rules.Subject, source string) ([]models.Incident, error) {
	activeRules, err := e.ruleSrc.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	var created []models.Incident
	for i := range activeRules {
		incident, err := e.evaluateRule(ctx, &activeRules[i], subject, source)
		if err != nil {
			return created, err
		}
		if incident != nil {
			created = append(created, *incident)
		}
	}
	return created, nil
}

// evaluateRule checks one rule against the subject. A nil incident with a
// nil error means no violation (or a skipped/failed rule). A non-nil
// error is only returned when incident persistence fails.
func (e *Engine) evaluateRule(ctx context.Context, rule *models.RiskRule, subject rules.Subject, source string) (*models.Incident, error) {
	strategy, ok := e.registry.Resolve(rule.RuleType)
	if !ok {
		e.logger.Warn("unknown rule type, skipping",
			zap.String("rule_type", rule.RuleType),
			zap.String("rule", rule.Name))
		return nil, nil
	}

	violated, err := strategy.Violated(ctx, subject, rule.Parameters)
	if err != nil {
		// A single malformed rule must not abort the remaining rules.
		e.logger.Warn("rule evaluation failed, continuing",
			zap.String("rule_type", rule.RuleType),
			zap.String("rule", rule.Name),
			zap.Error(err))
		return nil, nil
	}
	if !violated {
		return nil, nil
	}

	accountID, ok := subject.AccountID()
	if !ok {
		return nil, nil
	}

	incident := &models.Incident{
		ID:         uuid.New(),
		AccountID:  accountID,
		RiskRuleID: rule.ID,
		Details: models.JSONMap{
			"rule_type":       rule.RuleType,
			"rule_parameters": map[string]interface{}(rule.Parameters),
			"source":          source,
		},
		TriggeredAt: time.Now(),
	}
	if trade, isTrade := subject.Trade(); isTrade {
		id := trade.ID
		incident.TradeID = &id
	}

	if err := e.incidents.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("persist incident for rule %s: %w", rule.Name, err)
	}

	metrics.Incidents.WithLabelValues(rule.RuleType, rule.Severity).Inc()
	e.logger.Info("rule violated",
		zap.String("rule", rule.Name),
		zap.String("rule_type", rule.RuleType),
		zap.String("severity", rule.Severity),
		zap.String("account_id", accountID.String()),
		zap.String("incident_id", incident.ID.String()))

	if e.publisher != nil {
		e.publisher.PublishIncident(incident)
	}

	e.dispatch(ctx, rule, incident, subject)
	return incident, nil
}

// dispatch decides whether remediation runs now. HARD rules act on every
// violation. SOFT rules re-derive their state by counting incidents for
// the (rule, account) pair inside the window; there is no persisted
// "already acted" flag, so once at the limit every further violation
// re-invokes the executor.
func (e *Engine) dispatch(ctx context.Context, rule *models.RiskRule, incident *models.Incident, subject rules.Subject) {
	account := subject.Account()
	if account == nil {
		e.logger.Warn("cannot resolve account for remediation, skipping actions",
			zap.String("rule", rule.Name),
			zap.String("incident_id", incident.ID.String()))
		return
	}

	if rule.IsHard() {
		e.logger.Info("hard rule triggered, executing actions",
			zap.String("rule", rule.Name),
			zap.String("account_id", account.ID.String()))
		e.executor.Apply(ctx, rule, incident, account)
		return
	}

	windowDays := rule.Parameters.Int("incident_window_days", 30)
	since := time.Now().AddDate(0, 0, -windowDays)

	count, err := e.incidents.CountRecent(ctx, rule.ID, account.ID, since)
	if err != nil {
		e.logger.Error("failed to count recent incidents",
			zap.String("rule", rule.Name),
			zap.String("account_id", account.ID.String()),
			zap.Error(err))
		return
	}

	if count >= int64(rule.IncidentLimit) {
		e.logger.Info("soft rule limit reached, executing actions",
			zap.String("rule", rule.Name),
			zap.String("account_id", account.ID.String()),
			zap.Int64("incidents_in_window", count),
			zap.Int("incident_limit", rule.IncidentLimit))
		e.executor.Apply(ctx, rule, incident, account)
	}
}

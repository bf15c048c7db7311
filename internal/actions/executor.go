// Package actions applies the remediation actions attached to a violated
// rule. Each action runs inside its own failure boundary: one broken
// handler never blocks the rest, and nothing here propagates back to the
// evaluation engine.
package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/internal/metrics"
	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// AccountWriter is the executor's write access to account status fields.
// The executor is the sole runtime writer of these.
type AccountWriter interface {
	DisableAccount(ctx context.Context, id uuid.UUID) error
	DisableTrading(ctx context.Context, id uuid.UUID) error
}

// EmailSender delivers a notification email.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// WebhookSender posts a notification message to a webhook URL.
type WebhookSender interface {
	Send(ctx context.Context, url, message string) error
}

type handlerFunc func(ctx context.Context, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) error

// Executor resolves action types from a closed, statically known map and
// applies each configured action for a rule.
type Executor struct {
	logger   *zap.Logger
	accounts AccountWriter
	email    EmailSender
	webhook  WebhookSender
	handlers map[string]handlerFunc
}

func NewExecutor(logger *zap.Logger, accounts AccountWriter, email EmailSender, webhook WebhookSender) *Executor {
	e := &Executor{
		logger:   logger,
		accounts: accounts,
		email:    email,
		webhook:  webhook,
	}
	e.handlers = map[string]handlerFunc{
		models.ActionNotifyEmail:    e.handleNotifyEmail,
		models.ActionNotifyWebhook:  e.handleNotifyWebhook,
		models.ActionDisableAccount: e.handleDisableAccount,
		models.ActionDisableTrading: e.handleDisableTrading,
	}
	return e
}

// Apply runs every action attached to the rule. An empty action set is a
// no-op. Handlers are idempotent at the account level, so repeated
// invocation for the same (rule, account) pair is safe; SOFT rules at or
// above their limit re-trigger this on every further violation.
func (e *Executor) Apply(ctx context.Context, rule *models.RiskRule, incident *models.Incident, account *models.Account) {
	if len(rule.Actions) == 0 {
		e.logger.Debug("no actions configured for rule", zap.String("rule", rule.Name))
		return
	}

	for i := range rule.Actions {
		action := &rule.Actions[i]

		handler, ok := e.handlers[action.ActionType]
		if !ok {
			e.logger.Warn("unknown action type, skipping",
				zap.String("action_type", action.ActionType),
				zap.String("action_id", action.ID.String()))
			continue
		}

		if err := e.applyOne(ctx, handler, action, incident, account); err != nil {
			metrics.ActionFailures.WithLabelValues(action.ActionType).Inc()
			e.logger.Error("action execution failed",
				zap.String("action_id", action.ID.String()),
				zap.String("action_type", action.ActionType),
				zap.String("account_id", account.ID.String()),
				zap.String("incident_id", incident.ID.String()),
				zap.Error(err))
		}
	}
}

// applyOne invokes a single handler, converting panics into errors so a
// misbehaving handler cannot take down the evaluation pass.
func (e *Executor) applyOne(ctx context.Context, handler handlerFunc, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, action, incident, account)
}

func (e *Executor) handleNotifyEmail(ctx context.Context, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) error {
	recipient := action.Config.String("recipient", "admin@example.com")
	subject := action.Config.String("subject", "Risk Rule Violation Alert")
	body := notificationMessage(incident, account)

	if err := e.email.Send(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("send email to %s: %w", recipient, err)
	}
	e.logger.Info("email notification sent",
		zap.String("recipient", recipient),
		zap.String("incident_id", incident.ID.String()))
	return nil
}

func (e *Executor) handleNotifyWebhook(ctx context.Context, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) error {
	url := action.Config.String("webhook_url", "")
	if url == "" {
		return fmt.Errorf("webhook action %s missing webhook_url", action.ID)
	}

	if err := e.webhook.Send(ctx, url, notificationMessage(incident, account)); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	e.logger.Info("webhook notification sent",
		zap.String("incident_id", incident.ID.String()))
	return nil
}

func (e *Executor) handleDisableAccount(ctx context.Context, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) error {
	if err := e.accounts.DisableAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("disable account: %w", err)
	}
	account.Status = models.StatusDisabled
	e.logger.Info("account disabled",
		zap.String("account_id", account.ID.String()),
		zap.Int64("login", account.Login))
	return nil
}

func (e *Executor) handleDisableTrading(ctx context.Context, action *models.ConfiguredAction, incident *models.Incident, account *models.Account) error {
	if err := e.accounts.DisableTrading(ctx, account.ID); err != nil {
		return fmt.Errorf("disable trading: %w", err)
	}
	account.TradingStatus = models.StatusDisabled
	e.logger.Info("trading disabled",
		zap.String("account_id", account.ID.String()),
		zap.Int64("login", account.Login))
	return nil
}

func notificationMessage(incident *models.Incident, account *models.Account) string {
	return fmt.Sprintf("Risk alert: account #%d violated a rule. Incident ID: %s", account.Login, incident.ID)
}

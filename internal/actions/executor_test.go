package actions

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

type fakeAccounts struct {
	disabledAccounts []uuid.UUID
	disabledTrading  []uuid.UUID
	err              error
}

func (f *fakeAccounts) DisableAccount(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.disabledAccounts = append(f.disabledAccounts, id)
	return nil
}

func (f *fakeAccounts) DisableTrading(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.disabledTrading = append(f.disabledTrading, id)
	return nil
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, recipient, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type fakeWebhook struct {
	urls []string
	err  error
}

func (f *fakeWebhook) Send(ctx context.Context, url, message string) error {
	if f.err != nil {
		return f.err
	}
	f.urls = append(f.urls, url)
	return nil
}

func testFixtures() (*models.RiskRule, *models.Incident, *models.Account) {
	account := &models.Account{
		ID:            uuid.New(),
		Login:         7001,
		Status:        models.StatusEnabled,
		TradingStatus: models.StatusEnabled,
	}
	incident := &models.Incident{ID: uuid.New(), AccountID: account.ID}
	rule := &models.RiskRule{ID: uuid.New(), Name: "Fast Trade Detection"}
	return rule, incident, account
}

func configuredAction(actionType string, config models.JSONMap) models.ConfiguredAction {
	if config == nil {
		config = models.JSONMap{}
	}
	return models.ConfiguredAction{ID: uuid.New(), ActionType: actionType, Config: config}
}

func TestApplyRunsAllActions(t *testing.T) {
	accounts := &fakeAccounts{}
	email := &fakeEmail{}
	webhook := &fakeWebhook{}
	executor := NewExecutor(zap.NewNop(), accounts, email, webhook)

	rule, incident, account := testFixtures()
	rule.Actions = []models.ConfiguredAction{
		configuredAction(models.ActionNotifyEmail, models.JSONMap{"recipient": "risk@example.com"}),
		configuredAction(models.ActionNotifyWebhook, models.JSONMap{"webhook_url": "https://hooks.example.com/a"}),
		configuredAction(models.ActionDisableAccount, nil),
		configuredAction(models.ActionDisableTrading, nil),
	}

	executor.Apply(context.Background(), rule, incident, account)

	assert.Equal(t, []string{"risk@example.com"}, email.sent)
	assert.Equal(t, []string{"https://hooks.example.com/a"}, webhook.urls)
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.disabledAccounts)
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.disabledTrading)

	// Handlers also update the in-memory account so callers see the
	// new state without a reload.
	assert.Equal(t, models.StatusDisabled, account.Status)
	assert.Equal(t, models.StatusDisabled, account.TradingStatus)
}

func TestApplyIsolatesFailingActions(t *testing.T) {
	accounts := &fakeAccounts{}
	email := &fakeEmail{err: errors.New("smtp down")}
	webhook := &fakeWebhook{}
	executor := NewExecutor(zap.NewNop(), accounts, email, webhook)

	rule, incident, account := testFixtures()
	rule.Actions = []models.ConfiguredAction{
		configuredAction(models.ActionNotifyEmail, nil),
		configuredAction(models.ActionDisableTrading, nil),
	}

	executor.Apply(context.Background(), rule, incident, account)

	// The email failed but trading was still disabled.
	assert.Empty(t, email.sent)
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.disabledTrading)
}

func TestApplySkipsUnknownActionTypes(t *testing.T) {
	accounts := &fakeAccounts{}
	executor := NewExecutor(zap.NewNop(), accounts, &fakeEmail{}, &fakeWebhook{})

	rule, incident, account := testFixtures()
	rule.Actions = []models.ConfiguredAction{
		configuredAction("TELEPORT_FUNDS", nil),
		configuredAction(models.ActionDisableAccount, nil),
	}

	executor.Apply(context.Background(), rule, incident, account)
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.disabledAccounts)
}

func TestApplyRecoversFromHandlerPanics(t *testing.T) {
	// A nil webhook sender makes the webhook handler panic; the
	// following action must still run.
	accounts := &fakeAccounts{}
	executor := NewExecutor(zap.NewNop(), accounts, &fakeEmail{}, nil)

	rule, incident, account := testFixtures()
	rule.Actions = []models.ConfiguredAction{
		configuredAction(models.ActionNotifyWebhook, models.JSONMap{"webhook_url": "https://hooks.example.com/a"}),
		configuredAction(models.ActionDisableTrading, nil),
	}

	assert.NotPanics(t, func() {
		executor.Apply(context.Background(), rule, incident, account)
	})
	assert.Equal(t, []uuid.UUID{account.ID}, accounts.disabledTrading)
}

func TestWebhookMissingURLFails(t *testing.T) {
	webhook := &fakeWebhook{}
	executor := NewExecutor(zap.NewNop(), &fakeAccounts{}, &fakeEmail{}, webhook)

	rule, incident, account := testFixtures()
	rule.Actions = []models.ConfiguredAction{configuredAction(models.ActionNotifyWebhook, nil)}

	executor.Apply(context.Background(), rule, incident, account)
	assert.Empty(t, webhook.urls)
}

func TestHTTPWebhookSender(t *testing.T) {
	t.Run("posts json payload", func(t *testing.T) {
		var gotContentType string
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sender := NewHTTPWebhookSender(5 * time.Second)
		err := sender.Send(context.Background(), srv.URL, "Risk alert: account #7001 violated a rule.")
		require.NoError(t, err)
		assert.Equal(t, "application/json", gotContentType)
		assert.Contains(t, string(gotBody), "Risk alert")
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		sender := NewHTTPWebhookSender(5 * time.Second)
		err := sender.Send(context.Background(), srv.URL, "msg")
		assert.Error(t, err)
	})
}

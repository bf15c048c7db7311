package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

type createAccountRequest struct {
	Login          int64           `json:"login" binding:"required"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.accounts.List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (s *Server) getAccount(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	account, err := s.accounts.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	account := models.Account{
		ID:             uuid.New(),
		Login:          req.Login,
		Status:         models.StatusEnabled,
		TradingStatus:  models.StatusEnabled,
		Balance:        req.Balance,
		InitialBalance: req.InitialBalance,
	}
	if err := s.accounts.Create(c.Request.Context(), &account); err != nil {
		s.respondStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": account})
}

// restoreAccount re-enables both the account and trading status. This is
// the administrative undo for executed remediations.
func (s *Server) restoreAccount(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := s.accounts.Get(ctx, id); err != nil {
		s.respondStoreError(c, err, "account")
		return
	}
	if err := s.accounts.Restore(ctx, id); err != nil {
		s.respondStoreError(c, err, "account")
		return
	}

	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

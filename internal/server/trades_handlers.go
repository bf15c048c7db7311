package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

type createTradeRequest struct {
	AccountID  uuid.UUID           `json:"account_id" binding:"required"`
	Type       string              `json:"type" binding:"required,oneof=BUY SELL"`
	Volume     decimal.Decimal     `json:"volume" binding:"required"`
	OpenTime   time.Time           `json:"open_time" binding:"required"`
	CloseTime  *time.Time          `json:"close_time"`
	OpenPrice  decimal.Decimal     `json:"open_price" binding:"required"`
	ClosePrice decimal.NullDecimal `json:"close_price"`
	StopLoss   decimal.NullDecimal `json:"stop_loss"`
	Profit     decimal.Decimal     `json:"profit"`
	Status     string              `json:"status" binding:"omitempty,oneof=OPEN CLOSED"`
}

type updateTradeRequest struct {
	CloseTime  *time.Time          `json:"close_time"`
	ClosePrice decimal.NullDecimal `json:"close_price"`
	StopLoss   decimal.NullDecimal `json:"stop_loss"`
	Profit     *decimal.Decimal    `json:"profit"`
	Status     string              `json:"status" binding:"omitempty,oneof=OPEN CLOSED"`
}

func (s *Server) listTrades(c *gin.Context) {
	var accountID *uuid.UUID
	if raw := c.Query("account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_ID", "message": "account_id must be a UUID"})
			return
		}
		accountID = &id
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	trades, err := s.trades.List(c.Request.Context(), accountID, c.Query("status"), limit)
	if err != nil {
		s.respondStoreError(c, err, "trades")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trades})
}

func (s *Server) getTrade(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	trade, err := s.trades.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "trade")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trade})
}

func (s *Server) createTrade(c *gin.Context) {
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.accounts.Get(ctx, req.AccountID); err != nil {
		s.respondStoreError(c, err, "account")
		return
	}

	trade := models.Trade{
		ID:         uuid.New(),
		AccountID:  req.AccountID,
		Type:       req.Type,
		Volume:     req.Volume,
		OpenTime:   req.OpenTime,
		CloseTime:  req.CloseTime,
		OpenPrice:  req.OpenPrice,
		ClosePrice: req.ClosePrice,
		StopLoss:   req.StopLoss,
		Profit:     req.Profit,
		Status:     models.TradeStatusOpen,
	}
	if req.Status != "" {
		trade.Status = req.Status
	}

	if err := s.trades.Create(ctx, &trade); err != nil {
		s.respondStoreError(c, err, "trade")
		return
	}

	incidents, warning := s.evaluateSavedTrade(c, trade.ID)
	c.JSON(http.StatusCreated, gin.H{
		"data":              trade,
		"incidents_created": len(incidents),
		"warning":           warning,
	})
}

func (s *Server) updateTrade(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	trade, err := s.trades.Get(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "trade")
		return
	}

	if req.CloseTime != nil {
		trade.CloseTime = req.CloseTime
	}
	if req.ClosePrice.Valid {
		trade.ClosePrice = req.ClosePrice
	}
	if req.StopLoss.Valid {
		trade.StopLoss = req.StopLoss
	}
	if req.Profit != nil {
		trade.Profit = *req.Profit
	}
	if req.Status != "" {
		trade.Status = req.Status
	}

	if err := s.trades.Update(ctx, trade); err != nil {
		s.respondStoreError(c, err, "trade")
		return
	}

	incidents, warning := s.evaluateSavedTrade(c, trade.ID)
	c.JSON(http.StatusOK, gin.H{
		"data":              trade,
		"incidents_created": len(incidents),
		"warning":           warning,
	})
}

// evaluateSavedTrade runs risk evaluation after a trade save. Only closed
// trades are evaluated. Evaluation problems surface as a warning on the
// response; they never fail the save itself.
func (s *Server) evaluateSavedTrade(c *gin.Context, tradeID uuid.UUID) ([]models.Incident, string) {
	ctx := c.Request.Context()

	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		s.logger.Error("failed to reload trade for evaluation",
			zap.String("trade_id", tradeID.String()), zap.Error(err))
		return nil, "risk evaluation skipped"
	}
	if !trade.IsClosed() {
		return nil, ""
	}

	incidents, err := s.engine.EvaluateTrade(ctx, trade)
	if err != nil {
		s.logger.Error("risk evaluation failed",
			zap.String("trade_id", tradeID.String()), zap.Error(err))
		return incidents, "risk evaluation incomplete"
	}
	return incidents, ""
}

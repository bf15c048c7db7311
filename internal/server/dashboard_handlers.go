package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) dashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	accountCount, err := s.accounts.Count(ctx)
	if err != nil {
		s.respondStoreError(c, err, "accounts")
		return
	}
	tradeCount, err := s.trades.Count(ctx)
	if err != nil {
		s.respondStoreError(c, err, "trades")
		return
	}
	incidentCount, err := s.incidents.Count(ctx)
	if err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	unreadCount, err := s.incidents.CountUnread(ctx)
	if err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	activeRules, err := s.ruleStore.CountActive(ctx)
	if err != nil {
		s.respondStoreError(c, err, "risk rules")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts":         accountCount,
		"trades":           tradeCount,
		"incidents":        incidentCount,
		"unread_incidents": unreadCount,
		"active_rules":     activeRules,
	})
}

func (s *Server) incidentActivity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	activity, err := s.incidents.ActivitySince(c.Request.Context(), since)
	if err != nil {
		s.respondStoreError(c, err, "incident activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": activity, "days": days})
}

func (s *Server) recentIncidents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	incidents, err := s.incidents.List(c.Request.Context(), nil, false, limit)
	if err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": incidents})
}

func (s *Server) systemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rule_types":  s.registry.Types(),
		"ws_clients":  s.hub.ClientCount(),
		"server_time": time.Now().UTC(),
	})
}

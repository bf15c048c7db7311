// Package server exposes the administrative HTTP API: rule and action
// management, trade and account CRUD, the incident feed and dashboard
// queries. Saving a closed trade triggers synchronous risk evaluation.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/internal/engine"
	"github.com/MAHD04/Risk-Control-System/internal/rules"
	"github.com/MAHD04/Risk-Control-System/internal/store"
	"github.com/MAHD04/Risk-Control-System/internal/ws"
)

type Server struct {
	logger    *zap.Logger
	engine    *engine.Engine
	registry  *rules.Registry
	ruleStore *store.RuleStore
	trades    *store.TradeStore
	incidents *store.IncidentStore
	accounts  *store.AccountStore
	hub       *ws.Hub
	router    *gin.Engine
}

func New(
	logger *zap.Logger,
	eng *engine.Engine,
	registry *rules.Registry,
	ruleStore *store.RuleStore,
	trades *store.TradeStore,
	incidents *store.IncidentStore,
	accounts *store.AccountStore,
	hub *ws.Hub,
) *Server {
	s := &Server{
		logger:    logger,
		engine:    eng,
		registry:  registry,
		ruleStore: ruleStore,
		trades:    trades,
		incidents: incidents,
		accounts:  accounts,
		hub:       hub,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		ruleGroup := v1.Group("/risk-rules")
		{
			ruleGroup.GET("", s.listRules)
			ruleGroup.POST("", s.createRule)
			ruleGroup.GET("/actions", s.listActions)
			ruleGroup.GET("/:id", s.getRule)
			ruleGroup.PUT("/:id", s.updateRule)
			ruleGroup.DELETE("/:id", s.deleteRule)
			ruleGroup.POST("/:id/actions", s.attachActions)
		}

		incidentGroup := v1.Group("/incidents")
		{
			incidentGroup.GET("", s.listIncidents)
			incidentGroup.GET("/unread", s.listUnreadIncidents)
			incidentGroup.POST("/read-all", s.markAllIncidentsRead)
			incidentGroup.GET("/account/:accountID/stats", s.accountIncidentStats)
			incidentGroup.GET("/:id", s.getIncident)
			incidentGroup.POST("/:id/read", s.markIncidentRead)
		}

		tradeGroup := v1.Group("/trades")
		{
			tradeGroup.GET("", s.listTrades)
			tradeGroup.POST("", s.createTrade)
			tradeGroup.GET("/:id", s.getTrade)
			tradeGroup.PUT("/:id", s.updateTrade)
		}

		accountGroup := v1.Group("/accounts")
		{
			accountGroup.GET("", s.listAccounts)
			accountGroup.POST("", s.createAccount)
			accountGroup.GET("/:id", s.getAccount)
			accountGroup.POST("/:id/restore", s.restoreAccount)
		}

		dashboardGroup := v1.Group("/dashboard")
		{
			dashboardGroup.GET("/stats", s.dashboardStats)
			dashboardGroup.GET("/incident-activity", s.incidentActivity)
			dashboardGroup.GET("/recent-incidents", s.recentIncidents)
			dashboardGroup.GET("/system-status", s.systemStatus)
		}

		v1.GET("/ws/incidents", func(c *gin.Context) {
			s.hub.Serve(c.Writer, c.Request)
		})
	}

	return router
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves the API on the given address, blocking until failure.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

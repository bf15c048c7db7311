package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

type createRuleRequest struct {
	Name          string                 `json:"name" binding:"required"`
	Description   string                 `json:"description"`
	RuleType      string                 `json:"rule_type" binding:"required"`
	Parameters    map[string]interface{} `json:"parameters"`
	Severity      string                 `json:"severity" binding:"required,oneof=HARD SOFT"`
	IncidentLimit int                    `json:"incident_limit" binding:"omitempty,min=1"`
	IsActive      *bool                  `json:"is_active"`
	ActionIDs     []uuid.UUID            `json:"action_ids"`
}

type updateRuleRequest struct {
	Name          *string                `json:"name"`
	Description   *string                `json:"description"`
	RuleType      *string                `json:"rule_type"`
	Parameters    map[string]interface{} `json:"parameters"`
	Severity      *string                `json:"severity" binding:"omitempty,oneof=HARD SOFT"`
	IncidentLimit *int                   `json:"incident_limit" binding:"omitempty,min=1"`
	IsActive      *bool                  `json:"is_active"`
}

func (s *Server) listRules(c *gin.Context) {
	ruleList, err := s.ruleStore.List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "risk rules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ruleList})
}

func (s *Server) getRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rule, err := s.ruleStore.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rule})
}

func (s *Server) createRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if _, known := s.registry.Resolve(req.RuleType); !known {
		// Allowed but inert: the engine skips unregistered types.
		s.logger.Warn("rule created with unregistered rule type",
			zap.String("rule_type", req.RuleType))
	}

	rule := models.RiskRule{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		RuleType:      req.RuleType,
		Parameters:    models.JSONMap(req.Parameters),
		Severity:      req.Severity,
		IncidentLimit: 1,
		IsActive:      true,
	}
	if req.IncidentLimit > 0 {
		rule.IncidentLimit = req.IncidentLimit
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	ctx := c.Request.Context()
	if len(req.ActionIDs) > 0 {
		actions, err := s.ruleStore.GetActions(ctx, req.ActionIDs)
		if err != nil {
			s.respondStoreError(c, err, "configured actions")
			return
		}
		rule.Actions = actions
	}

	if err := s.ruleStore.Create(ctx, &rule); err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rule})
}

func (s *Server) updateRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	rule, err := s.ruleStore.Get(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.RuleType != nil {
		rule.RuleType = *req.RuleType
	}
	if req.Parameters != nil {
		rule.Parameters = models.JSONMap(req.Parameters)
	}
	if req.Severity != nil {
		rule.Severity = *req.Severity
	}
	if req.IncidentLimit != nil {
		rule.IncidentLimit = *req.IncidentLimit
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := s.ruleStore.Update(ctx, rule); err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rule})
}

func (s *Server) deleteRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.ruleStore.Delete(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	c.Status(http.StatusNoContent)
}

type attachActionsRequest struct {
	ActionIDs []uuid.UUID `json:"action_ids" binding:"required"`
}

func (s *Server) attachActions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req attachActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	rule, err := s.ruleStore.Get(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	actions, err := s.ruleStore.GetActions(ctx, req.ActionIDs)
	if err != nil {
		s.respondStoreError(c, err, "configured actions")
		return
	}
	if err := s.ruleStore.ReplaceActions(ctx, rule, actions); err != nil {
		s.respondStoreError(c, err, "risk rule actions")
		return
	}

	rule, err = s.ruleStore.Get(ctx, id)
	if err != nil {
		s.respondStoreError(c, err, "risk rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rule})
}

func (s *Server) listActions(c *gin.Context) {
	actions, err := s.ruleStore.ListActions(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err, "configured actions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       actions,
		"rule_types": s.registry.Types(),
	})
}

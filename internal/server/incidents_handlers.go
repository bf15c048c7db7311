package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) listIncidents(c *gin.Context) {
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

	incidents, err := s.incidents.List(c.Request.Context(), accountID, false, limit)
	if err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": incidents})
}

func (s *Server) listUnreadIncidents(c *gin.Context) {
	incidents, err := s.incidents.List(c.Request.Context(), nil, true, 0)
	if err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": incidents})
}

func (s *Server) getIncident(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	incident, err := s.incidents.Get(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err, "incident")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": incident})
}

func (s *Server) markIncidentRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.incidents.MarkRead(c.Request.Context(), id, time.Now()); err != nil {
		s.respondStoreError(c, err, "incident")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (s *Server) markAllIncidentsRead(c *gin.Context) {
	if err := s.incidents.MarkAllRead(c.Request.Context(), time.Now()); err != nil {
		s.respondStoreError(c, err, "incidents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (s *Server) accountIncidentStats(c *gin.Context) {
	accountID, ok := parseUUIDParam(c, "accountID")
	if !ok {
		return
	}

	stats, err := s.incidents.StatsByAccount(c.Request.Context(), accountID)
	if err != nil {
		s.respondStoreError(c, err, "incident stats")
		return
	}

	bySeverity := gin.H{"HARD": int64(0), "SOFT": int64(0)}
	var total int64
	for _, bucket := range stats {
		bySeverity[bucket.Severity] = bucket.Count
		total += bucket.Count
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id":            accountID,
		"total_incidents":       total,
		"incidents_by_severity": bySeverity,
	})
}

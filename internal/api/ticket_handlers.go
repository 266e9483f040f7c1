// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/frontdoor/internal/store"
	"github.com/campushq/frontdoor/internal/triage"
)

// GetTicketHandler returns one ticket by id.
func (s *Server) GetTicketHandler(c *gin.Context) {
	id := c.Param("id")
	if !triage.ValidTicketID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed ticket id"})
		return
	}

	ticket, err := s.tickets.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket store unavailable"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTicketsHandler returns tickets filtered by query parameters.
func (s *Server) ListTicketsHandler(c *gin.Context) {
	filter := store.TicketFilter{
		SubjectHash: c.Query("subject_hash"),
		Status:      c.Query("status"),
	}
	if deptStr := c.Query("department"); deptStr != "" {
		dept, err := triage.ParseDepartment(deptStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Department = &dept
	}
	filter.Limit = 10
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		filter.Limit = limit
	}

	tickets, err := s.tickets.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket store unavailable"})
		return
	}
	if tickets == nil {
		tickets = []store.Ticket{}
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

// ticketUpdateRequest is the admin PATCH body.
type ticketUpdateRequest struct {
	Status            string  `json:"status"`
	AssignedTo        *string `json:"assigned_to"`
	ResolutionSummary *string `json:"resolution_summary"`
}

// UpdateTicketHandler applies a partial admin update to a ticket.
func (s *Server) UpdateTicketHandler(c *gin.Context) {
	id := c.Param("id")

	var req ticketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update body"})
		return
	}

	update := store.TicketUpdate{
		AssignedTo:        req.AssignedTo,
		ResolutionSummary: req.ResolutionSummary,
	}
	if req.Status != "" {
		status, err := triage.ParseTicketStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		update.Status = status
	}

	ticket, err := s.tickets.Update(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket store unavailable"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// DeleteTicketHandler removes a ticket.
func (s *Server) DeleteTicketHandler(c *gin.Context) {
	id := c.Param("id")

	if err := s.tickets.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

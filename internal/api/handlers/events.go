package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/storage"
	"github.com/your-org/presence/pkg/dto"
)

// EventStore is the audit log query surface.
type EventStore interface {
	QueryEvents(ctx context.Context, f storage.EventFilter) ([]models.AttendanceEvent, int, error)
}

type EventHandler struct {
	db EventStore
}

func NewEventHandler(db EventStore) *EventHandler {
	return &EventHandler{db: db}
}

// List returns the attendance audit log, one row per published
// transition, newest first.
func (h *EventHandler) List(c *gin.Context) {
	var q dto.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := storage.EventFilter{
		UserRef: q.UserRef,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.From != "" {
		from, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from, expected RFC3339"})
			return
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to, expected RFC3339"})
			return
		}
		filter.To = &to
	}

	events, total, err := h.db.QueryEvents(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, dto.EventResponse{
			ID:             ev.ID,
			IdentityID:     ev.IdentityID,
			UserRef:        ev.UserRef,
			Name:           ev.Name,
			Day:            ev.Day,
			Action:         string(ev.Action),
			Confidence:     ev.Confidence,
			EvidenceKey:    ev.EvidenceKey,
			ElapsedSeconds: ev.ElapsedSeconds,
			Timestamp:      ev.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: total})
}

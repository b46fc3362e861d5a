package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/attendance"
	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/pkg/dto"
)

type AttendanceHandler struct {
	svc *attendance.Service
}

func NewAttendanceHandler(svc *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Mark verifies the submitted frame and applies a check-in or
// check-out for the matched identity.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageData, err := decodeImagePayload(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_IMAGE", "error": err.Error()})
		return
	}

	result, err := h.svc.Mark(c.Request.Context(), attendance.MarkRequest{
		UserRef: req.UserRef,
		Action:  models.Action(req.Action),
		Image:   imageData,
	})
	if err != nil {
		if !captureError(c, err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MarkResponse{
		IdentityID:     result.Identity.ID,
		UserRef:        result.Identity.UserRef,
		Name:           result.Identity.Name,
		Day:            result.Day,
		Action:         string(result.Action),
		State:          string(result.State),
		AlreadyMarked:  result.AlreadyMarked,
		CheckIn:        fmtTime(result.CheckIn),
		CheckOut:       fmtTime(result.CheckOut),
		ElapsedSeconds: result.ElapsedSeconds,
		Confidence:     result.Confidence,
		EvidenceKey:    result.EvidenceKey,
	})
}

// Status reports today's lifecycle state for one user.
func (h *AttendanceHandler) Status(c *gin.Context) {
	userRef := c.Query("user_ref")
	if userRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ref required"})
		return
	}

	result, err := h.svc.Status(c.Request.Context(), userRef)
	if err != nil {
		if !captureError(c, err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		IdentityID:     result.Identity.ID,
		UserRef:        result.Identity.UserRef,
		Name:           result.Identity.Name,
		Day:            result.Day,
		State:          string(result.State),
		CheckIn:        fmtTime(result.CheckIn),
		CheckOut:       fmtTime(result.CheckOut),
		ElapsedSeconds: result.ElapsedSeconds,
	})
}

// Summary rolls up one day across every active identity. Defaults to
// today; an optional ?day=YYYY-MM-DD selects another day.
func (h *AttendanceHandler) Summary(c *gin.Context) {
	day := time.Now()
	if dayStr := c.Query("day"); dayStr != "" {
		parsed, err := time.Parse("2006-01-02", dayStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	summary, err := h.svc.Summarize(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries := make([]dto.SummaryEntry, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		entries = append(entries, dto.SummaryEntry{
			IdentityID:     e.Identity.ID,
			UserRef:        e.Identity.UserRef,
			Name:           e.Identity.Name,
			State:          string(e.State),
			CheckIn:        fmtTime(e.CheckIn),
			CheckOut:       fmtTime(e.CheckOut),
			ElapsedSeconds: e.ElapsedSeconds,
		})
	}

	c.JSON(http.StatusOK, dto.SummaryResponse{
		Day:        summary.Day,
		Total:      summary.Total,
		CheckedIn:  summary.CheckedIn,
		CheckedOut: summary.CheckedOut,
		Unmarked:   summary.Unmarked,
		Entries:    entries,
	})
}

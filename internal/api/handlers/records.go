package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/presence/internal/attendance"
	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/storage"
	"github.com/your-org/presence/pkg/dto"
)

type RecordHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewRecordHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *RecordHandler {
	return &RecordHandler{db: db, minio: minio}
}

// List is the admin listing with day-range, user and pagination filters.
func (h *RecordHandler) List(c *gin.Context) {
	var q dto.RecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := storage.RecordFilter{
		UserRef: q.UserRef,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.From != "" {
		from, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from, expected YYYY-MM-DD"})
			return
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to, expected YYYY-MM-DD"})
			return
		}
		filter.To = &to
	}

	records, total, err := h.db.QueryRecords(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	resp := make([]dto.RecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, recordResponse(&records[i], now))
	}

	c.JSON(http.StatusOK, dto.RecordListResponse{Records: resp, Total: total})
}

// BulkUpdate corrects times on the named records. Rows where the
// correction would put check-out before check-in are left untouched.
func (h *RecordHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkRecordUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CheckIn == nil && req.CheckOut == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in or check_out required"})
		return
	}

	updated, err := h.db.SetRecordTimes(c.Request.Context(), req.IDs, req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated, "requested": len(req.IDs)})
}

func (h *RecordHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkRecordDelete
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.db.DeleteRecords(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "requested": len(req.IDs)})
}

// Evidence proxies the frame that authorised a transition.
// ?phase=check_in|check_out selects which one; default check_in.
func (h *RecordHandler) Evidence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.db.RecordByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	key := rec.CheckInKey
	phase := c.DefaultQuery("phase", string(models.ActionCheckIn))
	switch phase {
	case string(models.ActionCheckIn):
	case string(models.ActionCheckOut):
		key = rec.CheckOutKey
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "phase must be check_in or check_out"})
		return
	}
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evidence for " + phase})
		return
	}

	data, err := h.minio.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "evidence not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func recordResponse(rec *models.AttendanceRecord, now time.Time) dto.RecordResponse {
	return dto.RecordResponse{
		ID:                 rec.ID,
		IdentityID:         rec.IdentityID,
		Day:                rec.Day.Format("2006-01-02"),
		CheckIn:            fmtTime(rec.CheckIn),
		CheckInConfidence:  rec.CheckInConfidence,
		CheckOut:           fmtTime(rec.CheckOut),
		CheckOutConfidence: rec.CheckOutConfidence,
		ElapsedSeconds:     attendance.ElapsedSeconds(rec, now),
		CreatedAt:          rec.CreatedAt.Format(timeLayout),
		UpdatedAt:          rec.UpdatedAt.Format(timeLayout),
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/presence/internal/storage"
	"github.com/your-org/presence/pkg/dto"
)

type IdentityHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewIdentityHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *IdentityHandler {
	return &IdentityHandler{db: db, minio: minio}
}

func (h *IdentityHandler) List(c *gin.Context) {
	identities, err := h.db.ListIdentities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.IdentityResponse, 0, len(identities))
	for _, id := range identities {
		samples, _ := h.db.SamplesByIdentity(c.Request.Context(), id.ID)
		resp = append(resp, dto.IdentityResponse{
			ID:          id.ID,
			UserRef:     id.UserRef,
			Name:        id.Name,
			Email:       id.Email,
			Active:      id.Active,
			SampleCount: len(samples),
			CreatedAt:   id.CreatedAt.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, gin.H{"identities": resp, "total": len(resp)})
}

func (h *IdentityHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}

	identity, err := h.db.IdentityByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if identity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
		return
	}

	samples, _ := h.db.SamplesByIdentity(c.Request.Context(), id)
	c.JSON(http.StatusOK, dto.IdentityResponse{
		ID:          identity.ID,
		UserRef:     identity.UserRef,
		Name:        identity.Name,
		Email:       identity.Email,
		Active:      identity.Active,
		SampleCount: len(samples),
		CreatedAt:   identity.CreatedAt.Format(timeLayout),
	})
}

// Delete removes the identity with its samples and records, then
// purges stored frames. Object cleanup is best-effort; orphaned
// objects are harmless.
func (h *IdentityHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}

	if err := h.db.DeleteIdentity(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	for _, prefix := range []string{"faces/" + id.String() + "/", "evidence/" + id.String() + "/"} {
		if err := h.minio.RemovePrefix(c.Request.Context(), prefix); err != nil {
			slog.Warn("purge objects failed", "prefix", prefix, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *IdentityHandler) ListSamples(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}

	samples, err := h.db.SamplesByIdentity(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.SampleResponse, 0, len(samples))
	for _, sm := range samples {
		resp = append(resp, dto.SampleResponse{
			ID:         sm.ID,
			IdentityID: sm.IdentityID,
			Quality:    sm.Quality,
			SourceKey:  sm.SourceKey,
			CapturedAt: sm.CapturedAt.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, gin.H{"samples": resp, "total": len(resp)})
}

func (h *IdentityHandler) DeleteSample(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}
	sampleID, err := uuid.Parse(c.Param("sampleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}

	if err := h.db.DeleteSample(c.Request.Context(), id, sampleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

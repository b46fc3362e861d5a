package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/attendance"
	"github.com/your-org/presence/pkg/dto"
)

type FaceHandler struct {
	svc *attendance.Service
}

func NewFaceHandler(svc *attendance.Service) *FaceHandler {
	return &FaceHandler{svc: svc}
}

// Register enrolls a face: first capture creates the identity, a
// repeat replaces the primary signature, as_sample appends to the
// training set.
func (h *FaceHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageData, err := decodeImagePayload(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_IMAGE", "error": err.Error()})
		return
	}

	result, err := h.svc.Register(c.Request.Context(), attendance.RegisterRequest{
		UserRef:  req.UserRef,
		Name:     req.Name,
		Email:    req.Email,
		Image:    imageData,
		AsSample: req.AsSample,
	})
	if err != nil {
		if !captureError(c, err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := http.StatusCreated
	if result.Status == attendance.RegisterUpdated {
		status = http.StatusOK
	}
	c.JSON(status, dto.RegisterResponse{
		IdentityID:  result.Identity.ID,
		UserRef:     result.Identity.UserRef,
		Status:      result.Status,
		SampleCount: result.SampleCount,
		Quality:     result.Quality,
	})
}

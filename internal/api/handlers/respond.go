package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/presence/internal/attendance"
	"github.com/your-org/presence/internal/vision"
)

// decodeImagePayload accepts a data URL ("data:image/jpeg;base64,....")
// or bare base64 and returns the raw image bytes.
func decodeImagePayload(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return data, nil
}

// captureError writes the HTTP response for a pipeline or matching
// failure. Returns false when the error is not one of the known
// request-level failures, leaving it to the caller.
func captureError(c *gin.Context, err error) bool {
	var qe *vision.QualityError
	var le *vision.LivenessError
	var nm *attendance.NoMatchError

	switch {
	case errors.Is(err, vision.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_IMAGE", "error": err.Error()})
	case errors.Is(err, vision.ErrNoFace):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "NO_FACE", "error": err.Error()})
	case errors.Is(err, vision.ErrMultipleFaces):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "MULTIPLE_FACES", "error": err.Error()})
	case errors.As(err, &qe):
		issues := make([]gin.H, 0, len(qe.Issues))
		for _, issue := range qe.Issues {
			issues = append(issues, gin.H{"code": string(issue), "message": issue.Message()})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "QUALITY_REJECTED", "error": qe.Error(), "issues": issues})
	case errors.As(err, &le):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "LIVENESS_REJECTED", "error": le.Reason})
	case errors.Is(err, attendance.ErrNoEnrolledIdentities):
		c.JSON(http.StatusConflict, gin.H{"code": "NO_ENROLLED_IDENTITIES", "error": err.Error()})
	case errors.As(err, &nm):
		c.JSON(http.StatusNotFound, gin.H{"code": "NO_MATCH", "error": nm.Error(), "confidence": nm.Confidence})
	case errors.Is(err, attendance.ErrIdentityMismatch):
		c.JSON(http.StatusConflict, gin.H{"code": "IDENTITY_MISMATCH", "error": err.Error()})
	case errors.Is(err, attendance.ErrMustCheckInFirst):
		c.JSON(http.StatusConflict, gin.H{"code": "MUST_CHECK_IN_FIRST", "error": err.Error()})
	case errors.Is(err, attendance.ErrIdentityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "IDENTITY_NOT_FOUND", "error": err.Error()})
	case errors.Is(err, attendance.ErrSampleLimit):
		c.JSON(http.StatusConflict, gin.H{"code": "SAMPLE_LIMIT", "error": err.Error()})
	case errors.Is(err, attendance.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ACTION", "error": err.Error()})
	default:
		return false
	}
	return true
}

const timeLayout = "2006-01-02T15:04:05Z"

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

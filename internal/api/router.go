package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/presence/internal/api/handlers"
	"github.com/your-org/presence/internal/api/ws"
	"github.com/your-org/presence/internal/attendance"
	"github.com/your-org/presence/internal/auth"
	"github.com/your-org/presence/internal/queue"
	"github.com/your-org/presence/internal/storage"
)

type RouterConfig struct {
	APIKey   string
	DB       *storage.PostgresStore
	MinIO    *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
	Service  *attendance.Service
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket live feed
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Enrollment
	faceH := handlers.NewFaceHandler(cfg.Service)
	v1.POST("/faces/register", faceH.Register)

	// Attendance
	attH := handlers.NewAttendanceHandler(cfg.Service)
	v1.POST("/attendance/mark", attH.Mark)
	v1.GET("/attendance/status", attH.Status)
	v1.GET("/attendance/summary", attH.Summary)

	// Records (admin)
	recH := handlers.NewRecordHandler(cfg.DB, cfg.MinIO)
	v1.GET("/attendance/records", recH.List)
	v1.PATCH("/attendance/records", recH.BulkUpdate)
	v1.DELETE("/attendance/records", recH.BulkDelete)
	v1.GET("/attendance/records/:id/evidence", recH.Evidence)

	// Audit log
	evH := handlers.NewEventHandler(cfg.DB)
	v1.GET("/attendance/events", evH.List)

	// Identities
	idH := handlers.NewIdentityHandler(cfg.DB, cfg.MinIO)
	v1.GET("/identities", idH.List)
	v1.GET("/identities/:id", idH.Get)
	v1.DELETE("/identities/:id", idH.Delete)
	v1.GET("/identities/:id/samples", idH.ListSamples)
	v1.DELETE("/identities/:id/samples/:sampleId", idH.DeleteSample)

	return r
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voxlink-ai/voxlink/pkg/middleware"
)

// NewRouter wires the REST and WebSocket surfaces onto one engine.
func NewRouter(mode string, corsOrigins []string, meetings *MeetingHandler, ws *WSHandler) *gin.Engine {
	if mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(corsOrigins))

	api := r.Group("/api")
	{
		api.GET("/health", meetings.Health)
		api.POST("/meetings", meetings.Create)
		api.POST("/meetings/:meetingId/attendees", meetings.Join)
	}

	r.GET("/ws", ws.Handle)
	return r
}

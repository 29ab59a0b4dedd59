package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/internal/meeting"
	"github.com/voxlink-ai/voxlink/pkg/response"
)

// MeetingHandler serves the REST meeting surface.
type MeetingHandler struct {
	meetings *meeting.Service
	logger   *zap.Logger
}

func NewMeetingHandler(meetings *meeting.Service, logger *zap.Logger) *MeetingHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &MeetingHandler{meetings: meetings, logger: logger}
}

type createMeetingRequest struct {
	AttendeeName string `json:"attendeeName" binding:"required"`
}

// Create makes a new meeting plus its first attendee.
func (h *MeetingHandler) Create(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "attendeeName is required")
		return
	}

	m, a, err := h.meetings.Create(c.Request.Context(), req.AttendeeName)
	if err != nil {
		h.logger.Error("create meeting failed", zap.Error(err))
		response.InternalError(c, "failed to create meeting")
		return
	}
	response.Success(c, gin.H{"meeting": m, "attendee": a})
}

// Join adds an attendee to an existing meeting.
func (h *MeetingHandler) Join(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "attendeeName is required")
		return
	}

	meetingID := c.Param("meetingId")
	m, a, err := h.meetings.Join(c.Request.Context(), meetingID, req.AttendeeName)
	if err != nil {
		if errors.Is(err, meeting.ErrMeetingNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		h.logger.Error("join meeting failed", zap.String("meetingId", meetingID), zap.Error(err))
		response.InternalError(c, "failed to join meeting")
		return
	}
	response.Success(c, gin.H{"meeting": m, "attendee": a})
}

// Health reports liveness.
func (h *MeetingHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

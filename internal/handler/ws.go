package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/internal/pipeline"
	"github.com/voxlink-ai/voxlink/internal/protocol"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/pkg/synthesizer"
	"github.com/voxlink-ai/voxlink/pkg/translator"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WSHandler upgrades client connections and bridges frames into a pipeline.
type WSHandler struct {
	upgrader  websocket.Upgrader
	registry  *session.Registry
	factory   pipeline.SessionFactory
	translate translator.Service
	synth     synthesizer.Service
	logger    *zap.Logger
}

func NewWSHandler(registry *session.Registry, factory pipeline.SessionFactory,
	translate translator.Service, synth synthesizer.Service, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the app origin; the CORS
			// allowlist already gates the REST surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		registry:  registry,
		factory:   factory,
		translate: translate,
		synth:     synth,
		logger:    logger,
	}
}

func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	go h.serve(conn)
}

// serve owns the read loop for one connection. Events to the client go
// through the Participant once joined; before that the loop is the only
// writer and may use the raw conn.
func (h *WSHandler) serve(conn *websocket.Conn) {
	var (
		participant *session.Participant
		pl          *pipeline.Pipeline
	)
	defer func() {
		if pl != nil {
			pl.Close()
		}
		if participant != nil {
			participant.Close()
		} else {
			_ = conn.Close()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if pl != nil {
				pl.OnAudioFrame(data)
			}
		case websocket.TextMessage:
			var msg protocol.ControlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				h.sendError(conn, participant, "malformed control message")
				continue
			}
			switch msg.Action {
			case protocol.ActionJoin:
				if participant != nil {
					h.sendError(conn, participant, "already joined")
					continue
				}
				participant, pl, err = h.join(conn, msg)
				if err != nil {
					h.sendError(conn, nil, err.Error())
					// Only capacity errors close the connection; a bad
					// join payload may be retried.
					if errors.Is(err, session.ErrMeetingFull) {
						return
					}
					continue
				}
			case protocol.ActionMicOn:
				if pl == nil {
					h.sendError(conn, participant, "join first")
					continue
				}
				pl.OnMicOn()
			case protocol.ActionMicOff:
				if pl == nil {
					h.sendError(conn, participant, "join first")
					continue
				}
				pl.OnMicOff()
			case protocol.ActionStop:
				if pl == nil {
					h.sendError(conn, participant, "join first")
					continue
				}
				pl.OnStop()
			default:
				h.sendError(conn, participant, "unknown action")
			}
		}
	}
}

func (h *WSHandler) join(conn *websocket.Conn, msg protocol.ControlMessage) (*session.Participant, *pipeline.Pipeline, error) {
	if msg.MeetingID == "" || msg.AttendeeID == "" {
		return nil, nil, errors.New("join requires meetingId and attendeeId")
	}

	p := session.NewParticipant(conn, msg.MeetingID, msg.AttendeeID, msg.AttendeeName,
		msg.SpokenLanguage, msg.TargetLanguage)
	if err := h.registry.Add(p); err != nil {
		return nil, nil, err
	}

	pl := pipeline.New(p, h.registry, h.factory, h.translate, h.synth, h.logger)
	pl.Start()
	go h.pingLoop(p)

	if err := p.SendJSON(protocol.NewJoined(p.ConnectionID)); err != nil {
		h.logger.Debug("joined ack failed", zap.Error(err))
	}
	h.logger.Info("participant joined",
		zap.String("connectionId", p.ConnectionID),
		zap.String("meetingId", p.MeetingID),
		zap.String("attendeeName", p.Name),
		zap.String("spokenLanguage", p.SpokenLocale))
	return p, pl, nil
}

func (h *WSHandler) pingLoop(p *session.Participant) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if !p.Open() {
			return
		}
		if err := p.Ping(); err != nil {
			return
		}
	}
}

// sendError replies with an error event. Through the participant once one
// exists, so the single-writer rule holds.
func (h *WSHandler) sendError(conn *websocket.Conn, p *session.Participant, msg string) {
	ev := protocol.NewError(msg)
	if p != nil {
		_ = p.SendJSON(ev)
		return
	}
	data, _ := json.Marshal(ev)
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

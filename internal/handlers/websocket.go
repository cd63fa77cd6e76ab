package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsReadLimit = 4096

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients send no Origin
	},
}

// PairLookup resolves the BFF pair of a user, nil when there is none
type PairLookup interface {
	GetBffPair(ctx context.Context, userID int64) (*models.BffPair, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub    *services.WSHub
	tokens middleware.TokenValidator
	pairs  PairLookup
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokens middleware.TokenValidator, pairs PairLookup) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
		pairs:  pairs,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.tokens)
	if err != nil {
		respondError(w, r, apperr.Unauthorized("invalid token"))
		return
	}
	userID := principal.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(wsReadLimit)

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// The request context ends with the handler, so lookups after the
	// upgrade use a detached one.
	ctx := context.WithoutCancel(r.Context())

	partnerID := h.partnerOf(ctx, userID)
	h.hub.NotifyPartnerStatus(userID, partnerID, true)
	defer func() {
		h.hub.NotifyPartnerStatus(userID, h.partnerOf(ctx, userID), false)
	}()
	h.sendPairStatus(userID, partnerID)

	log.Info().Int64("user_id", userID).Msg("WebSocket connection established")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Int64("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(userID, "invalid message format")
			continue
		}
		h.handleMessage(ctx, userID, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID int64, msg services.WSMessage) {
	switch msg.Type {
	case "ping":
		h.send(userID, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "pair_status":
		h.sendPairStatus(userID, h.partnerOf(ctx, userID))
	default:
		h.sendError(userID, "unknown message type")
	}
}

func (h *WebSocketHandler) partnerOf(ctx context.Context, userID int64) int64 {
	pair, err := h.pairs.GetBffPair(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load BFF pair")
		return 0
	}
	if pair == nil {
		return 0
	}
	return pair.PartnerOf(userID)
}

func (h *WebSocketHandler) sendPairStatus(userID, partnerID int64) {
	data := map[string]any{"has_bff": partnerID != 0}
	if partnerID != 0 {
		online := h.hub.IsOnline(partnerID)
		data["partner_id"] = partnerID
		data["partner_online"] = online
	}
	h.send(userID, services.WSMessage{
		Type:      "pair_status",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
}

func (h *WebSocketHandler) sendError(userID int64, message string) {
	h.send(userID, services.WSMessage{Type: "error", Message: message})
}

func (h *WebSocketHandler) send(userID int64, msg services.WSMessage) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to send WebSocket message")
	}
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/xeno035/taskhive/internal/api/shared"
	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/hub"
	"github.com/xeno035/taskhive/internal/redact"
	"github.com/xeno035/taskhive/internal/service/auth"
)

// SocketHandler upgrades HTTP requests to websocket connections and attaches
// them to the event hub. Every connection joins the room named by the
// caller's verified email, so share notifications reach them regardless of
// which device they are on.
type SocketHandler struct {
	hub        *hub.Hub
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewSocketHandler creates a new SocketHandler.
func NewSocketHandler(h *hub.Hub, jwtService auth.JWTService, logger *slog.Logger) *SocketHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SocketHandler{
		hub:        h,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The token in the query string is the access control; the
			// Origin header is not a trust boundary for non-browser clients.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "socket_handler")),
	}
}

// Serve handles GET /ws requests. Browsers cannot set headers on websocket
// requests, so the token arrives as a query parameter instead of an
// Authorization header.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Token required")
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, auth.ErrInvalidToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
		default:
			h.logger.Error("failed to validate websocket token",
				slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
		}
		return
	}

	if !h.hub.Ready() {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable,
			"Notifications temporarily unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		h.logger.Debug("websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	email := domain.NormalizeEmail(claims.Email)
	client := hub.NewClient(h.hub, conn, email, h.logger)

	if err := h.hub.Register(client); err != nil {
		h.logger.Warn("hub rejected connection",
			slog.String("error", err.Error()))
		_ = conn.Close()
		return
	}

	// Room membership comes from the verified identity, never from
	// client-supplied input.
	if err := h.hub.Join(client, email); err != nil {
		h.logger.Warn("failed to join personal room",
			slog.String("error", err.Error()))
		h.hub.Unregister(client)
		_ = conn.Close()
		return
	}

	h.logger.Info("websocket client connected",
		slog.String("user_id", claims.UserID.String()))

	go client.WritePump()
	go client.ReadPump()
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/iudanet/annosync/internal/server"
)

// WSHandler upgrades viewer connections and hands them to the hub.
type WSHandler struct {
	logger   *slog.Logger
	hub      *server.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a websocket handler for the given hub.
func NewWSHandler(logger *slog.Logger, hub *server.Hub) *WSHandler {
	return &WSHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The hub carries no credentials; origin policy is a
			// deployment concern in front of it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS handles GET /ws?document=<documentId>.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	document := r.URL.Query().Get("document")
	if document == "" {
		http.Error(w, "missing document parameter", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	h.logger.Info("viewer connected", "document", document, "remote_addr", r.RemoteAddr)
	h.hub.Serve(r.Context(), document, conn)
	h.logger.Info("viewer disconnected", "document", document, "remote_addr", r.RemoteAddr)
}

package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/watchlock/server/internal/service/room"
	"github.com/watchlock/server/pkg/rest"
)

type roomInfoResponse struct {
	Exists    bool `json:"exists"`
	UserCount int  `json:"userCount"`
}

// getRoomInfo is the share-link preflight: a landing page can tell the user
// "room not found" before opening a websocket.
func (c controller) getRoomInfo(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	roomInfoResp, err := c.roomService.GetRoomInfo(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"data": roomInfoResponse{Exists: false}})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room info", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": roomInfoResponse{
		Exists:    true,
		UserCount: roomInfoResp.UserCount,
	}})
}

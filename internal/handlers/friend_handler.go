package handlers

import (
	"net/http"

	"github.com/Dias221467/Recovery_Tracker/internal/services"
	"github.com/gorilla/mux"
)

type FriendHandler struct {
	Service *services.FriendService
	Responder
}

func NewFriendHandler(service *services.FriendService, debug bool) *FriendHandler {
	return &FriendHandler{Service: service, Responder: Responder{Debug: debug}}
}

// SendFriendRequestHandler handles POST /friends.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req FriendRequestBody
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	userID, _ := currentUser(r)
	request, err := h.Service.SendRequest(r.Context(), userID, req.FriendEmail, req.Message)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusCreated, "Friend request sent", map[string]string{
		"requestId": request.ID,
		"status":    request.Status,
	})
}

// GetFriendsHandler handles GET /friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	friends, err := h.Service.ListFriends(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, friends)
}

// GetPendingRequestsHandler handles GET /friends/requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	requests, err := h.Service.ListPendingRequests(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, requests)
}

// GetSuggestionsHandler handles GET /friends/suggestions.
func (h *FriendHandler) GetSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	suggestions, err := h.Service.SuggestFriends(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, suggestions)
}

// AcceptRequestHandler handles POST /friends/requests/{id}/accept.
func (h *FriendHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if _, err := h.Service.AcceptRequest(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Friend request accepted", nil)
}

// DeclineRequestHandler handles POST /friends/requests/{id}/decline.
func (h *FriendHandler) DeclineRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if err := h.Service.DeclineRequest(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Friend request declined", nil)
}

// RemoveFriendHandler handles DELETE /friends/{friendId}.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	removed, err := h.Service.RemoveFriend(r.Context(), userID, mux.Vars(r)["friendId"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Friend removed", map[string]int64{"removed": removed})
}

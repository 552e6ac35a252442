package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/internal/services"
	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	Service *services.NotificationService
	Responder
}

func NewNotificationHandler(service *services.NotificationService, debug bool) *NotificationHandler {
	return &NotificationHandler{Service: service, Responder: Responder{Debug: debug}}
}

// GET /notifications?page=&limit=&unreadOnly=
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		h.Error(w, r, apperr.Validation("page must be a number"))
		return
	}
	limit, err := intParam(q.Get("limit"), services.DefaultNotificationLimit)
	if err != nil {
		h.Error(w, r, apperr.Validation("limit must be a number"))
		return
	}
	unreadOnly, _ := strconv.ParseBool(q.Get("unreadOnly"))

	userID, _ := currentUser(r)
	result, err := h.Service.List(r.Context(), userID, page, limit, unreadOnly)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, result)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	n, err := h.Service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]int64{"unreadCount": n})
}

// PUT /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if err := h.Service.MarkRead(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Notification marked as read", nil)
}

// PUT /notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	n, err := h.Service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "All notifications marked as read", map[string]int64{"updated": n})
}

// DELETE /notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if err := h.Service.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Notification deleted", nil)
}

// DELETE /notifications
func (h *NotificationHandler) DeleteAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	n, err := h.Service.DeleteAll(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Notifications deleted", map[string]int64{"deleted": n})
}

package handlers

import (
	"net/http"

	"github.com/Dias221467/Recovery_Tracker/internal/services"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/gorilla/mux"
)

// MilestoneHandler handles HTTP requests related to milestones.
type MilestoneHandler struct {
	Service *services.MilestoneService
	Responder
}

// NewMilestoneHandler creates a new instance of MilestoneHandler.
func NewMilestoneHandler(service *services.MilestoneService, debug bool) *MilestoneHandler {
	return &MilestoneHandler{Service: service, Responder: Responder{Debug: debug}}
}

// GET /milestones
func (h *MilestoneHandler) ListMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	list, err := h.Service.ListWithProgress(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, list)
}

// GET /milestones/standard
func (h *MilestoneHandler) StandardMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.Service.Standard())
}

// POST /milestones
func (h *MilestoneHandler) CreateMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	var req MilestoneRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	userID, _ := currentUser(r)
	m, err := h.Service.Create(r.Context(), userID, services.MilestoneInput{
		Title:        req.Title,
		Description:  req.Description,
		DaysRequired: req.DaysRequired,
		Category:     req.Category,
		Icon:         req.Icon,
		Color:        req.Color,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}

	logger.Log.WithField("milestone_id", m.ID).Info("Milestone created successfully")
	h.Message(w, http.StatusCreated, "Milestone created successfully", m)
}

// POST /milestones/bulk-create
func (h *MilestoneHandler) BulkCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	userID, _ := currentUser(r)
	created, err := h.Service.BulkCreate(r.Context(), userID, req.MilestoneIDs)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, created)
}

// POST /milestones/sync
func (h *MilestoneHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	achieved, err := h.Service.SyncAchievements(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"achieved": achieved,
		"count":    len(achieved),
	})
}

// GET /milestones/{id}
func (h *MilestoneHandler) GetMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	m, err := h.Service.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, m)
}

// PUT /milestones/{id}
func (h *MilestoneHandler) UpdateMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	var req MilestoneUpdateRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	userID, _ := currentUser(r)
	m, err := h.Service.Update(r.Context(), userID, mux.Vars(r)["id"], services.MilestoneUpdate{
		Title:        req.Title,
		Description:  req.Description,
		DaysRequired: req.DaysRequired,
		Category:     req.Category,
		Icon:         req.Icon,
		Color:        req.Color,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Milestone updated successfully", m)
}

// DELETE /milestones/{id}
func (h *MilestoneHandler) DeleteMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	if err := h.Service.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Milestone deleted successfully", nil)
}

// POST /milestones/{id}/achieve
func (h *MilestoneHandler) AchieveHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUser(r)
	m, err := h.Service.Achieve(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Message(w, http.StatusOK, "Milestone achieved", map[string]interface{}{
		"id":         m.ID,
		"achieved":   m.Achieved,
		"achievedAt": m.AchievedAt,
	})
}

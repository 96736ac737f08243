package handlers

import (
	"net/http"
	"time"
)

func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	groups, err := h.service.Store.ListGroupSummaries()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	group, err := h.service.CreateGroup(body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"group": group})
}

func (h *Handler) HandleGroupDetails(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	details, err := h.service.GroupDetails(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) HandleRenameGroup(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	group, err := h.service.RenameGroup(id, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"group": group})
}

func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}

	if err := h.service.DeleteGroup(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

func (h *Handler) HandleAdjustGroupPoints(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() { observe(r, start, status) }()

	if !h.authorized(w, r) {
		status = http.StatusUnauthorized
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, map[string]string{"error": "invalid group id"})
		return
	}

	var body struct {
		Points         int64  `json:"points"`
		Action         string `json:"action"`
		ApplyToMembers bool   `json:"apply_to_members"`
		Reason         string `json:"reason"`
		ActorID        *int64 `json:"actor_id"`
	}
	if !decode(w, r, &body) {
		status = http.StatusBadRequest
		return
	}

	result, err := h.service.AdjustGroupPoints(id, body.Points, body.Action, body.ApplyToMembers, body.Reason, body.ActorID)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleAdjustGroupPercentage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() { observe(r, start, status) }()

	if !h.authorized(w, r) {
		status = http.StatusUnauthorized
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, map[string]string{"error": "invalid group id"})
		return
	}

	var body struct {
		Percentage     int64  `json:"percentage"`
		Action         string `json:"action"`
		ApplyToMembers bool   `json:"apply_to_members"`
		Reason         string `json:"reason"`
		ActorID        *int64 `json:"actor_id"`
	}
	if !decode(w, r, &body) {
		status = http.StatusBadRequest
		return
	}

	result, err := h.service.AdjustGroupPercentage(id, body.Percentage, body.Action, body.ApplyToMembers, body.Reason, body.ActorID)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

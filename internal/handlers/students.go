package handlers

import (
	"net/http"
	"time"
)

func (h *Handler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	students, err := h.service.Store.ListStudents()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (h *Handler) HandleCreateStudent(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var body struct {
		Name    string `json:"name"`
		GroupID *int64 `json:"group_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	student, err := h.service.CreateStudent(body.Name, body.GroupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"student": student})
}

func (h *Handler) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return
	}

	var body struct {
		Name    string `json:"name"`
		GroupID *int64 `json:"group_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	student, err := h.service.UpdateStudent(id, body.Name, body.GroupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"student": student})
}

func (h *Handler) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return
	}

	if err := h.service.DeleteStudent(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "student deleted"})
}

func (h *Handler) HandleStudentStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return
	}

	stats, err := h.service.StudentStats(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleAdjustStudentPoints(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, status, map[string]string{"error": "invalid student id"})
		return
	}

	var body struct {
		Points  int64  `json:"points"`
		Action  string `json:"action"`
		Reason  string `json:"reason"`
		ActorID *int64 `json:"actor_id"`
	}
	if !decode(w, r, &body) {
		status = http.StatusBadRequest
		return
	}

	result, err := h.service.AdjustStudentPoints(id, body.Points, body.Action, body.Reason, body.ActorID)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleSetPointsVisibility(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return
	}

	var body struct {
		Hidden bool   `json:"hidden"`
		Reason string `json:"reason"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := h.service.SetPointsVisibility(id, body.Hidden, body.Reason); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "visibility updated"})
}

func (h *Handler) HandleListSupervisors(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	supervisors, err := h.service.Store.ListUsersByRole("supervisor")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"supervisors": supervisors})
}

func (h *Handler) HandleCreateSupervisor(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	supervisor, err := h.service.CreateSupervisor(body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"supervisor": supervisor})
}

func (h *Handler) HandleDeleteSupervisor(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid supervisor id"})
		return
	}

	if err := h.service.DeleteSupervisor(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "supervisor deleted"})
}

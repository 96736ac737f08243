package handlers

import (
	"net/http"
	"time"

	"github.com/shrimpsizemoose/bensin/internal/models"
)

func (h *Handler) HandleCreateRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusCreated
	defer func() { observe(r, start, status) }()

	if !h.authorized(w, r) {
		status = http.StatusUnauthorized
		return
	}

	var req models.Request
	if !decode(w, r, &req) {
		status = http.StatusBadRequest
		return
	}

	result, err := h.service.CreateRequest(&req)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	requests, err := h.service.Store.ListRequests(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (h *Handler) HandleListStudentRequests(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return
	}

	requests, err := h.service.Store.ListStudentRequests(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (h *Handler) HandleApproveRequest(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, status, map[string]string{"error": "invalid request id"})
		return
	}

	var body struct {
		ReviewerID int64 `json:"reviewer_id"`
	}
	if !decode(w, r, &body) {
		status = http.StatusBadRequest
		return
	}

	req, err := h.service.ApproveRequest(id, body.ReviewerID)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": req})
}

func (h *Handler) HandleRejectRequest(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, status, map[string]string{"error": "invalid request id"})
		return
	}

	var body struct {
		ReviewerID int64  `json:"reviewer_id"`
		Reason     string `json:"reason"`
	}
	if !decode(w, r, &body) {
		status = http.StatusBadRequest
		return
	}

	req, err := h.service.RejectRequest(id, body.ReviewerID, body.Reason)
	if err != nil {
		status = writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": req})
}

package handlers

import (
	"net/http"
	"strconv"
)

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := h.service.LoginByCode(r.Context(), body.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := h.service.LoginAdmin(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	settings, err := h.service.Settings()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

func (h *Handler) HandleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := h.service.UpdateSetting(body.Key, body.Value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "setting updated"})
}

func (h *Handler) HandlePointsLog(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit < 10 {
		limit = 10
	}
	if limit > 500 {
		limit = 500
	}

	entries, err := h.service.Store.ListOperationLog(limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"log": entries})
}

func (h *Handler) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	var week int64
	if raw := r.URL.Query().Get("week"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
			return
		}
		week = parsed
	}

	rows, err := h.service.WeeklyReport(week)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": rows})
}

func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	overview, err := h.service.Store.OverviewStats()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	notifications, err := h.service.Store.ListNotifications(id, 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (h *Handler) HandleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.service.Store.MarkNotificationsRead(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notifications marked read"})
}

func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	count, err := h.service.Store.UnreadNotificationCount(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

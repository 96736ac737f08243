package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/app"
	"github.com/shrimpsizemoose/bensin/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	migrationsDir := service.Config.Database.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}
	if err := service.Store.ApplyMigrations(migrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	h := handlers.New(service)

	http.HandleFunc("POST /api/v1/auth/code", h.HandleLogin)
	http.HandleFunc("POST /api/v1/auth/admin-login", h.HandleAdminLogin)

	http.HandleFunc("GET /api/v1/students", h.HandleListStudents)
	http.HandleFunc("POST /api/v1/students", h.HandleCreateStudent)
	http.HandleFunc("PUT /api/v1/students/{id}", h.HandleUpdateStudent)
	http.HandleFunc("DELETE /api/v1/students/{id}", h.HandleDeleteStudent)
	http.HandleFunc("GET /api/v1/students/{id}/stats", h.HandleStudentStats)
	http.HandleFunc("POST /api/v1/students/{id}/points", h.HandleAdjustStudentPoints)
	http.HandleFunc("POST /api/v1/students/{id}/visibility", h.HandleSetPointsVisibility)
	http.HandleFunc("GET /api/v1/students/{id}/requests", h.HandleListStudentRequests)

	http.HandleFunc("GET /api/v1/supervisors", h.HandleListSupervisors)
	http.HandleFunc("POST /api/v1/supervisors", h.HandleCreateSupervisor)
	http.HandleFunc("DELETE /api/v1/supervisors/{id}", h.HandleDeleteSupervisor)

	http.HandleFunc("GET /api/v1/groups", h.HandleListGroups)
	http.HandleFunc("POST /api/v1/groups", h.HandleCreateGroup)
	http.HandleFunc("GET /api/v1/groups/{id}", h.HandleGroupDetails)
	http.HandleFunc("PUT /api/v1/groups/{id}", h.HandleRenameGroup)
	http.HandleFunc("DELETE /api/v1/groups/{id}", h.HandleDeleteGroup)
	http.HandleFunc("POST /api/v1/groups/{id}/points", h.HandleAdjustGroupPoints)
	http.HandleFunc("POST /api/v1/groups/{id}/percentage", h.HandleAdjustGroupPercentage)

	http.HandleFunc("POST /api/v1/requests", h.HandleCreateRequest)
	http.HandleFunc("GET /api/v1/requests", h.HandleListRequests)
	http.HandleFunc("POST /api/v1/requests/{id}/approve", h.HandleApproveRequest)
	http.HandleFunc("POST /api/v1/requests/{id}/reject", h.HandleRejectRequest)

	http.HandleFunc("GET /api/v1/settings", h.HandleGetSettings)
	http.HandleFunc("PUT /api/v1/settings", h.HandleUpdateSetting)
	http.HandleFunc("GET /api/v1/points-log", h.HandlePointsLog)
	http.HandleFunc("GET /api/v1/reports/weekly", h.HandleWeeklyReport)
	http.HandleFunc("GET /api/v1/overview", h.HandleOverview)

	http.HandleFunc("GET /api/v1/users/{id}/notifications", h.HandleListNotifications)
	http.HandleFunc("POST /api/v1/users/{id}/notifications/read", h.HandleMarkNotificationsRead)
	http.HandleFunc("GET /api/v1/users/{id}/notifications/unread-count", h.HandleUnreadCount)

	http.HandleFunc("GET /healthz", h.HandleHealthz)
	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting bensin server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Bensin server failed: %v", err)
	}
}

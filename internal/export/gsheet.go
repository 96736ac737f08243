// Package export pushes group standings to a Google Sheet on a cron
// schedule, so supervisors can project the leaderboard without touching
// the API.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/bensin/internal/app"
	"github.com/shrimpsizemoose/bensin/internal/fuel"
	"github.com/shrimpsizemoose/bensin/internal/store"
)

type GSheetExporter struct {
	config        *app.Config
	store         store.LedgerStore
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, ledger store.LedgerStore) (*GSheetExporter, error) {
	if !config.GSheet.Enabled {
		return nil, fmt.Errorf("gsheet export is disabled in config")
	}

	svc, err := sheets.NewService(context.Background(), option.WithCredentialsFile(config.GSheet.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	exporter := &GSheetExporter{
		config:        config,
		store:         ledger,
		scheduler:     gocron.NewScheduler(time.UTC),
		sheetsService: svc,
	}

	if _, err := exporter.scheduler.Cron(config.GSheet.Schedule).Do(func() {
		if err := exporter.Export(); err != nil {
			logger.Error.Printf("Standings export failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}

	exporter.scheduler.StartAsync()
	return exporter, nil
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export rewrites the standings block in one update: header, one row
// per group sorted by the store's group order, and a timestamp footer.
func (e *GSheetExporter) Export() error {
	groups, err := e.store.ListGroupSummaries()
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	values := [][]interface{}{
		{"Group", "Students", "Member points", "Direct points", "Total", "Liters"},
	}
	for _, g := range groups {
		tanks := fuel.Quantize(g.TotalPoints)
		values = append(values, []interface{}{
			g.Name,
			g.StudentCount,
			g.MembersPoints,
			g.DirectPoints,
			g.TotalPoints,
			tanks.Liters(),
		})
	}
	values = append(values, []interface{}{
		fmt.Sprintf("UPD: %s", time.Now().UTC().Format("2 January 15:04")),
	})

	writeRange := fmt.Sprintf("%s!A1", e.config.GSheet.SheetName)
	_, err = e.sheetsService.Spreadsheets.Values.Update(
		e.config.GSheet.SheetID,
		writeRange,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	logger.Debug.Printf("Exported standings for %d groups", len(groups))
	return nil
}

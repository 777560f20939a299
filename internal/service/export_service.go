package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gymdesk/internal/models"
)

// ExportVersion is written into every export document
const ExportVersion = "1.0"

// CompletionExport is the JSON document written for a completion export
type CompletionExport struct {
	Version     string                     `json:"version"`
	ExportedAt  time.Time                  `json:"exported_at"`
	ClientID    *int64                     `json:"client_id,omitempty"`
	From        string                     `json:"from,omitempty"`
	To          string                     `json:"to,omitempty"`
	Completions []models.WorkoutCompletion `json:"completions"`
}

// MemberExport is the JSON document written for a member export
type MemberExport struct {
	Version    string                  `json:"version"`
	ExportedAt time.Time               `json:"exported_at"`
	Members    []models.MemberWithUser `json:"members"`
}

// ExportService writes ledger and membership data as JSON documents
type ExportService struct {
	ledger  *LedgerService
	members *MemberService
	logger  *slog.Logger
	now     func() time.Time
}

// NewExportService creates a new export service
func NewExportService(ledger *LedgerService, members *MemberService, logger *slog.Logger) *ExportService {
	return &ExportService{
		ledger:  ledger,
		members: members,
		logger:  logger,
		now:     time.Now,
	}
}

// ExportCompletions writes completions to w. A clientID of 0 exports every client.
func (s *ExportService) ExportCompletions(ctx context.Context, w io.Writer, clientID int64, dr models.DateRange) (int, error) {
	var (
		completions []models.WorkoutCompletion
		err         error
	)
	if clientID != 0 {
		completions, err = s.ledger.ListCompletions(ctx, clientID, dr)
	} else {
		completions, err = s.ledger.ExportCompletions(ctx, dr)
	}
	if err != nil {
		return 0, err
	}
	if completions == nil {
		completions = []models.WorkoutCompletion{}
	}

	doc := CompletionExport{
		Version:     ExportVersion,
		ExportedAt:  s.now().UTC(),
		Completions: completions,
	}
	if clientID != 0 {
		doc.ClientID = &clientID
	}
	if !dr.From.IsZero() {
		doc.From = models.FormatDate(dr.From)
	}
	if !dr.To.IsZero() {
		doc.To = models.FormatDate(dr.To)
	}

	if err := writeJSON(w, doc); err != nil {
		return 0, fmt.Errorf("failed to encode completions: %w", err)
	}
	return len(completions), nil
}

// ExportMembers writes every member with its account to w
func (s *ExportService) ExportMembers(ctx context.Context, w io.Writer) (int, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return 0, err
	}
	if members == nil {
		members = []models.MemberWithUser{}
	}

	doc := MemberExport{
		Version:    ExportVersion,
		ExportedAt: s.now().UTC(),
		Members:    members,
	}
	if err := writeJSON(w, doc); err != nil {
		return 0, fmt.Errorf("failed to encode members: %w", err)
	}
	return len(members), nil
}

// ToFile creates outputPath (and its directory) and runs export against it
func (s *ExportService) ToFile(outputPath string, export func(io.Writer) (int, error)) (int, error) {
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	n, err := export(file)
	if err != nil {
		return 0, err
	}
	s.logger.Info("export written", "path", outputPath, "records", n)
	return n, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
	"github.com/lingomarket/lingomarket-api/pkg/export"
	"github.com/lingomarket/lingomarket-api/pkg/storage"
)

type earningsReader interface {
	ListPaidEarnings(ctx context.Context, trainerID string) ([]models.Booking, error)
}

// EarningsStatement is the metadata returned after rendering a statement.
type EarningsStatement struct {
	ID          string    `json:"id"`
	TrainerID   string    `json:"trainer_id"`
	Format      string    `json:"format"`
	TotalAmount float64   `json:"total_amount"`
	RowCount    int       `json:"row_count"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ExportService renders trainer earnings statements to CSV or PDF, stores
// them on disk and hands out signed download tokens.
type ExportService struct {
	bookings earningsReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	store    *storage.StatementStore
	signer   *storage.URLSigner
	enabled  bool
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(bookings earningsReader, store *storage.StatementStore, signer *storage.URLSigner, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		store:    store,
		signer:   signer,
		enabled:  enabled,
		logger:   logger,
	}
}

// GenerateEarningsStatement renders every settled booking of the trainer into
// a statement file. format is "csv" or "pdf".
func (s *ExportService) GenerateEarningsStatement(ctx context.Context, trainerID, format string) (*EarningsStatement, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	format = strings.ToLower(format)
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	bookings, err := s.bookings.ListPaidEarnings(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load earnings")
	}

	table, total := earningsTable(bookings)
	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(table)
	case "pdf":
		payload, err = s.pdf.Render(table)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}

	statementID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s.%s", trainerID, statementID, format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store statement")
	}

	token, expiresAt, err := s.signer.Sign(statementID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.logger.Info("earnings statement generated",
		zap.String("trainer_id", trainerID),
		zap.String("statement_id", statementID),
		zap.String("format", format),
		zap.Int("rows", len(bookings)))

	return &EarningsStatement{
		ID:          statementID,
		TrainerID:   trainerID,
		Format:      format,
		TotalAmount: total,
		RowCount:    len(bookings),
		DownloadURL: token,
		ExpiresAt:   expiresAt,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// OpenStatement validates the signed token and opens the statement file.
func (s *ExportService) OpenStatement(token string) (*os.File, string, error) {
	if !s.enabled {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	_, relPath, _, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "statement not found")
	}
	return file, relPath, nil
}

func earningsTable(bookings []models.Booking) (export.Table, float64) {
	table := export.Table{
		Title:   "Earnings Statement",
		Columns: []string{"Booking ID", "Student", "Settled At", "Method", "Amount", "Currency"},
		Rows:    make([][]string, 0, len(bookings)),
	}
	var total float64
	for _, b := range bookings {
		amount := b.Amount
		currency := ""
		if b.PaidAmount != nil {
			amount = *b.PaidAmount
		}
		if b.PaidCurrency != nil {
			currency = *b.PaidCurrency
		}
		settledAt := ""
		if b.PaymentSettledAt != nil {
			settledAt = b.PaymentSettledAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			b.ID,
			b.StudentName,
			settledAt,
			string(b.PaymentMethod),
			fmt.Sprintf("%.2f", amount),
			currency,
		})
		total += amount
	}
	table.Summary = []string{"Total", "", "", "", fmt.Sprintf("%.2f", total), ""}
	return table, total
}

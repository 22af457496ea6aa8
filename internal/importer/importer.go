// Package importer bulk-loads semi-structured CSV exports into the catalog.
// Rows are validated and staged in memory, then committed with a single
// insert-or-ignore bulk call: malformed rows never abort the batch, a store
// failure aborts it with nothing committed.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"hardware-catalog/internal/domain"
)

// Positional columns in legacy exports. Extra columns are ignored.
const (
	codeIndex        = 0
	nameIndex        = 1
	descriptionIndex = 2
	priceIndex       = 3
	minColumns       = 4
)

// Rejection reasons reported per row.
const (
	ReasonInsufficientColumns = "insufficient columns"
	ReasonInvalidPrice        = "invalid price"
	ReasonMissingCode         = "missing code"
	ReasonMissingName         = "missing name"
	ReasonMalformedRow        = "malformed row"
)

// BulkWriter is the slice of the catalog store the importer needs.
type BulkWriter interface {
	BulkInsertIgnoreDuplicates(ctx context.Context, rows []domain.Product) (int64, error)
}

// RejectedRow identifies a skipped data row (1-based, header excluded).
type RejectedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Summary reports per-row outcomes of one batch.
type Summary struct {
	Committed  int           `json:"committed"`
	Duplicates int           `json:"duplicates"`
	Rejected   []RejectedRow `json:"rejectedRows"`
}

// CSVImporter decodes, validates and bulk-loads product rows.
type CSVImporter struct {
	catalog BulkWriter
	logger  *log.Logger
}

func NewCSVImporter(catalog BulkWriter, logger *log.Logger) *CSVImporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CSVImporter{catalog: catalog, logger: logger}
}

// Run ingests one raw CSV payload. The returned summary counts committed
// rows, rows skipped because their code already existed (in the store or
// earlier in the batch), and per-row rejections. A non-nil error means the
// batch was aborted with zero commits.
func (imp *CSVImporter) Run(ctx context.Context, raw []byte) (Summary, error) {
	var sum Summary

	reader := csv.NewReader(strings.NewReader(decodeText(raw)))
	reader.FieldsPerRecord = -1 // rows may have extra or trailing columns

	// Header row is discarded.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		return sum, fmt.Errorf("read header: %w", err)
	}

	var staged []domain.Product
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			imp.logger.Printf("importer: row %d rejected: %v", row, err)
			sum.Rejected = append(sum.Rejected, RejectedRow{Row: row, Reason: ReasonMalformedRow})
			continue
		}
		if len(record) < minColumns {
			sum.Rejected = append(sum.Rejected, RejectedRow{Row: row, Reason: ReasonInsufficientColumns})
			continue
		}

		code := strings.TrimPrefix(strings.TrimSpace(record[codeIndex]), "\uFEFF")
		name := strings.TrimSpace(record[nameIndex])
		price, err := parsePrice(record[priceIndex])
		switch {
		case err != nil:
			sum.Rejected = append(sum.Rejected, RejectedRow{Row: row, Reason: ReasonInvalidPrice})
			continue
		case code == "":
			sum.Rejected = append(sum.Rejected, RejectedRow{Row: row, Reason: ReasonMissingCode})
			continue
		case name == "":
			sum.Rejected = append(sum.Rejected, RejectedRow{Row: row, Reason: ReasonMissingName})
			continue
		}

		staged = append(staged, domain.Product{
			Code:        code,
			Name:        name,
			Description: strings.TrimSpace(record[descriptionIndex]),
			Price:       price,
		})
	}

	if len(staged) == 0 {
		imp.logger.Printf("importer: no valid rows in batch (rejected=%d)", len(sum.Rejected))
		return sum, nil
	}

	inserted, err := imp.catalog.BulkInsertIgnoreDuplicates(ctx, staged)
	if err != nil {
		return Summary{}, fmt.Errorf("bulk insert: %w", err)
	}

	sum.Committed = int(inserted)
	sum.Duplicates = len(staged) - sum.Committed
	imp.logger.Printf("importer: committed=%d duplicates=%d rejected=%d", sum.Committed, sum.Duplicates, len(sum.Rejected))
	return sum, nil
}

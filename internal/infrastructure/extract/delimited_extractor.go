// Package extract parses source document files into raw line items and
// enumerates the ingestion source directory.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/invrecon/backend/internal/application/ingestion"
	"github.com/shopspring/decimal"
)

// metadataSeparator splits the invoice header block from the line block
const metadataSeparator = "---"

// DelimitedExtractor parses pipe-delimited invoice files. Each line is
// DESCRIPTION|QTY|UNIT|UNIT_COST with optional LINE_TOTAL and CODE_HINT
// columns. Blank lines and # comments are skipped.
type DelimitedExtractor struct{}

// NewDelimitedExtractor creates a new DelimitedExtractor
func NewDelimitedExtractor() *DelimitedExtractor {
	return &DelimitedExtractor{}
}

// Ensure DelimitedExtractor implements LineExtractor
var _ ingestion.LineExtractor = (*DelimitedExtractor)(nil)

// Extract parses the source file bytes into raw lines
func (e *DelimitedExtractor) Extract(ctx context.Context, src ingestion.SourceDescriptor) ([]ingestion.ExtractedLine, error) {
	body := string(src.FileBytes)
	if idx := strings.Index(body, "\n"+metadataSeparator+"\n"); idx >= 0 {
		body = body[idx+len(metadataSeparator)+2:]
	}

	var lines []ingestion.ExtractedLine
	for i, raw := range strings.Split(body, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		line, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLine(text string) (ingestion.ExtractedLine, error) {
	fields := strings.Split(text, "|")
	if len(fields) < 4 || len(fields) > 6 {
		return ingestion.ExtractedLine{}, fmt.Errorf("expected 4 to 6 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	description := fields[0]
	if description == "" {
		return ingestion.ExtractedLine{}, fmt.Errorf("empty description")
	}

	quantity, err := decimal.NewFromString(fields[1])
	if err != nil {
		return ingestion.ExtractedLine{}, fmt.Errorf("invalid quantity %q: %w", fields[1], err)
	}
	unitCost, err := decimal.NewFromString(fields[3])
	if err != nil {
		return ingestion.ExtractedLine{}, fmt.Errorf("invalid unit cost %q: %w", fields[3], err)
	}

	lineTotal := quantity.Mul(unitCost)
	if len(fields) >= 5 && fields[4] != "" {
		lineTotal, err = decimal.NewFromString(fields[4])
		if err != nil {
			return ingestion.ExtractedLine{}, fmt.Errorf("invalid line total %q: %w", fields[4], err)
		}
	}

	codeHint := ""
	if len(fields) == 6 {
		codeHint = fields[5]
	}

	return ingestion.ExtractedLine{
		RawDescription: description,
		Quantity:       quantity,
		Unit:           fields[2],
		UnitCost:       unitCost,
		LineTotal:      lineTotal,
		ItemCodeHint:   codeHint,
	}, nil
}

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/application/ingestion"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FilesystemSourceLister enumerates .inv files under a source directory.
// Each file carries a key:value metadata header, a --- separator, then the
// delimited line block the extractor understands.
type FilesystemSourceLister struct {
	dir    string
	logger *zap.Logger
}

// NewFilesystemSourceLister creates a new FilesystemSourceLister
func NewFilesystemSourceLister(dir string, logger *zap.Logger) *FilesystemSourceLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemSourceLister{dir: dir, logger: logger}
}

// Ensure FilesystemSourceLister implements SourceLister
var _ ingestion.SourceLister = (*FilesystemSourceLister)(nil)

// List reads every source file in the directory and keeps those whose
// invoice date falls inside [from, to]. A non-empty invoiceNumber narrows
// the result to that single invoice. Unparseable files are skipped with a
// warning so one bad file does not block the batch.
func (l *FilesystemSourceLister) List(ctx context.Context, tenantID uuid.UUID, from, to time.Time, invoiceNumber string) ([]ingestion.SourceDescriptor, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", l.dir, err)
	}

	var sources []ingestion.SourceDescriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".inv") {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		src, err := l.readSource(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable source file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}

		if src.InvoiceDate.Before(from) || src.InvoiceDate.After(to) {
			continue
		}
		if invoiceNumber != "" && src.InvoiceNumber != invoiceNumber {
			continue
		}
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if !sources[i].InvoiceDate.Equal(sources[j].InvoiceDate) {
			return sources[i].InvoiceDate.Before(sources[j].InvoiceDate)
		}
		return sources[i].InvoiceNumber < sources[j].InvoiceNumber
	})
	return sources, nil
}

func (l *FilesystemSourceLister) readSource(path string) (ingestion.SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingestion.SourceDescriptor{}, err
	}

	src := ingestion.SourceDescriptor{
		FileBytes:  data,
		StorageRef: path,
	}

	header := string(data)
	if idx := strings.Index(header, "\n"+metadataSeparator+"\n"); idx >= 0 {
		header = header[:idx]
	}

	for _, raw := range strings.Split(header, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "vendor":
			src.Vendor = value
		case "invoice_number":
			src.InvoiceNumber = value
		case "invoice_date":
			d, err := time.Parse(time.DateOnly, value)
			if err != nil {
				return ingestion.SourceDescriptor{}, fmt.Errorf("invalid invoice_date %q: %w", value, err)
			}
			src.InvoiceDate = d
		case "total_amount":
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return ingestion.SourceDescriptor{}, fmt.Errorf("invalid total_amount %q: %w", value, err)
			}
			src.TotalAmount = amount
		case "currency":
			src.Currency = value
		}
	}

	return src, nil
}

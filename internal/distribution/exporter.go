package distribution

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesops_backend/internal/adapters/storage"
	leadsrepo "salesops_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// LeadDetailSource resolves assigned lead ids into exportable records.
type LeadDetailSource interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]leadsrepo.Lead, error)
}

// Exporter writes one CSV artifact per destination and stores it in object
// storage so supervisors can hand the file to the advisor.
type Exporter struct {
	leads   LeadDetailSource
	store   storage.StorageService
	bucket  string
	nowFunc func() time.Time
}

func NewExporter(leads LeadDetailSource, store storage.StorageService, bucket string) *Exporter {
	return &Exporter{
		leads:   leads,
		store:   store,
		bucket:  bucket,
		nowFunc: time.Now,
	}
}

var exportHeader = []string{"nombre", "cuil", "telefonos", "localidad", "obra_social", "edad"}

// Export uploads the destination's leads as CSV and returns the object key.
func (e *Exporter) Export(ctx context.Context, runID uuid.UUID, advisor Advisor, leadIDs []uuid.UUID) (string, error) {
	if len(leadIDs) == 0 {
		return "", nil
	}

	leads, err := e.leads.ListByIDs(ctx, leadIDs)
	if err != nil {
		return "", fmt.Errorf("resolve export leads: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return "", err
	}
	for _, lead := range leads {
		age := ""
		if lead.Age != nil {
			age = strconv.Itoa(*lead.Age)
		}
		record := []string{
			lead.FullName,
			lead.TaxID,
			strings.Join(lead.Phones, ";"),
			lead.Locality,
			lead.ObraSocial,
			age,
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	key := e.objectKey(runID, advisor)
	if err := e.store.UploadFile(ctx, e.bucket, key, "text/csv", &buf, int64(buf.Len())); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	return key, nil
}

// DownloadURL returns a presigned link for a stored export.
func (e *Exporter) DownloadURL(ctx context.Context, key string) (*storage.PresignedURL, error) {
	return e.store.GenerateDownloadURL(ctx, e.bucket, key)
}

func (e *Exporter) objectKey(runID uuid.UUID, advisor Advisor) string {
	day := e.nowFunc().Format("2006-01-02")
	name := slugify(advisor.FullName)
	if name == "" {
		name = advisor.ID.String()
	}
	return fmt.Sprintf("exports/%s/%s-%s.csv", day, name, runID.String()[:8])
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/JonMunkholm/equipreport/internal/logging"
	"github.com/JonMunkholm/equipreport/internal/store"
)

// IngestTimeout is the maximum duration for one ingest, parse through store.
var IngestTimeout = 2 * time.Minute

// Repository persists artifacts under an owner with bounded retention.
type Repository interface {
	Store(ctx context.Context, ownerID, filename string, rows []equipment.ValidatedRow, summary equipment.Summary) (store.StoreResult, error)
	List(ctx context.Context, ownerID string) ([]equipment.ArtifactSummary, error)
	Get(ctx context.Context, ownerID, id string) (equipment.Artifact, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Renderer turns an artifact into document bytes.
type Renderer interface {
	Render(ctx context.Context, a equipment.Artifact) ([]byte, error)
}

// Disposition selects how a client should present a rendered report.
type Disposition string

const (
	DispositionAttachment Disposition = "attachment"
	DispositionInline     Disposition = "inline"
)

// ParseDisposition maps a user-supplied value to a Disposition.
// Anything other than "inline" is treated as a download.
func ParseDisposition(s string) Disposition {
	if Disposition(s) == DispositionInline {
		return DispositionInline
	}
	return DispositionAttachment
}

// IngestResult is returned by a successful Ingest.
type IngestResult struct {
	Dataset  equipment.ArtifactSummary `json:"dataset"`
	Evicted  []string                  `json:"evicted,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

// Report is a rendered document plus the metadata a transport needs to
// deliver it.
type Report struct {
	Body        []byte
	Filename    string
	ContentType string
	Disposition Disposition
}

// ContentDisposition returns the Content-Disposition header value.
func (r *Report) ContentDisposition() string {
	return mime.FormatMediaType(string(r.Disposition), map[string]string{"filename": r.Filename})
}

// Service ties ingestion, summarization, persistence and rendering together.
type Service struct {
	repo     Repository
	renderer Renderer
	limiter  *UploadLimiter
}

// NewService creates a Service. A nil limiter gets the defaults.
func NewService(repo Repository, renderer Renderer, limiter *UploadLimiter) *Service {
	if limiter == nil {
		limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	return &Service{
		repo:     repo,
		renderer: renderer,
		limiter:  limiter,
	}
}

// Ingest validates, summarizes and stores one upload for ownerID.
// Validation failures return *equipment.ValidationError and store nothing.
func (s *Service) Ingest(ctx context.Context, ownerID, filename string, r io.Reader) (*IngestResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ownerContext(ctx, ownerID), IngestTimeout)
	defer cancel()

	logger := logging.WithFields(ctx, append([]any{"filename", filename}, sourceAttrs(ctx)...)...)
	start := time.Now()

	counter := NewCountingReader(r)
	rows, err := Ingest(counter)
	if err != nil {
		logger.Info("upload rejected", "error", err)
		return nil, err
	}

	summary, err := Summarize(rows)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	res, err := s.repo.Store(ctx, ownerID, filename, rows, summary)
	if err != nil {
		logger.Error("store dataset failed", "error", err)
		return nil, err
	}

	logger.Info("dataset ingested",
		"dataset_id", res.Artifact.ID,
		"rows", summary.TotalCount,
		"bytes", counter.BytesRead,
		"types", summary.TotalTypes,
		"evicted", len(res.Evicted),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &IngestResult{
		Dataset:  res.Artifact,
		Evicted:  res.Evicted,
		Warnings: res.Warnings,
	}, nil
}

// IngestBytes is Ingest over an in-memory file.
func (s *Service) IngestBytes(ctx context.Context, ownerID, filename string, data []byte) (*IngestResult, error) {
	return s.Ingest(ctx, ownerID, filename, bytes.NewReader(data))
}

// ListArtifacts returns ownerID's datasets, newest first.
func (s *Service) ListArtifacts(ctx context.Context, ownerID string) ([]equipment.ArtifactSummary, error) {
	return s.repo.List(ctx, ownerID)
}

// GetArtifact returns one dataset with its rows, or equipment.ErrNotFound.
func (s *Service) GetArtifact(ctx context.Context, ownerID, id string) (equipment.Artifact, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// DeleteArtifact removes one dataset, or returns equipment.ErrNotFound.
func (s *Service) DeleteArtifact(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logging.WithFields(ownerContext(ctx, ownerID), "dataset_id", id).Info("dataset deleted")
	return nil
}

// RenderReport renders a PDF report for a and labels it for delivery.
func (s *Service) RenderReport(ctx context.Context, a equipment.Artifact, d Disposition) (*Report, error) {
	body, err := s.renderer.Render(ctx, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Body:        body,
		Filename:    ReportFilename(a.Filename),
		ContentType: "application/pdf",
		Disposition: d,
	}, nil
}

// ReportFilename derives the suggested download name for a source file.
func ReportFilename(source string) string {
	if source == "" {
		source = "dataset"
	}
	return source + "_report.pdf"
}

// UploadLimiterStatus reports the ingest limiter state.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

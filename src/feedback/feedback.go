// Package feedback implements the Chunk Feedback Loop (C11): accepts
// user-reported field mismatches against a completed job, creates an
// ErrorReport plus a learning Chunk, and exposes the priority-field
// ranking the Page Parser (C3) consults.
package feedback

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// Service resolves job-scoped mismatch reports into persisted
// ErrorReports and Chunks, grounded on §4.11.
type Service struct {
	store store.PerformanceStore
	jobs  jobstore.JobStore
}

// New builds a Service over the Performance Store and Job Store.
func New(perfStore store.PerformanceStore, jobs jobstore.JobStore) *Service {
	return &Service{store: perfStore, jobs: jobs}
}

// ReportMismatch resolves jobID, extracts the field's page-structure
// snippet from the job's completed Report, and creates an ErrorReport
// plus a Chunk against the field.
func (s *Service) ReportMismatch(ctx context.Context, jobID, field, reportedValue string) (*models.ErrorReport, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if err == jobstore.ErrNotFound {
			return nil, apperr.NewInputError("report_mismatch", "job not found")
		}
		return nil, apperr.NewInternalError("report_mismatch", "failed to resolve job", err)
	}
	if job.Status != models.JobCompleted || job.Result == nil {
		return nil, apperr.NewInputError("report_mismatch", "job has no completed result to report against")
	}

	report := models.ErrorReport{
		ID:            uuid.NewString(),
		JobID:         jobID,
		Field:         field,
		ReportedValue: reportedValue,
		Status:        "open",
	}
	if err := s.store.CreateErrorReport(ctx, report); err != nil {
		return nil, apperr.NewInternalError("report_mismatch", "failed to persist error report", err)
	}

	chunk := buildChunk(field, job)
	if err := s.store.AddChunk(ctx, field, chunk); err != nil {
		return nil, apperr.NewInternalError("report_mismatch", "failed to persist learning chunk", err)
	}

	return &report, nil
}

// ResolveReport flips a report's status to resolved. Chunks persist as
// learning artifacts even after their originating report is resolved.
func (s *Service) ResolveReport(ctx context.Context, reportID string) error {
	return s.store.ResolveErrorReport(ctx, reportID)
}

// PriorityFields returns fields ordered by descending open-report
// count, consulted by the Page Parser's fallback chain.
func (s *Service) PriorityFields(ctx context.Context, limit int) ([]string, error) {
	return s.store.PriorityFields(ctx, limit)
}

// semanticFieldFor mirrors the Validator's field→SemanticField table,
// since both need to pull the page structure's related classes for an
// arbitrary reported field name.
var semanticFieldFor = map[string]models.SemanticField{
	"name":                models.SemanticName,
	"sale_price":          models.SemanticPrice,
	"original_price":      models.SemanticPrice,
	"price":               models.SemanticPrice,
	"review_count":        models.SemanticReview,
	"rating":              models.SemanticReview,
	"reviews":             models.SemanticReview,
	"image_count":         models.SemanticImage,
	"images":              models.SemanticImage,
	"description_length":  models.SemanticDescription,
	"description":         models.SemanticDescription,
	"seller":              models.SemanticSeller,
	"shipping":            models.SemanticShipping,
	"coupon":              models.SemanticCoupon,
	"points":              models.SemanticPoints,
}

func buildChunk(field string, job *models.Job) models.Chunk {
	var structure *models.PageStructure
	var url, code string
	if job.Result.Product != nil {
		structure = job.Result.Product.PageStructure
		url, code = job.Result.Product.URL, job.Result.Product.Code
	} else if job.Result.Shop != nil {
		structure = job.Result.Shop.PageStructure
		url, code = job.Result.Shop.URL, job.Result.Shop.ID
	}

	chunk := models.Chunk{
		Field:            field,
		ExtractionMethod: fmt.Sprintf("user_report:%s", field),
		ContextURL:       url,
		ContextCode:      code,
		ElementPresent:   structure != nil,
	}
	if structure != nil {
		chunk.ClassFrequency = structure.ClassFrequency
		if sf, ok := semanticFieldFor[field]; ok {
			for _, cf := range structure.SemanticStructure[sf] {
				chunk.RelatedClasses = append(chunk.RelatedClasses, cf.Class)
			}
		}
	}
	return chunk
}

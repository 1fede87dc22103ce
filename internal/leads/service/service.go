// Package service implements lead record management on top of the repository.
package service

import (
	"context"
	"errors"

	"salesops_backend/internal/leads/repository"
	"salesops_backend/internal/leads/transport"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (repository.Lead, error) {
	params := repository.CreateLeadParams{
		FullName:   req.FullName,
		TaxID:      req.TaxID,
		Phones:     normalizePhones(req.Phones),
		Locality:   req.Locality,
		ObraSocial: req.ObraSocial,
		Age:        req.Age,
	}
	if req.SourceFile != "" {
		params.SourceFile = &req.SourceFile
	}

	lead, err := s.repo.Create(ctx, params)
	if errors.Is(err, repository.ErrDuplicateTaxID) {
		return repository.Lead{}, apperr.Conflict(err.Error())
	}
	return lead, err
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound(err.Error())
	}
	return lead, err
}

func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) ([]repository.Lead, error) {
	return s.repo.List(ctx, repository.ListFilter{
		Status:     req.Status,
		ObraSocial: req.ObraSocial,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

// ListMine returns the leads currently assigned to the given advisor.
func (s *Service) ListMine(ctx context.Context, advisorID uuid.UUID) ([]repository.Lead, error) {
	return s.repo.List(ctx, repository.ListFilter{AssignedTo: &advisorID})
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (repository.Lead, error) {
	lead, err := s.repo.Update(ctx, id, repository.UpdateLeadParams{
		FullName:   req.FullName,
		Phones:     normalizePhones(req.Phones),
		Locality:   req.Locality,
		ObraSocial: req.ObraSocial,
		Age:        req.Age,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound(err.Error())
	}
	return lead, err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(err.Error())
	}
	return err
}

func (s *Service) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]repository.Interaction, error) {
	if _, err := s.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListInteractions(ctx, leadID)
}

// ImportRecord is one row of a bulk upload.
type ImportRecord struct {
	FullName   string
	TaxID      string
	Phones     []string
	Locality   string
	ObraSocial string
	Age        *int
}

// ImportBatch inserts uploaded records under a shared batch id. Duplicate tax
// ids are counted and skipped rather than aborting the batch.
func (s *Service) ImportBatch(ctx context.Context, sourceFile string, records []ImportRecord) (transport.ImportResult, error) {
	result := transport.ImportResult{BatchID: uuid.New()}

	for _, rec := range records {
		_, err := s.repo.Create(ctx, repository.CreateLeadParams{
			FullName:   rec.FullName,
			TaxID:      rec.TaxID,
			Phones:     normalizePhones(rec.Phones),
			Locality:   rec.Locality,
			ObraSocial: rec.ObraSocial,
			Age:        rec.Age,
			SourceFile: &sourceFile,
			BatchID:    &result.BatchID,
		})
		switch {
		case errors.Is(err, repository.ErrDuplicateTaxID):
			result.Duplicates++
		case err != nil:
			result.Failed++
		default:
			result.Imported++
		}
	}

	return result, nil
}

func normalizePhones(phones []string) []string {
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		normalized := phone.NormalizeE164(p)
		if normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

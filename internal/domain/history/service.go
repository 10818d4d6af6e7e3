package history

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

// Service exposes the per-user summary history.
type Service interface {
	Save(ctx context.Context, owner string, req SaveRequest) (string, error)
	List(ctx context.Context, owner string) ([]Record, error)
	Get(ctx context.Context, owner, id string) (Record, error)
}

type service struct {
	repo     Repository
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewService is a wire provider for the history domain.
func NewService(repo Repository, recorder metrics.Recorder, logger *slog.Logger) Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &service{repo: repo, recorder: recorder, logger: logger.With("component", "history.service")}
}

func (s *service) Save(ctx context.Context, owner string, req SaveRequest) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", apperrors.Wrap(apperrors.CodeUnauthorized, "Authentication required", nil)
	}
	if strings.TrimSpace(req.Transcript) == "" || strings.TrimSpace(req.Summary) == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "Transcript and summary are required", nil)
	}

	id, err := s.repo.Append(ctx, Record{
		OwnerID:    owner,
		Transcript: req.Transcript,
		Prompt:     req.Prompt,
		Summary:    req.Summary,
	})
	if err != nil {
		s.recorder.RecordHistoryWrite(metrics.OutcomeFailure)
		s.logger.Error("failed to save summary", "error", err)
		return "", asStoreError(err, "Failed to save summary")
	}
	s.recorder.RecordHistoryWrite(metrics.OutcomeSuccess)
	s.logger.Info("summary saved", "id", id)
	return id, nil
}

func (s *service) List(ctx context.Context, owner string) ([]Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "Authentication required", nil)
	}
	records, err := s.repo.ListFor(ctx, owner)
	if err != nil {
		s.logger.Error("failed to list summaries", "error", err)
		return nil, asStoreError(err, "Failed to fetch summaries")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *service) Get(ctx context.Context, owner, id string) (Record, error) {
	if strings.TrimSpace(owner) == "" {
		return Record{}, apperrors.Wrap(apperrors.CodeUnauthorized, "Authentication required", nil)
	}
	record, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load summary", "id", id, "error", err)
		return Record{}, asStoreError(err, "Failed to fetch summary")
	}
	// Records owned by someone else are indistinguishable from missing ones.
	if !ok || record.OwnerID != owner {
		return Record{}, apperrors.Wrap(apperrors.CodeNotFound, "Summary not found", nil)
	}
	return record, nil
}

// asStoreError keeps configuration errors intact and tags everything else as a store failure.
func asStoreError(err error, message string) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStore, message, err)
}

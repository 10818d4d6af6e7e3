package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

const msgUnsupportedType = "Unsupported file type. Please upload a .txt, .vtt, .srt or .md transcript"

// Service turns uploaded files into transcript text.
type Service interface {
	Ingest(ctx context.Context, upload Upload) (Result, error)
}

type service struct {
	cfg     Config
	archive Archive
	clock   util.Clock
	logger  *slog.Logger
}

// NewService constructs the intake service. A nil archive disables archiving.
func NewService(cfg Config, archive Archive, clock util.Clock, logger *slog.Logger) Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &service{
		cfg:     cfg,
		archive: archive,
		clock:   clock.OrDefault(),
		logger:  logger.With("component", "transcript.service"),
	}
}

func (s *service) Ingest(ctx context.Context, upload Upload) (Result, error) {
	size := int64(len(upload.Content))
	if size == 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "File is empty", nil)
	}
	if size > s.cfg.MaxBytes {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("File exceeds the maximum size of %d bytes", s.cfg.MaxBytes), nil)
	}
	if !acceptable(upload.Filename, upload.ContentType) {
		return Result{}, apperrors.Wrap(apperrors.CodeUnsupportedMedia, msgUnsupportedType, nil)
	}
	if !utf8.Valid(upload.Content) {
		return Result{}, apperrors.Wrap(apperrors.CodeUnsupportedMedia, "File is not valid UTF-8 text", nil)
	}

	filename := sanitizeFilename(upload.Filename)
	text := extractText(filename, upload.Content)
	if text == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "File contains no transcript text", nil)
	}

	result := Result{Transcript: text, Filename: filename, Size: size}
	if s.archive != nil {
		key := s.archiveKey(filename)
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		if err := s.archive.Put(ctx, key, upload.Content, contentType); err != nil {
			s.logger.Warn("transcript archive failed", "key", key, "error", err)
		} else {
			result.ArchiveKey = key
		}
	}
	s.logger.Info("transcript ingested", "filename", filename, "size", size, "archived", result.ArchiveKey != "")
	return result, nil
}

func (s *service) archiveKey(filename string) string {
	now := s.clock().UTC()
	return fmt.Sprintf("transcripts/%04d/%02d/%s-%s", now.Year(), int(now.Month()), uuid.NewString(), filename)
}

package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxSaveAttempts = 3

// mutateFile loads the file, applies fn and saves the whole document with a
// revision check. When someone else saved in between, fn runs again on the
// fresh copy, so fn must derive everything from the file it is given.
func mutateFile(ctx context.Context, files storage.FileStorage, m *metrics.Metrics, log zerolog.Logger,
	id uuid.UUID, fn func(file *entity.File) error) (*entity.File, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		file, err := files.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := fn(file); err != nil {
			return nil, entityError(err)
		}

		err = files.UpdateFile(ctx, file)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, storage.ErrRevisionConflict) {
			return nil, err
		}

		m.SaveConflict()
		log.Warn().Str("fileId", id.String()).Int("attempt", attempt).Msg("file saved concurrently, retrying")
	}

	return nil, appError.Conflict("Document was modified concurrently, please retry")
}

func entityError(err error) error {
	switch {
	case errors.Is(err, entity.ErrAnnotationNotFound):
		return appError.NotFound("Annotation not found")
	case errors.Is(err, entity.ErrCommentNotFound):
		return appError.NotFound("Comment not found")
	case errors.Is(err, entity.ErrEmptyCommentText):
		return appError.BadRequest("Comment text is required")
	case errors.Is(err, entity.ErrInvalidCoordinates):
		return appError.BadRequest("Annotation x and y coordinates are required")
	}
	return err
}

func isNotFound(err error) bool {
	return appError.CodeOf(err) == 404
}

func canManage(user *entity.User, ownerID uuid.UUID) bool {
	return user != nil && (user.ID == ownerID || user.IsAdmin())
}

package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthorInput is who the caller claims to be. A non-nil UserID wins over
// GuestName; avatar fields are only used when the user has none stored.
type AuthorInput struct {
	UserID      *uuid.UUID
	GuestName   string
	Avatar      string
	AvatarColor string
}

type CommentInput struct {
	Author AuthorInput
	Text   string
}

type annotations struct {
	fileStorage storage.FileStorage
	userStorage storage.UserStorage
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

type AnnotationService interface {
	AddAnnotation(ctx context.Context, fileID uuid.UUID, x, y *float64, comments []CommentInput) (*entity.Annotation, error)
	GetComments(ctx context.Context, fileID uuid.UUID, annotationID int) ([]entity.Comment, error)
	AddComment(ctx context.Context, fileID uuid.UUID, annotationID int, in CommentInput) (*entity.Comment, error)
	UpdateComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int, text string) (*entity.Comment, error)
	DeleteComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int) error
	ResolveAnnotation(ctx context.Context, requester *entity.User, fileID uuid.UUID, annotationID int, resolved bool) (*entity.Annotation, error)
	ApproveDocument(ctx context.Context, fileID uuid.UUID, author AuthorInput) (*entity.File, error)
}

func NewAnnotationService(fileStorage storage.FileStorage, userStorage storage.UserStorage, m *metrics.Metrics, log zerolog.Logger) AnnotationService {
	return &annotations{
		fileStorage: fileStorage,
		userStorage: userStorage,
		metrics:     m,
		log:         log,
	}
}

// commentAuthor resolves the author before the file is touched. Unknown
// users are an error for comments.
func (an *annotations) commentAuthor(ctx context.Context, in AuthorInput) (entity.Comment, error) {
	if in.UserID == nil {
		return entity.Comment{
			Author:      entity.GuestAuthor(in.GuestName),
			Avatar:      in.Avatar,
			AvatarColor: in.AvatarColor,
		}, nil
	}

	user, err := an.userStorage.GetUserByID(ctx, *in.UserID)
	if err != nil {
		if isNotFound(err) {
			return entity.Comment{}, appError.NotFound("User not found")
		}
		return entity.Comment{}, err
	}
	return entity.Comment{
		Author:      entity.UserAuthor(user.ID),
		Avatar:      firstNonEmpty(user.Avatar, in.Avatar),
		AvatarColor: firstNonEmpty(user.AvatarColor, in.AvatarColor),
	}, nil
}

// requireText rejects blank comment text before any document is loaded.
func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return entityError(entity.ErrEmptyCommentText)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (an *annotations) AddAnnotation(ctx context.Context, fileID uuid.UUID, x, y *float64, comments []CommentInput) (*entity.Annotation, error) {
	if x == nil || y == nil {
		return nil, appError.BadRequest("Annotation x and y coordinates are required")
	}

	initial := make([]entity.Comment, 0, len(comments))
	for _, in := range comments {
		c, err := an.commentAuthor(ctx, in.Author)
		if err != nil {
			return nil, err
		}
		c.Text = in.Text
		initial = append(initial, c)
	}

	var created entity.Annotation
	_, err := mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		var err error
		created, err = file.AddAnnotation(*x, *y, initial, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	an.metrics.AnnotationCreated()
	return &created, nil
}

func (an *annotations) GetComments(ctx context.Context, fileID uuid.UUID, annotationID int) ([]entity.Comment, error) {
	file, err := an.fileStorage.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	annotation, err := file.Annotation(annotationID)
	if err != nil {
		return nil, entityError(err)
	}
	return annotation.Comments, nil
}

func (an *annotations) AddComment(ctx context.Context, fileID uuid.UUID, annotationID int, in CommentInput) (*entity.Comment, error) {
	if err := requireText(in.Text); err != nil {
		return nil, err
	}
	comment, err := an.commentAuthor(ctx, in.Author)
	if err != nil {
		return nil, err
	}
	comment.Text = in.Text

	var created entity.Comment
	_, err = mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		annotation, err := file.Annotation(annotationID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		created, err = annotation.AddComment(comment, now)
		file.UpdatedAt = now
		return err
	})
	if err != nil {
		return nil, err
	}

	an.metrics.CommentOp("add")
	return &created, nil
}

func (an *annotations) UpdateComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int, text string) (*entity.Comment, error) {
	if err := requireText(text); err != nil {
		return nil, err
	}
	var updated entity.Comment
	_, err := mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		annotation, err := file.Annotation(annotationID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		updated, err = annotation.UpdateComment(commentID, text, now)
		file.UpdatedAt = now
		return err
	})
	if err != nil {
		return nil, err
	}

	an.metrics.CommentOp("update")
	return &updated, nil
}

func (an *annotations) DeleteComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int) error {
	_, err := mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		annotation, err := file.Annotation(annotationID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		file.UpdatedAt = now
		return annotation.DeleteComment(commentID, now)
	})
	if err != nil {
		return err
	}

	an.metrics.CommentOp("delete")
	return nil
}

func (an *annotations) ResolveAnnotation(ctx context.Context, requester *entity.User, fileID uuid.UUID, annotationID int, resolved bool) (*entity.Annotation, error) {
	if requester == nil {
		return nil, appError.Unauthorized()
	}

	var result entity.Annotation
	_, err := mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		if !canManage(requester, file.OwnerID) {
			return appError.Forbidden("Only the document owner can resolve annotations")
		}
		annotation, err := file.Annotation(annotationID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		annotation.SetResolved(resolved, requester.ID, now)
		file.UpdatedAt = now
		result = *annotation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (an *annotations) ApproveDocument(ctx context.Context, fileID uuid.UUID, author AuthorInput) (*entity.File, error) {
	approval := entity.Approval{
		Author:      entity.GuestAuthor(author.GuestName),
		Avatar:      author.Avatar,
		AvatarColor: author.AvatarColor,
	}

	// an unknown id still replaces approvals recorded under that id
	var withdraw *uuid.UUID
	if author.UserID != nil {
		user, err := an.userStorage.GetUserByID(ctx, *author.UserID)
		switch {
		case err == nil:
			approval.Author = entity.UserAuthor(user.ID)
			approval.Avatar = firstNonEmpty(user.Avatar, author.Avatar)
			approval.AvatarColor = firstNonEmpty(user.AvatarColor, author.AvatarColor)
		case isNotFound(err):
			// unknown ids approve as a guest
			an.log.Debug().Str("userId", author.UserID.String()).Msg("approval from unknown user, recorded as guest")
			withdraw = author.UserID
		default:
			return nil, err
		}
	}

	file, err := mutateFile(ctx, an.fileStorage, an.metrics, an.log, fileID, func(file *entity.File) error {
		if withdraw != nil {
			file.WithdrawApproval(*withdraw)
		}
		a := approval
		a.ApprovedAt = time.Now().UTC()
		file.Approve(a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	an.metrics.Approval(string(approval.Author.Kind()))
	return file, nil
}

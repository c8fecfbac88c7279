package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/internal/storage/cache"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ShareRequest struct {
	ResourceType entity.ResourceType
	ResourceID   uuid.UUID
	Emails       []string
	Permission   entity.Permission
}

type ShareResult struct {
	Success  bool     `json:"success"`
	Created  int      `json:"created"`
	Warnings []string `json:"warnings,omitempty"`
}

type Recipient struct {
	UserID     uuid.UUID         `json:"userId"`
	Email      string            `json:"email"`
	Username   string            `json:"username"`
	Permission entity.Permission `json:"permissions"`
}

type shareLedger struct {
	shareStorage  storage.ShareStorage
	userStorage   storage.UserStorage
	fileStorage   storage.FileStorage
	folderStorage storage.FolderStorage
	cache         cache.Cache
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

type ShareService interface {
	CreateShare(ctx context.Context, sharer *entity.User, req ShareRequest) (*ShareResult, error)
	ListRecipients(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID) ([]Recipient, error)
	RemoveShare(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID, email string) error
}

func NewShareService(shareStorage storage.ShareStorage, userStorage storage.UserStorage, fileStorage storage.FileStorage,
	folderStorage storage.FolderStorage, c cache.Cache, m *metrics.Metrics, log zerolog.Logger) ShareService {
	return &shareLedger{
		shareStorage:  shareStorage,
		userStorage:   userStorage,
		fileStorage:   fileStorage,
		folderStorage: folderStorage,
		cache:         c,
		metrics:       m,
		log:           log,
	}
}

type sharedResource struct {
	folderID   uuid.UUID
	resourceID *uuid.UUID
}

// resolveResource checks that the resource exists and that requester may
// manage its shares.
func (sl *shareLedger) resolveResource(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, id uuid.UUID) (*sharedResource, error) {
	if requester == nil {
		return nil, appError.Unauthorized()
	}

	var (
		res     sharedResource
		ownerID uuid.UUID
	)
	switch resourceType {
	case entity.ResourceFile:
		file, err := sl.fileStorage.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}
		if file.FolderID == uuid.Nil {
			return nil, appError.NotFound("Folder not found for this file")
		}
		if _, err := sl.folderStorage.GetFolder(ctx, file.FolderID); err != nil {
			if isNotFound(err) {
				return nil, appError.NotFound("Folder not found for this file")
			}
			return nil, err
		}
		res.folderID = file.FolderID
		res.resourceID = &file.ID
		ownerID = file.OwnerID
	case entity.ResourceFolder:
		folder, err := sl.folderStorage.GetFolder(ctx, id)
		if err != nil {
			return nil, err
		}
		res.folderID = folder.ID
		ownerID = folder.OwnerID
	default:
		return nil, appError.BadRequest("Invalid resource type")
	}

	if !canManage(requester, ownerID) {
		return nil, appError.Forbidden("Only the owner can manage sharing")
	}
	return &res, nil
}

func (sl *shareLedger) CreateShare(ctx context.Context, sharer *entity.User, req ShareRequest) (*ShareResult, error) {
	if !req.ResourceType.Valid() {
		return nil, appError.BadRequest("Invalid resource type")
	}
	if !req.Permission.Valid() {
		return nil, appError.BadRequest("Invalid permission")
	}
	if len(req.Emails) == 0 {
		return nil, appError.BadRequest("At least one email is required")
	}

	res, err := sl.resolveResource(ctx, sharer, req.ResourceType, req.ResourceID)
	if err != nil {
		return nil, err
	}

	result := &ShareResult{}
	seen := make(map[string]struct{}, len(req.Emails))
	var recipients []uuid.UUID

	for _, raw := range req.Emails {
		email := normalizeEmail(raw)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		recipient, err := sl.userStorage.GetUserByEmail(ctx, email)
		if err != nil {
			if isNotFound(err) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("User with email %s not found.", email))
				continue
			}
			return nil, err
		}
		if recipient.ID == sharer.ID {
			result.Warnings = append(result.Warnings, "You cannot share with yourself.")
			continue
		}

		share := &entity.Share{
			ID:           uuid.New(),
			ResourceType: req.ResourceType,
			ResourceID:   res.resourceID,
			FolderID:     res.folderID,
			SharedBy:     sharer.ID,
			SharedWith:   recipient.ID,
			Permission:   req.Permission,
			CreatedAt:    time.Now().UTC(),
		}
		if err := sl.shareStorage.AddShare(ctx, share); err != nil {
			// shares added before the failure stay, so do their invalidations
			sl.cache.InvalidateGrant(ctx, recipients)
			return nil, err
		}
		recipients = append(recipients, recipient.ID)
		result.Created++
	}

	result.Success = result.Created > 0
	sl.cache.InvalidateGrant(ctx, recipients)
	sl.metrics.Shares("created", result.Created)
	sl.metrics.Shares("skipped", len(result.Warnings))

	sl.log.Info().
		Str("resourceType", string(req.ResourceType)).
		Str("resourceId", req.ResourceID.String()).
		Int("created", result.Created).
		Int("warnings", len(result.Warnings)).
		Msg("shares created")
	return result, nil
}

func (sl *shareLedger) ListRecipients(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID) ([]Recipient, error) {
	if _, err := sl.resolveResource(ctx, requester, resourceType, resourceID); err != nil {
		return nil, err
	}

	shares, err := sl.shareStorage.GetSharesForResource(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}

	perms := newPermissionSet()
	for _, s := range shares {
		perms.add(s.SharedWith, s.Permission)
	}

	profiles, err := sl.userStorage.GetProfiles(ctx, perms.order)
	if err != nil {
		return nil, err
	}

	recipients := make([]Recipient, 0, len(perms.order))
	for _, id := range perms.order {
		p, ok := profiles[id]
		if !ok {
			continue
		}
		recipients = append(recipients, Recipient{
			UserID:     id,
			Email:      p.Email,
			Username:   p.Username,
			Permission: perms.best[id],
		})
	}
	return recipients, nil
}

func (sl *shareLedger) RemoveShare(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID, email string) error {
	if _, err := sl.resolveResource(ctx, requester, resourceType, resourceID); err != nil {
		return err
	}

	email = normalizeEmail(email)
	if email == "" {
		return appError.BadRequest("Email is required")
	}
	recipient, err := sl.userStorage.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return appError.NotFound(fmt.Sprintf("User with email %s not found.", email))
		}
		return err
	}

	removed, err := sl.shareStorage.DeleteRecipientShares(ctx, resourceType, resourceID, recipient.ID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return appError.NotFound("Share not found")
	}

	sl.cache.InvalidateGrant(ctx, []uuid.UUID{recipient.ID})
	sl.metrics.Shares("removed", int(removed))
	return nil
}

package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/internal/storage/cache"
	"FileCollab/pkg/appError"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type FolderUpdate struct {
	Name     *string
	ParentID *uuid.UUID
}

type FolderContents struct {
	Folder *entity.Folder `json:"folder"`
	Files  []*entity.File `json:"files"`
}

type folderService struct {
	folderStorage storage.FolderStorage
	fileStorage   storage.FileStorage
	shareStorage  storage.ShareStorage
	cache         cache.Cache
	log           zerolog.Logger
}

type FolderService interface {
	Create(ctx context.Context, owner *entity.User, name string, parentID *uuid.UUID) (*entity.Folder, error)
	Get(ctx context.Context, requester *entity.User, id uuid.UUID) (*FolderContents, error)
	Update(ctx context.Context, requester *entity.User, id uuid.UUID, update FolderUpdate) (*entity.Folder, error)
	Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error
}

func NewFolderService(folderStorage storage.FolderStorage, fileStorage storage.FileStorage, shareStorage storage.ShareStorage,
	c cache.Cache, log zerolog.Logger) FolderService {
	return &folderService{
		folderStorage: folderStorage,
		fileStorage:   fileStorage,
		shareStorage:  shareStorage,
		cache:         c,
		log:           log,
	}
}

func (fs *folderService) checkParent(ctx context.Context, ownerID uuid.UUID, parentID uuid.UUID) error {
	parent, err := fs.folderStorage.GetFolder(ctx, parentID)
	if err != nil {
		if isNotFound(err) {
			return appError.BadRequest("Parent folder not found")
		}
		return err
	}
	if parent.OwnerID != ownerID {
		return appError.Forbidden("Parent folder belongs to another user")
	}
	return nil
}

// ownedFolder loads the folder and checks that requester owns it.
func (fs *folderService) ownedFolder(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.Folder, error) {
	if requester == nil {
		return nil, appError.Unauthorized()
	}
	folder, err := fs.folderStorage.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != requester.ID {
		return nil, appError.Forbidden("You do not own this folder")
	}
	return folder, nil
}

// invalidate drops the owner's listing and the shared listings of
// everyone the folder or its files are shared with.
func (fs *folderService) invalidate(ctx context.Context, folder *entity.Folder) {
	fs.cache.InvalidateOwner(ctx, folder.OwnerID)

	shares, err := fs.shareStorage.GetSharesInFolder(ctx, folder.ID)
	if err != nil {
		fs.log.Warn().Err(err).Str("folderId", folder.ID.String()).Msg("load folder shares for invalidation")
		return
	}
	grantees := make([]uuid.UUID, 0, len(shares))
	for _, s := range shares {
		grantees = append(grantees, s.SharedWith)
	}
	fs.cache.InvalidateGrant(ctx, grantees)
}

func (fs *folderService) Create(ctx context.Context, owner *entity.User, name string, parentID *uuid.UUID) (*entity.Folder, error) {
	if owner == nil {
		return nil, appError.Unauthorized()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appError.BadRequest("Folder name is required")
	}
	if parentID != nil {
		if err := fs.checkParent(ctx, owner.ID, *parentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	folder := &entity.Folder{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   owner.ID,
		ParentID:  parentID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := fs.folderStorage.AddFolder(ctx, folder); err != nil {
		return nil, err
	}

	fs.cache.InvalidateOwner(ctx, owner.ID)
	return folder, nil
}

func (fs *folderService) Get(ctx context.Context, requester *entity.User, id uuid.UUID) (*FolderContents, error) {
	folder, err := fs.ownedFolder(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	files, err := fs.fileStorage.GetFilesByFolders(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*entity.File{}
	}
	return &FolderContents{Folder: folder, Files: files}, nil
}

func (fs *folderService) Update(ctx context.Context, requester *entity.User, id uuid.UUID, update FolderUpdate) (*entity.Folder, error) {
	folder, err := fs.ownedFolder(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, appError.BadRequest("Folder name is required")
		}
		folder.Name = name
	}
	if update.ParentID != nil {
		if *update.ParentID == folder.ID {
			return nil, appError.BadRequest("A folder cannot be its own parent")
		}
		if err := fs.checkParent(ctx, folder.OwnerID, *update.ParentID); err != nil {
			return nil, err
		}
		parent := *update.ParentID
		folder.ParentID = &parent
	}

	folder.UpdatedAt = time.Now().UTC()
	if err := fs.folderStorage.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}

	fs.invalidate(ctx, folder)
	return folder, nil
}

func (fs *folderService) Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error {
	folder, err := fs.ownedFolder(ctx, requester, id)
	if err != nil {
		return err
	}

	count, err := fs.fileStorage.CountFilesInFolder(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return appError.BadRequest("Folder is not empty")
	}

	// collect grantees before the share rows go away
	fs.invalidate(ctx, folder)

	if err := fs.shareStorage.DeleteResourceShares(ctx, entity.ResourceFolder, id); err != nil {
		return err
	}
	if err := fs.folderStorage.DeleteFolder(ctx, id); err != nil {
		return err
	}

	fs.log.Info().Str("folderId", id.String()).Msg("folder deleted")
	return nil
}

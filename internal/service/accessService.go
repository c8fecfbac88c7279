package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/internal/storage/cache"
	"FileCollab/pkg/appError"
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const foldersKey cache.CacheKey = "folders"

type SharedFolder struct {
	entity.Folder
	Permission entity.Permission `json:"permissions"`
}

type FolderListing struct {
	Owned  []*entity.Folder `json:"ownedFolders"`
	Shared []SharedFolder   `json:"sharedFolders"`
}

type SharedFile struct {
	entity.File
	Permission entity.Permission `json:"permissions"`
}

type FolderFiles struct {
	Folder *entity.Folder `json:"folder"`
	Files  []SharedFile   `json:"files"`
}

type access struct {
	folderStorage storage.FolderStorage
	fileStorage   storage.FileStorage
	shareStorage  storage.ShareStorage
	cache         cache.Cache
	log           zerolog.Logger
}

type AccessService interface {
	ListFoldersForUser(ctx context.Context, userID uuid.UUID) (*FolderListing, error)
	GetFolderWithSharedFiles(ctx context.Context, folderID, userID uuid.UUID) (*FolderFiles, error)
	// PermissionForFile returns the strongest permission user holds on file
	// and false when there is none.
	PermissionForFile(ctx context.Context, user *entity.User, file *entity.File) (entity.Permission, bool, error)
	CanReadFile(ctx context.Context, user *entity.User, file *entity.File) (bool, error)
}

func NewAccessService(folderStorage storage.FolderStorage, fileStorage storage.FileStorage, shareStorage storage.ShareStorage,
	c cache.Cache, log zerolog.Logger) AccessService {
	return &access{
		folderStorage: folderStorage,
		fileStorage:   fileStorage,
		shareStorage:  shareStorage,
		cache:         c,
		log:           log,
	}
}

// permissionSet keeps the strongest permission per id in first-seen order.
type permissionSet struct {
	order []uuid.UUID
	best  map[uuid.UUID]entity.Permission
}

func newPermissionSet() *permissionSet {
	return &permissionSet{best: make(map[uuid.UUID]entity.Permission)}
}

func (p *permissionSet) add(id uuid.UUID, perm entity.Permission) {
	current, ok := p.best[id]
	if !ok {
		p.order = append(p.order, id)
		p.best[id] = perm
		return
	}
	if perm.Rank() > current.Rank() {
		p.best[id] = perm
	}
}

func (ac *access) ListFoldersForUser(ctx context.Context, userID uuid.UUID) (*FolderListing, error) {
	owned, err := ac.ownedFolders(ctx, userID)
	if err != nil {
		return nil, err
	}
	shared, err := ac.sharedFolders(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FolderListing{Owned: owned, Shared: shared}, nil
}

func (ac *access) ownedFolders(ctx context.Context, userID uuid.UUID) ([]*entity.Folder, error) {
	if cached, ok := ac.cache.GetOwner(ctx, userID, foldersKey); ok {
		var folders []*entity.Folder
		if err := json.Unmarshal(cached, &folders); err == nil {
			return folders, nil
		}
	}

	// taken before the read so a concurrent invalidation wins
	gen := ac.cache.OwnerGeneration(ctx, userID)
	folders, err := ac.folderStorage.GetFoldersByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []*entity.Folder{}
	}

	if body, err := json.Marshal(folders); err == nil {
		ac.cache.SetOwner(ctx, userID, gen, foldersKey, body)
	}
	return folders, nil
}

func (ac *access) sharedFolders(ctx context.Context, userID uuid.UUID) ([]SharedFolder, error) {
	if cached, ok := ac.cache.GetGrant(ctx, userID, foldersKey); ok {
		var shared []SharedFolder
		if err := json.Unmarshal(cached, &shared); err == nil {
			return shared, nil
		}
	}

	gen := ac.cache.GrantGeneration(ctx, userID)
	shares, err := ac.shareStorage.GetSharesForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	// file shares surface their folder too
	perms := newPermissionSet()
	for _, s := range shares {
		perms.add(s.FolderID, s.Permission)
	}

	shared := make([]SharedFolder, 0, len(perms.order))
	if len(perms.order) > 0 {
		folders, err := ac.folderStorage.GetFoldersByIDs(ctx, perms.order)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*entity.Folder, len(folders))
		for _, f := range folders {
			byID[f.ID] = f
		}

		for _, id := range perms.order {
			folder, ok := byID[id]
			if !ok || folder.OwnerID == userID {
				continue
			}
			shared = append(shared, SharedFolder{Folder: *folder, Permission: perms.best[id]})
		}
	}

	if body, err := json.Marshal(shared); err == nil {
		ac.cache.SetGrant(ctx, userID, gen, foldersKey, body)
	}
	return shared, nil
}

func (ac *access) GetFolderWithSharedFiles(ctx context.Context, folderID, userID uuid.UUID) (*FolderFiles, error) {
	folder, err := ac.folderStorage.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if folder.OwnerID == userID {
		files, err := ac.fileStorage.GetFilesByFolders(ctx, []uuid.UUID{folderID})
		if err != nil {
			return nil, err
		}
		result := &FolderFiles{Folder: folder, Files: make([]SharedFile, 0, len(files))}
		for _, f := range files {
			result.Files = append(result.Files, SharedFile{File: *f, Permission: entity.PermissionDelete})
		}
		return result, nil
	}

	shares, err := ac.shareStorage.GetSharesForFolderRecipient(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, appError.Forbidden("You do not have access to this folder")
	}

	var folderPerm entity.Permission
	fileGrants := newPermissionSet()
	for _, s := range shares {
		switch s.ResourceType {
		case entity.ResourceFolder:
			if s.Permission.Rank() > folderPerm.Rank() {
				folderPerm = s.Permission
			}
		case entity.ResourceFile:
			if s.ResourceID != nil {
				fileGrants.add(*s.ResourceID, s.Permission)
			}
		}
	}

	granted := newPermissionSet()
	files := make(map[uuid.UUID]*entity.File)

	// a folder grant covers every file currently in it
	if folderPerm != "" {
		inFolder, err := ac.fileStorage.GetFilesByFolders(ctx, []uuid.UUID{folderID})
		if err != nil {
			return nil, err
		}
		for _, f := range inFolder {
			files[f.ID] = f
			granted.add(f.ID, folderPerm)
		}
	}

	var missing []uuid.UUID
	for _, id := range fileGrants.order {
		if _, ok := files[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		named, err := ac.fileStorage.GetFilesByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, f := range named {
			files[f.ID] = f
		}
	}
	for _, id := range fileGrants.order {
		if _, ok := files[id]; ok {
			granted.add(id, fileGrants.best[id])
		}
	}

	result := &FolderFiles{Folder: folder, Files: make([]SharedFile, 0, len(granted.order))}
	for _, id := range granted.order {
		result.Files = append(result.Files, SharedFile{File: *files[id], Permission: granted.best[id]})
	}
	return result, nil
}

func (ac *access) PermissionForFile(ctx context.Context, user *entity.User, file *entity.File) (entity.Permission, bool, error) {
	if user == nil {
		return "", false, nil
	}
	if canManage(user, file.OwnerID) {
		return entity.PermissionDelete, true, nil
	}

	shares, err := ac.shareStorage.GetSharesForRecipient(ctx, user.ID)
	if err != nil {
		return "", false, err
	}

	var best entity.Permission
	for _, s := range shares {
		if s.Grants(file) && s.Permission.Rank() > best.Rank() {
			best = s.Permission
		}
	}
	return best, best != "", nil
}

func (ac *access) CanReadFile(ctx context.Context, user *entity.User, file *entity.File) (bool, error) {
	_, ok, err := ac.PermissionForFile(ctx, user, file)
	return ok, err
}

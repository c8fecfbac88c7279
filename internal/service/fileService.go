package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/internal/storage/cache"
	"FileCollab/internal/storage/content"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upload is one multipart part handed over by the transport.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

type fileService struct {
	fileStorage   storage.FileStorage
	folderStorage storage.FolderStorage
	shareStorage  storage.ShareStorage
	userStorage   storage.UserStorage
	access        AccessService
	store         content.Store
	cache         cache.Cache
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

type FileService interface {
	Upload(ctx context.Context, owner *entity.User, folderID uuid.UUID, uploads []Upload) ([]*entity.File, error)
	ListForUser(ctx context.Context, owner *entity.User) ([]*entity.File, error)
	Search(ctx context.Context, owner *entity.User, query string) ([]*entity.File, error)
	GetMetadata(ctx context.Context, id uuid.UUID) (*entity.File, error)
	UpdateDescription(ctx context.Context, requester *entity.User, id uuid.UUID, description string) (*entity.File, error)
	Move(ctx context.Context, requester *entity.User, id, folderID uuid.UUID) (*entity.File, error)
	// Download returns the file and its content; the caller closes the reader.
	Download(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.File, io.ReadCloser, error)
	Versions(ctx context.Context, id uuid.UUID) ([]entity.Version, error)
	UploadVersions(ctx context.Context, requester *entity.User, id uuid.UUID, uploads []Upload) ([]entity.Version, error)
	Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error
}

type FileDeps struct {
	Files   storage.FileStorage
	Folders storage.FolderStorage
	Shares  storage.ShareStorage
	Users   storage.UserStorage
	Access  AccessService
	Store   content.Store
	Cache   cache.Cache
	Metrics *metrics.Metrics
}

func NewFileService(deps FileDeps, log zerolog.Logger) FileService {
	return &fileService{
		fileStorage:   deps.Files,
		folderStorage: deps.Folders,
		shareStorage:  deps.Shares,
		userStorage:   deps.Users,
		access:        deps.Access,
		store:         deps.Store,
		cache:         deps.Cache,
		metrics:       deps.Metrics,
		log:           log,
	}
}

func fileType(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// putAll stores every upload and removes what was written if one fails.
func (fs *fileService) putAll(ctx context.Context, prefix string, uploads []Upload) ([]string, error) {
	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		key := content.NewKey(prefix, u.Name)
		if err := fs.store.Put(ctx, key, u.Content, u.Size); err != nil {
			fs.log.Error().Err(err).Str("key", key).Msg("store upload")
			fs.removeContent(ctx, keys...)
			return nil, appError.Internal()
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (fs *fileService) removeContent(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := fs.store.Delete(ctx, key); err != nil {
			fs.log.Warn().Err(err).Str("key", key).Msg("remove content")
		}
	}
}

func (fs *fileService) ownedFile(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.File, error) {
	if requester == nil {
		return nil, appError.Unauthorized()
	}
	file, err := fs.fileStorage.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != requester.ID {
		return nil, appError.Forbidden("Only the owner can modify this document")
	}
	return file, nil
}

func (fs *fileService) Upload(ctx context.Context, owner *entity.User, folderID uuid.UUID, uploads []Upload) ([]*entity.File, error) {
	if owner == nil {
		return nil, appError.Unauthorized()
	}
	if len(uploads) == 0 {
		return nil, appError.BadRequest("No files uploaded")
	}

	folder, err := fs.folderStorage.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != owner.ID {
		return nil, appError.Forbidden("You do not own this folder")
	}

	keys, err := fs.putAll(ctx, "files", uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := make([]*entity.File, 0, len(uploads))
	for i, u := range uploads {
		file := &entity.File{
			ID:              uuid.New(),
			Name:            u.Name,
			Type:            fileType(u.Name),
			Size:            entity.FormatSize(u.Size),
			OwnerID:         owner.ID,
			FolderID:        folderID,
			ContentKey:      keys[i],
			AdditionalFiles: []entity.AdditionalFile{},
			Versions:        []entity.Version{},
			Annotations:     []entity.Annotation{},
			Approvals:       []entity.Approval{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := fs.fileStorage.AddFile(ctx, file); err != nil {
			fs.removeContent(ctx, keys[i:]...)
			return nil, err
		}
		created = append(created, file)
	}

	fs.log.Info().Str("folderId", folderID.String()).Int("count", len(created)).Msg("files uploaded")
	return created, nil
}

func (fs *fileService) ListForUser(ctx context.Context, owner *entity.User) ([]*entity.File, error) {
	if owner == nil {
		return nil, appError.Unauthorized()
	}
	files, err := fs.fileStorage.GetFilesByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*entity.File{}
	}
	return files, nil
}

func (fs *fileService) Search(ctx context.Context, owner *entity.User, query string) ([]*entity.File, error) {
	if owner == nil {
		return nil, appError.Unauthorized()
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appError.BadRequest("Search query is required")
	}
	files, err := fs.fileStorage.SearchFiles(ctx, owner.ID, query)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*entity.File{}
	}
	return files, nil
}

func (fs *fileService) GetMetadata(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	file, err := fs.fileStorage.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}

	profiles, err := fs.userStorage.GetProfiles(ctx, []uuid.UUID{file.OwnerID})
	if err != nil {
		return nil, err
	}
	if p, ok := profiles[file.OwnerID]; ok {
		file.Owner = &p
	}
	return file, nil
}

func (fs *fileService) UpdateDescription(ctx context.Context, requester *entity.User, id uuid.UUID, description string) (*entity.File, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, appError.BadRequest("Description is required")
	}
	if _, err := fs.ownedFile(ctx, requester, id); err != nil {
		return nil, err
	}

	return mutateFile(ctx, fs.fileStorage, fs.metrics, fs.log, id, func(file *entity.File) error {
		file.Description = description
		file.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (fs *fileService) Move(ctx context.Context, requester *entity.User, id, folderID uuid.UUID) (*entity.File, error) {
	current, err := fs.ownedFile(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	dest, err := fs.folderStorage.GetFolder(ctx, folderID)
	if err != nil {
		if isNotFound(err) {
			return nil, appError.BadRequest("Destination folder not found")
		}
		return nil, err
	}
	if dest.OwnerID != requester.ID {
		return nil, appError.Forbidden("You do not own the destination folder")
	}

	file, err := mutateFile(ctx, fs.fileStorage, fs.metrics, fs.log, id, func(file *entity.File) error {
		file.FolderID = dest.ID
		file.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// folder grants on either side now see a different set of files
	fs.invalidateFolderGrantees(ctx, current.FolderID, dest.ID)
	return file, nil
}

func (fs *fileService) invalidateFolderGrantees(ctx context.Context, folderIDs ...uuid.UUID) {
	var grantees []uuid.UUID
	for _, id := range folderIDs {
		shares, err := fs.shareStorage.GetSharesInFolder(ctx, id)
		if err != nil {
			fs.log.Warn().Err(err).Str("folderId", id.String()).Msg("load folder shares for invalidation")
			continue
		}
		for _, s := range shares {
			grantees = append(grantees, s.SharedWith)
		}
	}
	fs.cache.InvalidateGrant(ctx, grantees)
}

func (fs *fileService) Download(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.File, io.ReadCloser, error) {
	if requester == nil {
		return nil, nil, appError.Unauthorized()
	}
	file, err := fs.fileStorage.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ok, err := fs.access.CanReadFile(ctx, requester, file)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, appError.Forbidden("You do not have access to this document")
	}

	body, err := fs.store.Get(ctx, file.ContentKey)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, nil, appError.NotFound("File content not found")
		}
		fs.log.Error().Err(err).Str("fileId", id.String()).Msg("open content")
		return nil, nil, appError.Internal()
	}
	return file, body, nil
}

func (fs *fileService) Versions(ctx context.Context, id uuid.UUID) ([]entity.Version, error) {
	file, err := fs.fileStorage.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.Versions == nil {
		return []entity.Version{}, nil
	}
	return file.Versions, nil
}

func (fs *fileService) UploadVersions(ctx context.Context, requester *entity.User, id uuid.UUID, uploads []Upload) ([]entity.Version, error) {
	if len(uploads) == 0 {
		return nil, appError.BadRequest("No files uploaded")
	}
	if _, err := fs.ownedFile(ctx, requester, id); err != nil {
		return nil, err
	}

	keys, err := fs.putAll(ctx, "versions", uploads)
	if err != nil {
		return nil, err
	}

	versions := make([]entity.Version, 0, len(uploads))
	for i, u := range uploads {
		versions = append(versions, entity.Version{
			Name: u.Name,
			Path: keys[i],
			Size: entity.FormatSize(u.Size),
		})
	}

	var added []entity.Version
	_, err = mutateFile(ctx, fs.fileStorage, fs.metrics, fs.log, id, func(file *entity.File) error {
		added = file.AddVersions(versions, time.Now().UTC())
		return nil
	})
	if err != nil {
		fs.removeContent(ctx, keys...)
		return nil, err
	}
	return added, nil
}

func (fs *fileService) Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error {
	if requester == nil {
		return appError.Unauthorized()
	}
	file, err := fs.fileStorage.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(requester, file.OwnerID) {
		return appError.Forbidden("Only the owner can delete this document")
	}

	shares, err := fs.shareStorage.GetSharesForResource(ctx, entity.ResourceFile, id)
	if err != nil {
		return err
	}
	if err := fs.shareStorage.DeleteResourceShares(ctx, entity.ResourceFile, id); err != nil {
		return err
	}
	if err := fs.fileStorage.DeleteFile(ctx, id); err != nil {
		return err
	}

	keys := []string{file.ContentKey}
	for _, v := range file.Versions {
		keys = append(keys, v.Path)
	}
	for _, a := range file.AdditionalFiles {
		keys = append(keys, a.Path)
	}
	fs.removeContent(ctx, keys...)

	grantees := make([]uuid.UUID, 0, len(shares))
	for _, s := range shares {
		grantees = append(grantees, s.SharedWith)
	}
	fs.cache.InvalidateGrant(ctx, grantees)

	fs.log.Info().Str("fileId", id.String()).Msg("file deleted")
	return nil
}

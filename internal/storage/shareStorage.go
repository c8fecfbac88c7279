package storage

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage/postgres"
	"FileCollab/pkg/appError"
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type shares struct {
	pool postgres.DBPool
	log  zerolog.Logger
}

type ShareStorage interface {
	AddShare(ctx context.Context, share *entity.Share) error
	GetSharesForRecipient(ctx context.Context, userID uuid.UUID) ([]*entity.Share, error)
	GetSharesForFolderRecipient(ctx context.Context, folderID, userID uuid.UUID) ([]*entity.Share, error)
	// GetSharesForResource returns the rows granting exactly this resource.
	GetSharesForResource(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) ([]*entity.Share, error)
	// GetSharesInFolder returns folder and file grants whose folder is folderID.
	GetSharesInFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Share, error)
	DeleteRecipientShares(ctx context.Context, resourceType entity.ResourceType, id, recipient uuid.UUID) (int64, error)
	DeleteResourceShares(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) error
}

func NewShareStorage(pool postgres.DBPool, log zerolog.Logger) ShareStorage {
	return &shares{
		pool: pool,
		log:  log,
	}
}

const shareColumns = `id, resource_type, resource_id, folder_id, shared_by, shared_with, permission, created`

func scanShare(row pgx.Row) (*entity.Share, error) {
	var share entity.Share
	err := row.Scan(
		&share.ID,
		&share.ResourceType,
		&share.ResourceID,
		&share.FolderID,
		&share.SharedBy,
		&share.SharedWith,
		&share.Permission,
		&share.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// resourceFilter selects rows of one resource: folder grants by folder_id,
// file grants by resource_id.
func resourceFilter(resourceType entity.ResourceType) string {
	if resourceType == entity.ResourceFile {
		return `resource_type = 'file' and resource_id = $1`
	}
	return `resource_type = 'folder' and folder_id = $1`
}

func (s *shares) AddShare(ctx context.Context, share *entity.Share) error {
	query := `insert into shares(id, resource_type, resource_id, folder_id, shared_by, shared_with, permission, created)
				values($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		share.ID,
		share.ResourceType,
		share.ResourceID,
		share.FolderID,
		share.SharedBy,
		share.SharedWith,
		share.Permission,
		share.CreatedAt,
	)
	if err != nil {
		s.log.Error().Err(err).Str("op", "AddShare").Msg("insert share")
		return appError.Internal()
	}
	return nil
}

func (s *shares) GetSharesForRecipient(ctx context.Context, userID uuid.UUID) ([]*entity.Share, error) {
	query := `select ` + shareColumns + `
				from shares
				where shared_with = $1
				order by created`
	return s.list(ctx, "GetSharesForRecipient", query, userID)
}

func (s *shares) GetSharesForFolderRecipient(ctx context.Context, folderID, userID uuid.UUID) ([]*entity.Share, error) {
	query := `select ` + shareColumns + `
				from shares
				where folder_id = $1 and shared_with = $2
				order by created`
	return s.list(ctx, "GetSharesForFolderRecipient", query, folderID, userID)
}

func (s *shares) GetSharesForResource(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) ([]*entity.Share, error) {
	query := `select ` + shareColumns + `
				from shares
				where ` + resourceFilter(resourceType) + `
				order by created`
	return s.list(ctx, "GetSharesForResource", query, id)
}

func (s *shares) GetSharesInFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Share, error) {
	query := `select ` + shareColumns + `
				from shares
				where folder_id = $1
				order by created`
	return s.list(ctx, "GetSharesInFolder", query, folderID)
}

func (s *shares) DeleteRecipientShares(ctx context.Context, resourceType entity.ResourceType, id, recipient uuid.UUID) (int64, error) {
	query := `delete from shares
				where ` + resourceFilter(resourceType) + ` and shared_with = $2`

	tag, err := s.pool.Exec(ctx, query, id, recipient)
	if err != nil {
		s.log.Error().Err(err).Str("op", "DeleteRecipientShares").Msg("delete shares")
		return 0, appError.Internal()
	}
	return tag.RowsAffected(), nil
}

func (s *shares) DeleteResourceShares(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) error {
	query := `delete from shares
				where ` + resourceFilter(resourceType)

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		s.log.Error().Err(err).Str("op", "DeleteResourceShares").Msg("delete shares")
		return appError.Internal()
	}
	return nil
}

func (s *shares) list(ctx context.Context, op, query string, args ...any) ([]*entity.Share, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("select shares")
		return nil, appError.Internal()
	}
	defer rows.Close()

	var out []*entity.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			s.log.Error().Err(err).Str("op", op).Msg("scan share")
			return nil, appError.Internal()
		}
		out = append(out, share)
	}
	if err := rows.Err(); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("iterate shares")
		return nil, appError.Internal()
	}
	return out, nil
}

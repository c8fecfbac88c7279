package storage

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage/postgres"
	"FileCollab/pkg/appError"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type folders struct {
	pool postgres.DBPool
	log  zerolog.Logger
}

type FolderStorage interface {
	AddFolder(ctx context.Context, folder *entity.Folder) error
	UpdateFolder(ctx context.Context, folder *entity.Folder) error
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	GetFolder(ctx context.Context, id uuid.UUID) (*entity.Folder, error)
	GetFoldersByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Folder, error)
	GetFoldersByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Folder, error)
}

func NewFolderStorage(pool postgres.DBPool, log zerolog.Logger) FolderStorage {
	return &folders{
		pool: pool,
		log:  log,
	}
}

const folderColumns = `id, name, owner_id, parent_id, active, created, updated`

func scanFolder(row pgx.Row) (*entity.Folder, error) {
	var folder entity.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.OwnerID,
		&folder.ParentID,
		&folder.Active,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (f *folders) AddFolder(ctx context.Context, folder *entity.Folder) error {
	query := `insert into folders(id, name, owner_id, parent_id, active, created, updated)
				values($1, $2, $3, $4, $5, $6, $7)`

	_, err := f.pool.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.OwnerID,
		folder.ParentID,
		folder.Active,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		f.log.Error().Err(err).Str("op", "AddFolder").Msg("insert folder")
		return appError.Internal()
	}
	return nil
}

func (f *folders) UpdateFolder(ctx context.Context, folder *entity.Folder) error {
	query := `update folders
				set name = $2, parent_id = $3, active = $4, updated = $5
				where id = $1`

	tag, err := f.pool.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.ParentID,
		folder.Active,
		folder.UpdatedAt,
	)
	if err != nil {
		f.log.Error().Err(err).Str("op", "UpdateFolder").Msg("update folder")
		return appError.Internal()
	}
	if tag.RowsAffected() == 0 {
		return appError.NotFound("Folder not found.")
	}
	return nil
}

func (f *folders) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	query := `delete from folders
				where id = $1`

	_, err := f.pool.Exec(ctx, query, id)
	if err != nil {
		f.log.Error().Err(err).Str("op", "DeleteFolder").Msg("delete folder")
		return appError.Internal()
	}
	return nil
}

func (f *folders) GetFolder(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	query := `select ` + folderColumns + ` from folders where id = $1`

	folder, err := scanFolder(f.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appError.NotFound("Folder not found.")
		}
		f.log.Error().Err(err).Str("op", "GetFolder").Msg("select folder")
		return nil, appError.Internal()
	}
	return folder, nil
}

func (f *folders) GetFoldersByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Folder, error) {
	query := `select ` + folderColumns + `
				from folders
				where owner_id = $1
				order by created, name`
	return f.list(ctx, "GetFoldersByOwner", query, ownerID)
}

// GetFoldersByIDs skips ids that no longer exist.
func (f *folders) GetFoldersByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Folder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `select ` + folderColumns + `
				from folders
				where id = any($1)`
	return f.list(ctx, "GetFoldersByIDs", query, ids)
}

func (f *folders) list(ctx context.Context, op, query string, arg any) ([]*entity.Folder, error) {
	rows, err := f.pool.Query(ctx, query, arg)
	if err != nil {
		f.log.Error().Err(err).Str("op", op).Msg("select folders")
		return nil, appError.Internal()
	}
	defer rows.Close()

	var out []*entity.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			f.log.Error().Err(err).Str("op", op).Msg("scan folder")
			return nil, appError.Internal()
		}
		out = append(out, folder)
	}
	if err := rows.Err(); err != nil {
		f.log.Error().Err(err).Str("op", op).Msg("iterate folders")
		return nil, appError.Internal()
	}
	return out, nil
}

package storage

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage/postgres"
	"FileCollab/pkg/appError"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrRevisionConflict means the row changed since it was read.
var ErrRevisionConflict = errors.New("file revision conflict")

type files struct {
	pool postgres.DBPool
	log  zerolog.Logger
}

type FileStorage interface {
	AddFile(ctx context.Context, file *entity.File) error
	// UpdateFile saves the whole document if its revision is unchanged and
	// bumps file.Revision. A stale revision yields ErrRevisionConflict.
	UpdateFile(ctx context.Context, file *entity.File) error
	DeleteFile(ctx context.Context, id uuid.UUID) error
	GetFile(ctx context.Context, id uuid.UUID) (*entity.File, error)
	GetFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.File, error)
	GetFilesByFolders(ctx context.Context, folderIDs []uuid.UUID) ([]*entity.File, error)
	GetFilesByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.File, error)
	SearchFiles(ctx context.Context, ownerID uuid.UUID, query string) ([]*entity.File, error)
	CountFilesInFolder(ctx context.Context, folderID uuid.UUID) (int, error)
}

func NewFileStorage(pool postgres.DBPool, log zerolog.Logger) FileStorage {
	return &files{
		pool: pool,
		log:  log,
	}
}

const fileColumns = `id, number, name, type, description, size, owner_id, folder_id, content_key,
	additional_files, versions, annotations, approvals, revision, created, updated`

type fileDocs struct {
	additional  []byte
	versions    []byte
	annotations []byte
	approvals   []byte
}

func marshalDocs(file *entity.File) (*fileDocs, error) {
	var (
		docs fileDocs
		err  error
	)
	if docs.additional, err = marshalList(file.AdditionalFiles); err != nil {
		return nil, err
	}
	if docs.versions, err = marshalList(file.Versions); err != nil {
		return nil, err
	}
	if docs.annotations, err = marshalList(file.Annotations); err != nil {
		return nil, err
	}
	if docs.approvals, err = marshalList(file.Approvals); err != nil {
		return nil, err
	}
	return &docs, nil
}

// nil slices are stored as [] so the column never holds null
func marshalList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

func scanFile(row pgx.Row) (*entity.File, error) {
	var (
		file entity.File
		docs fileDocs
	)
	err := row.Scan(
		&file.ID,
		&file.Number,
		&file.Name,
		&file.Type,
		&file.Description,
		&file.Size,
		&file.OwnerID,
		&file.FolderID,
		&file.ContentKey,
		&docs.additional,
		&docs.versions,
		&docs.annotations,
		&docs.approvals,
		&file.Revision,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(docs.additional, &file.AdditionalFiles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docs.versions, &file.Versions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docs.annotations, &file.Annotations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docs.approvals, &file.Approvals); err != nil {
		return nil, err
	}
	return &file, nil
}

func (fs *files) AddFile(ctx context.Context, file *entity.File) error {
	docs, err := marshalDocs(file)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "AddFile").Msg("marshal file documents")
		return appError.Internal()
	}

	query := `insert into files(id, name, type, description, size, owner_id, folder_id, content_key,
				additional_files, versions, annotations, approvals, revision, created, updated)
				values($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)
				returning number`

	err = fs.pool.QueryRow(ctx, query,
		file.ID,
		file.Name,
		file.Type,
		file.Description,
		file.Size,
		file.OwnerID,
		file.FolderID,
		file.ContentKey,
		docs.additional,
		docs.versions,
		docs.annotations,
		docs.approvals,
		file.CreatedAt,
		file.UpdatedAt,
	).Scan(&file.Number)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "AddFile").Msg("insert file")
		return appError.Internal()
	}
	file.Revision = 0
	return nil
}

func (fs *files) UpdateFile(ctx context.Context, file *entity.File) error {
	docs, err := marshalDocs(file)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "UpdateFile").Msg("marshal file documents")
		return appError.Internal()
	}

	query := `update files
				set name = $3, description = $4, folder_id = $5, additional_files = $6, versions = $7,
					annotations = $8, approvals = $9, updated = $10, revision = revision + 1
				where id = $1 and revision = $2`

	tag, err := fs.pool.Exec(ctx, query,
		file.ID,
		file.Revision,
		file.Name,
		file.Description,
		file.FolderID,
		docs.additional,
		docs.versions,
		docs.annotations,
		docs.approvals,
		file.UpdatedAt,
	)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "UpdateFile").Msg("update file")
		return appError.Internal()
	}
	if tag.RowsAffected() == 0 {
		// either deleted meanwhile or saved by someone else
		var exists bool
		if err := fs.pool.QueryRow(ctx, `select exists(select 1 from files where id = $1)`, file.ID).Scan(&exists); err != nil {
			fs.log.Error().Err(err).Str("op", "UpdateFile").Msg("check file exists")
			return appError.Internal()
		}
		if !exists {
			return appError.NotFound("Document not found")
		}
		return ErrRevisionConflict
	}

	file.Revision++
	return nil
}

func (fs *files) DeleteFile(ctx context.Context, id uuid.UUID) error {
	query := `delete from files
				where id = $1`

	_, err := fs.pool.Exec(ctx, query, id)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "DeleteFile").Msg("delete file")
		return appError.Internal()
	}
	return nil
}

func (fs *files) GetFile(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	query := `select ` + fileColumns + ` from files where id = $1`

	file, err := scanFile(fs.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appError.NotFound("Document not found")
		}
		fs.log.Error().Err(err).Str("op", "GetFile").Msg("select file")
		return nil, appError.Internal()
	}
	return file, nil
}

func (fs *files) GetFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.File, error) {
	query := `select ` + fileColumns + `
				from files
				where owner_id = $1
				order by number`
	return fs.list(ctx, "GetFilesByOwner", query, ownerID)
}

func (fs *files) GetFilesByFolders(ctx context.Context, folderIDs []uuid.UUID) ([]*entity.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	query := `select ` + fileColumns + `
				from files
				where folder_id = any($1)
				order by number`
	return fs.list(ctx, "GetFilesByFolders", query, folderIDs)
}

func (fs *files) GetFilesByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `select ` + fileColumns + `
				from files
				where id = any($1)
				order by number`
	return fs.list(ctx, "GetFilesByIDs", query, ids)
}

// SearchFiles matches name or description case-insensitively.
func (fs *files) SearchFiles(ctx context.Context, ownerID uuid.UUID, search string) ([]*entity.File, error) {
	query := `select ` + fileColumns + `
				from files
				where owner_id = $1 and (name ilike $2 escape '\' or description ilike $2 escape '\')
				order by number`

	pattern := "%" + escapeLike(search) + "%"
	return fs.list(ctx, "SearchFiles", query, ownerID, pattern)
}

func (fs *files) CountFilesInFolder(ctx context.Context, folderID uuid.UUID) (int, error) {
	var count int
	err := fs.pool.QueryRow(ctx, `select count(*) from files where folder_id = $1`, folderID).Scan(&count)
	if err != nil {
		fs.log.Error().Err(err).Str("op", "CountFilesInFolder").Msg("count files")
		return 0, appError.Internal()
	}
	return count, nil
}

func (fs *files) list(ctx context.Context, op, query string, args ...any) ([]*entity.File, error) {
	rows, err := fs.pool.Query(ctx, query, args...)
	if err != nil {
		fs.log.Error().Err(err).Str("op", op).Msg("select files")
		return nil, appError.Internal()
	}
	defer rows.Close()

	var out []*entity.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			fs.log.Error().Err(err).Str("op", op).Msg("scan file")
			return nil, appError.Internal()
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		fs.log.Error().Err(err).Str("op", op).Msg("iterate files")
		return nil, appError.Internal()
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

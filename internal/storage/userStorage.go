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

type users struct {
	pool postgres.DBPool
	log  zerolog.Logger
}

type UserStorage interface {
	AddUser(ctx context.Context, user *entity.User) error
	UpdateUser(ctx context.Context, user *entity.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, error)
}

func NewUserStorage(pool postgres.DBPool, log zerolog.Logger) UserStorage {
	return &users{
		pool: pool,
		log:  log,
	}
}

const userColumns = `id, username, email, password, role, is_email_verified, avatar, avatar_color,
	verification_token, verification_expires, created, updated`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		user  entity.User
		token *string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsEmailVerified,
		&user.Avatar,
		&user.AvatarColor,
		&token,
		&user.VerificationExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if token != nil {
		user.VerificationToken = *token
	}
	return &user, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (u *users) AddUser(ctx context.Context, user *entity.User) error {
	query := `insert into users(id, username, email, password, role, is_email_verified, avatar, avatar_color,
				verification_token, verification_expires, created, updated)
				values($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := u.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsEmailVerified,
		user.Avatar,
		user.AvatarColor,
		nullString(user.VerificationToken),
		user.VerificationExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "unique_email") {
			return appError.BadRequest("email is already registered")
		}
		u.log.Error().Err(err).Str("op", "AddUser").Msg("insert user")
		return appError.Internal()
	}

	return nil
}

func (u *users) UpdateUser(ctx context.Context, user *entity.User) error {
	query := `update users
				set username = $2, email = $3, password = $4, role = $5, is_email_verified = $6,
					avatar = $7, avatar_color = $8, verification_token = $9, verification_expires = $10,
					updated = $11
				where id = $1`

	tag, err := u.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsEmailVerified,
		user.Avatar,
		user.AvatarColor,
		nullString(user.VerificationToken),
		user.VerificationExpires,
		user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "unique_email") {
			return appError.BadRequest("email is already in use")
		}
		u.log.Error().Err(err).Str("op", "UpdateUser").Msg("update user")
		return appError.Internal()
	}
	if tag.RowsAffected() == 0 {
		return appError.NotFound("user not found")
	}
	return nil
}

func (u *users) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `select ` + userColumns + ` from users where id = $1`
	return u.getOne(ctx, "GetUserByID", query, id)
}

func (u *users) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `select ` + userColumns + ` from users where email = $1`
	return u.getOne(ctx, "GetUserByEmail", query, email)
}

func (u *users) GetUserByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	query := `select ` + userColumns + ` from users where verification_token = $1`
	return u.getOne(ctx, "GetUserByVerificationToken", query, token)
}

func (u *users) getOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	user, err := scanUser(u.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appError.NotFound("user not found")
		}
		u.log.Error().Err(err).Str("op", op).Msg("select user")
		return nil, appError.Internal()
	}
	return user, nil
}

func (u *users) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, error) {
	profiles := make(map[uuid.UUID]entity.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `select id, username, email, avatar, avatar_color
				from users
				where id = any($1)`

	rows, err := u.pool.Query(ctx, query, ids)
	if err != nil {
		u.log.Error().Err(err).Str("op", "GetProfiles").Msg("select profiles")
		return nil, appError.Internal()
	}
	defer rows.Close()

	for rows.Next() {
		var p entity.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.Avatar, &p.AvatarColor); err != nil {
			u.log.Error().Err(err).Str("op", "GetProfiles").Msg("scan profile")
			return nil, appError.Internal()
		}
		profiles[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		u.log.Error().Err(err).Str("op", "GetProfiles").Msg("iterate profiles")
		return nil, appError.Internal()
	}

	return profiles, nil
}

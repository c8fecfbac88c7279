package service

import (
	"FileCollab/internal/models/entity"
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

var nopLog = zerolog.Nop()

type mockUserStorage struct{ mock.Mock }

func (m *mockUserStorage) AddUser(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) GetUserByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStorage) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, error) {
	args := m.Called(ctx, ids)
	if profiles, ok := args.Get(0).(map[uuid.UUID]entity.Profile); ok {
		return profiles, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFolderStorage struct{ mock.Mock }

func (m *mockFolderStorage) AddFolder(ctx context.Context, folder *entity.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *mockFolderStorage) UpdateFolder(ctx context.Context, folder *entity.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *mockFolderStorage) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockFolderStorage) GetFolder(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	args := m.Called(ctx, id)
	if folder, ok := args.Get(0).(*entity.Folder); ok {
		// hand out a copy, services modify what they get
		cp := *folder
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFolderStorage) GetFoldersByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Folder, error) {
	args := m.Called(ctx, ownerID)
	if folders, ok := args.Get(0).([]*entity.Folder); ok {
		return folders, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFolderStorage) GetFoldersByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Folder, error) {
	args := m.Called(ctx, ids)
	if folders, ok := args.Get(0).([]*entity.Folder); ok {
		return folders, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFileStorage struct{ mock.Mock }

// cloneFile gives every GetFile call its own copy, as a real database would.
func cloneFile(f *entity.File) *entity.File {
	data, err := json.Marshal(f)
	if err != nil {
		panic(err)
	}
	var out entity.File
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *mockFileStorage) AddFile(ctx context.Context, file *entity.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *mockFileStorage) UpdateFile(ctx context.Context, file *entity.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *mockFileStorage) DeleteFile(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockFileStorage) GetFile(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	args := m.Called(ctx, id)
	if file, ok := args.Get(0).(*entity.File); ok {
		return cloneFile(file), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileStorage) GetFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.File, error) {
	args := m.Called(ctx, ownerID)
	if files, ok := args.Get(0).([]*entity.File); ok {
		return files, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileStorage) GetFilesByFolders(ctx context.Context, folderIDs []uuid.UUID) ([]*entity.File, error) {
	args := m.Called(ctx, folderIDs)
	if files, ok := args.Get(0).([]*entity.File); ok {
		return files, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileStorage) GetFilesByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.File, error) {
	args := m.Called(ctx, ids)
	if files, ok := args.Get(0).([]*entity.File); ok {
		return files, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileStorage) SearchFiles(ctx context.Context, ownerID uuid.UUID, query string) ([]*entity.File, error) {
	args := m.Called(ctx, ownerID, query)
	if files, ok := args.Get(0).([]*entity.File); ok {
		return files, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileStorage) CountFilesInFolder(ctx context.Context, folderID uuid.UUID) (int, error) {
	args := m.Called(ctx, folderID)
	return args.Int(0), args.Error(1)
}

type mockShareStorage struct{ mock.Mock }

func (m *mockShareStorage) AddShare(ctx context.Context, share *entity.Share) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

func (m *mockShareStorage) shares(args mock.Arguments) ([]*entity.Share, error) {
	if shares, ok := args.Get(0).([]*entity.Share); ok {
		return shares, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShareStorage) GetSharesForRecipient(ctx context.Context, userID uuid.UUID) ([]*entity.Share, error) {
	return m.shares(m.Called(ctx, userID))
}

func (m *mockShareStorage) GetSharesForFolderRecipient(ctx context.Context, folderID, userID uuid.UUID) ([]*entity.Share, error) {
	return m.shares(m.Called(ctx, folderID, userID))
}

func (m *mockShareStorage) GetSharesForResource(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) ([]*entity.Share, error) {
	return m.shares(m.Called(ctx, resourceType, id))
}

func (m *mockShareStorage) GetSharesInFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Share, error) {
	return m.shares(m.Called(ctx, folderID))
}

func (m *mockShareStorage) DeleteRecipientShares(ctx context.Context, resourceType entity.ResourceType, id, recipient uuid.UUID) (int64, error) {
	args := m.Called(ctx, resourceType, id, recipient)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockShareStorage) DeleteResourceShares(ctx context.Context, resourceType entity.ResourceType, id uuid.UUID) error {
	args := m.Called(ctx, resourceType, id)
	return args.Error(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	args := m.Called(ctx, key, size)
	return args.Error(0)
}

func (m *mockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

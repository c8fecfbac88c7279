package transport

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/service"
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, user *entity.User) (*entity.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(1).(*entity.User)
	return args.String(0), u, args.Error(2)
}

func (m *mockAuthService) Authenticate(ctx context.Context, tokenString string) (*entity.User, error) {
	args := m.Called(ctx, tokenString)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuthService) Me(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockAuthService) UpdateMe(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (*entity.User, error) {
	args := m.Called(ctx, id, update)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	return m.Called(ctx, id, oldPassword, newPassword).Error(0)
}

type mockFolderService struct {
	mock.Mock
}

func (m *mockFolderService) Create(ctx context.Context, owner *entity.User, name string, parentID *uuid.UUID) (*entity.Folder, error) {
	args := m.Called(ctx, owner, name, parentID)
	f, _ := args.Get(0).(*entity.Folder)
	return f, args.Error(1)
}

func (m *mockFolderService) Get(ctx context.Context, requester *entity.User, id uuid.UUID) (*service.FolderContents, error) {
	args := m.Called(ctx, requester, id)
	f, _ := args.Get(0).(*service.FolderContents)
	return f, args.Error(1)
}

func (m *mockFolderService) Update(ctx context.Context, requester *entity.User, id uuid.UUID, update service.FolderUpdate) (*entity.Folder, error) {
	args := m.Called(ctx, requester, id, update)
	f, _ := args.Get(0).(*entity.Folder)
	return f, args.Error(1)
}

func (m *mockFolderService) Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error {
	return m.Called(ctx, requester, id).Error(0)
}

type mockAccessService struct {
	mock.Mock
}

func (m *mockAccessService) ListFoldersForUser(ctx context.Context, userID uuid.UUID) (*service.FolderListing, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).(*service.FolderListing)
	return l, args.Error(1)
}

func (m *mockAccessService) GetFolderWithSharedFiles(ctx context.Context, folderID, userID uuid.UUID) (*service.FolderFiles, error) {
	args := m.Called(ctx, folderID, userID)
	f, _ := args.Get(0).(*service.FolderFiles)
	return f, args.Error(1)
}

func (m *mockAccessService) PermissionForFile(ctx context.Context, user *entity.User, file *entity.File) (entity.Permission, bool, error) {
	args := m.Called(ctx, user, file)
	return args.Get(0).(entity.Permission), args.Bool(1), args.Error(2)
}

func (m *mockAccessService) CanReadFile(ctx context.Context, user *entity.User, file *entity.File) (bool, error) {
	args := m.Called(ctx, user, file)
	return args.Bool(0), args.Error(1)
}

type mockFileService struct {
	mock.Mock
}

func (m *mockFileService) Upload(ctx context.Context, owner *entity.User, folderID uuid.UUID, uploads []service.Upload) ([]*entity.File, error) {
	args := m.Called(ctx, owner, folderID, uploads)
	f, _ := args.Get(0).([]*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) ListForUser(ctx context.Context, owner *entity.User) ([]*entity.File, error) {
	args := m.Called(ctx, owner)
	f, _ := args.Get(0).([]*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) Search(ctx context.Context, owner *entity.User, query string) ([]*entity.File, error) {
	args := m.Called(ctx, owner, query)
	f, _ := args.Get(0).([]*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) GetMetadata(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) UpdateDescription(ctx context.Context, requester *entity.User, id uuid.UUID, description string) (*entity.File, error) {
	args := m.Called(ctx, requester, id, description)
	f, _ := args.Get(0).(*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) Move(ctx context.Context, requester *entity.User, id, folderID uuid.UUID) (*entity.File, error) {
	args := m.Called(ctx, requester, id, folderID)
	f, _ := args.Get(0).(*entity.File)
	return f, args.Error(1)
}

func (m *mockFileService) Download(ctx context.Context, requester *entity.User, id uuid.UUID) (*entity.File, io.ReadCloser, error) {
	args := m.Called(ctx, requester, id)
	f, _ := args.Get(0).(*entity.File)
	r, _ := args.Get(1).(io.ReadCloser)
	return f, r, args.Error(2)
}

func (m *mockFileService) Versions(ctx context.Context, id uuid.UUID) ([]entity.Version, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).([]entity.Version)
	return v, args.Error(1)
}

func (m *mockFileService) UploadVersions(ctx context.Context, requester *entity.User, id uuid.UUID, uploads []service.Upload) ([]entity.Version, error) {
	args := m.Called(ctx, requester, id, uploads)
	v, _ := args.Get(0).([]entity.Version)
	return v, args.Error(1)
}

func (m *mockFileService) Delete(ctx context.Context, requester *entity.User, id uuid.UUID) error {
	return m.Called(ctx, requester, id).Error(0)
}

type mockAnnotationService struct {
	mock.Mock
}

func (m *mockAnnotationService) AddAnnotation(ctx context.Context, fileID uuid.UUID, x, y *float64, comments []service.CommentInput) (*entity.Annotation, error) {
	args := m.Called(ctx, fileID, x, y, comments)
	a, _ := args.Get(0).(*entity.Annotation)
	return a, args.Error(1)
}

func (m *mockAnnotationService) GetComments(ctx context.Context, fileID uuid.UUID, annotationID int) ([]entity.Comment, error) {
	args := m.Called(ctx, fileID, annotationID)
	c, _ := args.Get(0).([]entity.Comment)
	return c, args.Error(1)
}

func (m *mockAnnotationService) AddComment(ctx context.Context, fileID uuid.UUID, annotationID int, in service.CommentInput) (*entity.Comment, error) {
	args := m.Called(ctx, fileID, annotationID, in)
	c, _ := args.Get(0).(*entity.Comment)
	return c, args.Error(1)
}

func (m *mockAnnotationService) UpdateComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int, text string) (*entity.Comment, error) {
	args := m.Called(ctx, fileID, annotationID, commentID, text)
	c, _ := args.Get(0).(*entity.Comment)
	return c, args.Error(1)
}

func (m *mockAnnotationService) DeleteComment(ctx context.Context, fileID uuid.UUID, annotationID, commentID int) error {
	return m.Called(ctx, fileID, annotationID, commentID).Error(0)
}

func (m *mockAnnotationService) ResolveAnnotation(ctx context.Context, requester *entity.User, fileID uuid.UUID, annotationID int, resolved bool) (*entity.Annotation, error) {
	args := m.Called(ctx, requester, fileID, annotationID, resolved)
	a, _ := args.Get(0).(*entity.Annotation)
	return a, args.Error(1)
}

func (m *mockAnnotationService) ApproveDocument(ctx context.Context, fileID uuid.UUID, author service.AuthorInput) (*entity.File, error) {
	args := m.Called(ctx, fileID, author)
	f, _ := args.Get(0).(*entity.File)
	return f, args.Error(1)
}

type mockShareService struct {
	mock.Mock
}

func (m *mockShareService) CreateShare(ctx context.Context, sharer *entity.User, req service.ShareRequest) (*service.ShareResult, error) {
	args := m.Called(ctx, sharer, req)
	r, _ := args.Get(0).(*service.ShareResult)
	return r, args.Error(1)
}

func (m *mockShareService) ListRecipients(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID) ([]service.Recipient, error) {
	args := m.Called(ctx, requester, resourceType, resourceID)
	r, _ := args.Get(0).([]service.Recipient)
	return r, args.Error(1)
}

func (m *mockShareService) RemoveShare(ctx context.Context, requester *entity.User, resourceType entity.ResourceType, resourceID uuid.UUID, email string) error {
	return m.Called(ctx, requester, resourceType, resourceID, email).Error(0)
}

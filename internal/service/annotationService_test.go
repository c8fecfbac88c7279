package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func newAnnotationFixture() (*mockFileStorage, *mockUserStorage, AnnotationService) {
	files := new(mockFileStorage)
	users := new(mockUserStorage)
	return files, users, NewAnnotationService(files, users, nil, nopLog)
}

// captureSave records every document passed to UpdateFile.
func captureSave(files *mockFileStorage, results ...error) *[]*entity.File {
	saved := &[]*entity.File{}
	for _, res := range results {
		files.On("UpdateFile", mock.Anything, mock.AnythingOfType("*entity.File")).
			Run(func(args mock.Arguments) {
				*saved = append(*saved, cloneFile(args.Get(1).(*entity.File)))
			}).
			Return(res).Once()
	}
	return saved
}

func TestAnnotationService_AddAnnotation(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.New()

	testCases := []struct {
		name     string
		existing []entity.Annotation
		x, y     *float64
		expectID int
		errCode  int
	}{
		{name: "first annotation", x: floatPtr(10), y: floatPtr(20), expectID: 1},
		{name: "after existing", existing: []entity.Annotation{{ID: 1}, {ID: 2}}, x: floatPtr(0), y: floatPtr(0), expectID: 3},
		{name: "missing x", y: floatPtr(1), errCode: 400},
		{name: "missing y", x: floatPtr(1), errCode: 400},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files, _, svc := newAnnotationFixture()
			if tc.errCode == 0 {
				files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Annotations: tc.existing}, nil).Once()
				captureSave(files, nil)
			}

			a, err := svc.AddAnnotation(ctx, fileID, tc.x, tc.y, nil)
			if tc.errCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.errCode, appError.CodeOf(err))
				files.AssertNotCalled(t, "GetFile", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectID, a.ID)
			assert.False(t, a.Resolved)
			files.AssertExpectations(t)
		})
	}
}

func TestAnnotationService_AddAnnotation_FileMissing(t *testing.T) {
	ctx := context.Background()
	files, _, svc := newAnnotationFixture()
	fileID := uuid.New()
	files.On("GetFile", ctx, fileID).Return(nil, appError.NotFound("Document not found")).Once()

	_, err := svc.AddAnnotation(ctx, fileID, floatPtr(1), floatPtr(1), nil)
	assert.Equal(t, 404, appError.CodeOf(err))
}

func TestAnnotationService_RetriesOnRevisionConflict(t *testing.T) {
	ctx := context.Background()
	files := new(mockFileStorage)
	m := metrics.New()
	svc := NewAnnotationService(files, new(mockUserStorage), m, nopLog)
	fileID := uuid.New()

	// someone else added annotation 2 between our read and our save
	files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Annotations: []entity.Annotation{{ID: 1}}}, nil).Once()
	files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Revision: 1, Annotations: []entity.Annotation{{ID: 1}, {ID: 2}}}, nil).Once()
	saved := captureSave(files, storage.ErrRevisionConflict, nil)

	a, err := svc.AddAnnotation(ctx, fileID, floatPtr(5), floatPtr(5), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, a.ID)

	require.Len(t, *saved, 2)
	last := (*saved)[1]
	assert.Len(t, last.Annotations, 3)
	expected := `
# HELP filecollab_file_save_conflicts_total File saves rejected by the revision check.
# TYPE filecollab_file_save_conflicts_total counter
filecollab_file_save_conflicts_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "filecollab_file_save_conflicts_total"))
}

func TestAnnotationService_ConflictAfterRetries(t *testing.T) {
	ctx := context.Background()
	files, _, svc := newAnnotationFixture()
	fileID := uuid.New()

	files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID}, nil).Times(maxSaveAttempts)
	captureSave(files, storage.ErrRevisionConflict, storage.ErrRevisionConflict, storage.ErrRevisionConflict)

	_, err := svc.AddAnnotation(ctx, fileID, floatPtr(1), floatPtr(1), nil)
	require.Error(t, err)
	assert.Equal(t, 409, appError.CodeOf(err))
	files.AssertExpectations(t)
}

func TestAnnotationService_CommentScenario(t *testing.T) {
	// add annotation, comments 1 and 2, delete 1, next comment is 3
	ctx := context.Background()
	files, users, svc := newAnnotationFixture()
	fileID := uuid.New()
	userID := uuid.New()

	doc := &entity.File{ID: fileID}
	files.On("GetFile", ctx, fileID).Return(doc, nil)
	files.On("UpdateFile", mock.Anything, mock.AnythingOfType("*entity.File")).
		Run(func(args mock.Arguments) {
			*doc = *cloneFile(args.Get(1).(*entity.File))
		}).
		Return(nil)
	users.On("GetUserByID", ctx, userID).Return(&entity.User{ID: userID, Avatar: "a.png", AvatarColor: "#fff"}, nil)

	a, err := svc.AddAnnotation(ctx, fileID, floatPtr(10), floatPtr(20), nil)
	require.NoError(t, err)
	require.Equal(t, 1, a.ID)

	c1, err := svc.AddComment(ctx, fileID, 1, CommentInput{Author: AuthorInput{GuestName: "Alice"}, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, c1.ID)
	name, isGuest := c1.Author.GuestName()
	assert.True(t, isGuest)
	assert.Equal(t, "Alice", name)

	c2, err := svc.AddComment(ctx, fileID, 1, CommentInput{Author: AuthorInput{UserID: &userID, Avatar: "ignored.png"}, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 2, c2.ID)
	assert.True(t, c2.Author.IsUser(userID))
	assert.Equal(t, "a.png", c2.Avatar)

	require.NoError(t, svc.DeleteComment(ctx, fileID, 1, 1))

	c3, err := svc.AddComment(ctx, fileID, 1, CommentInput{Author: AuthorInput{GuestName: "Bob"}, Text: "hey"})
	require.NoError(t, err)
	assert.Equal(t, 3, c3.ID)

	comments, err := svc.GetComments(ctx, fileID, 1)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, 2, comments[0].ID)
	assert.Equal(t, 3, comments[1].ID)
}

func TestAnnotationService_CommentErrors(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.New()
	unknown := uuid.New()
	doc := &entity.File{ID: fileID, Annotations: []entity.Annotation{{
		ID:       1,
		Comments: []entity.Comment{{ID: 1, Author: entity.GuestAuthor("x"), Text: "one"}},
	}}}

	testCases := []struct {
		name    string
		run     func(svc AnnotationService) error
		errCode int
	}{
		{
			name: "empty text",
			run: func(svc AnnotationService) error {
				_, err := svc.AddComment(ctx, fileID, 1, CommentInput{Text: "   "})
				return err
			},
			errCode: 400,
		},
		{
			name: "missing annotation",
			run: func(svc AnnotationService) error {
				_, err := svc.AddComment(ctx, fileID, 9, CommentInput{Text: "x"})
				return err
			},
			errCode: 404,
		},
		{
			name: "unknown user",
			run: func(svc AnnotationService) error {
				_, err := svc.AddComment(ctx, fileID, 1, CommentInput{Author: AuthorInput{UserID: &unknown}, Text: "x"})
				return err
			},
			errCode: 404,
		},
		{
			name: "update with empty text",
			run: func(svc AnnotationService) error {
				_, err := svc.UpdateComment(ctx, fileID, 1, 1, "")
				return err
			},
			errCode: 400,
		},
		{
			name: "update missing comment",
			run: func(svc AnnotationService) error {
				_, err := svc.UpdateComment(ctx, fileID, 1, 7, "x")
				return err
			},
			errCode: 404,
		},
		{
			name: "delete missing comment",
			run: func(svc AnnotationService) error {
				return svc.DeleteComment(ctx, fileID, 1, 7)
			},
			errCode: 404,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files, users, svc := newAnnotationFixture()
			files.On("GetFile", ctx, fileID).Return(doc, nil).Maybe()
			users.On("GetUserByID", ctx, unknown).Return(nil, appError.NotFound("user not found")).Maybe()

			err := tc.run(svc)
			require.Error(t, err)
			assert.Equal(t, tc.errCode, appError.CodeOf(err))
			files.AssertNotCalled(t, "UpdateFile", mock.Anything, mock.Anything)
		})
	}
}

func TestAnnotationService_BlankTextBeforeLookup(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.New()

	testCases := []struct {
		name string
		run  func(svc AnnotationService) error
	}{
		{
			name: "add on missing annotation",
			run: func(svc AnnotationService) error {
				_, err := svc.AddComment(ctx, fileID, 9, CommentInput{Text: " \t "})
				return err
			},
		},
		{
			name: "update on missing annotation",
			run: func(svc AnnotationService) error {
				_, err := svc.UpdateComment(ctx, fileID, 9, 1, "  ")
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files, users, svc := newAnnotationFixture()

			err := tc.run(svc)
			require.Error(t, err)
			assert.Equal(t, 400, appError.CodeOf(err))
			files.AssertNotCalled(t, "GetFile", mock.Anything, mock.Anything)
			users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
		})
	}
}

func TestAnnotationService_UpdateComment(t *testing.T) {
	ctx := context.Background()
	files, _, svc := newAnnotationFixture()
	fileID := uuid.New()
	author := entity.UserAuthor(uuid.New())

	files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Annotations: []entity.Annotation{{
		ID:       1,
		Comments: []entity.Comment{{ID: 1, Author: author, Text: "draft"}},
	}}}, nil).Once()
	saved := captureSave(files, nil)

	c, err := svc.UpdateComment(ctx, fileID, 1, 1, "  final ")
	require.NoError(t, err)
	assert.Equal(t, "final", c.Text)
	assert.True(t, c.Edited)
	assert.Equal(t, author, c.Author)
	assert.Equal(t, "final", (*saved)[0].Annotations[0].Comments[0].Text)
}

func TestAnnotationService_ResolveAnnotation(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	fileID := uuid.New()
	doc := &entity.File{ID: fileID, OwnerID: ownerID, Annotations: []entity.Annotation{{ID: 1}}}

	testCases := []struct {
		name      string
		requester *entity.User
		errCode   int
	}{
		{name: "owner", requester: &entity.User{ID: ownerID, Role: entity.RoleUser}},
		{name: "admin", requester: &entity.User{ID: uuid.New(), Role: entity.RoleAdmin}},
		{name: "someone else", requester: &entity.User{ID: uuid.New(), Role: entity.RoleUser}, errCode: 403},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files, _, svc := newAnnotationFixture()
			files.On("GetFile", ctx, fileID).Return(doc, nil).Once()
			if tc.errCode == 0 {
				captureSave(files, nil)
			}

			a, err := svc.ResolveAnnotation(ctx, tc.requester, fileID, 1, true)
			if tc.errCode != 0 {
				assert.Equal(t, tc.errCode, appError.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, a.Resolved)
			require.NotNil(t, a.ResolvedBy)
			assert.Equal(t, tc.requester.ID, *a.ResolvedBy)
		})
	}
}

func TestAnnotationService_ApproveDocument(t *testing.T) {
	ctx := context.Background()
	fileID := uuid.New()
	u5 := uuid.New()
	unknown := uuid.New()

	t.Run("registered user replaces own approval", func(t *testing.T) {
		files, users, svc := newAnnotationFixture()
		files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Approvals: []entity.Approval{
			{Author: entity.UserAuthor(u5)},
			{Author: entity.GuestAuthor("Sam")},
		}}, nil).Once()
		captureSave(files, nil)
		users.On("GetUserByID", ctx, u5).Return(&entity.User{ID: u5, AvatarColor: "#123"}, nil).Once()

		file, err := svc.ApproveDocument(ctx, fileID, AuthorInput{UserID: &u5})
		require.NoError(t, err)
		require.Len(t, file.Approvals, 2)
		assert.True(t, file.Approvals[1].Author.IsUser(u5))
		assert.Equal(t, "#123", file.Approvals[1].AvatarColor)
	})

	t.Run("guests always append", func(t *testing.T) {
		files, _, svc := newAnnotationFixture()
		files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Approvals: []entity.Approval{
			{Author: entity.GuestAuthor("Sam")},
		}}, nil).Once()
		captureSave(files, nil)

		file, err := svc.ApproveDocument(ctx, fileID, AuthorInput{GuestName: "Sam"})
		require.NoError(t, err)
		assert.Len(t, file.Approvals, 2)
	})

	t.Run("unknown user approves as guest", func(t *testing.T) {
		files, users, svc := newAnnotationFixture()
		files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID}, nil).Once()
		captureSave(files, nil)
		users.On("GetUserByID", ctx, unknown).Return(nil, appError.NotFound("user not found")).Once()

		file, err := svc.ApproveDocument(ctx, fileID, AuthorInput{UserID: &unknown, GuestName: "Visitor"})
		require.NoError(t, err)
		require.Len(t, file.Approvals, 1)
		name, ok := file.Approvals[0].Author.GuestName()
		assert.True(t, ok)
		assert.Equal(t, "Visitor", name)
	})

	t.Run("unknown user replaces approvals under that id", func(t *testing.T) {
		files, users, svc := newAnnotationFixture()
		files.On("GetFile", ctx, fileID).Return(&entity.File{ID: fileID, Approvals: []entity.Approval{
			{Author: entity.UserAuthor(unknown)},
			{Author: entity.GuestAuthor("Sam")},
		}}, nil).Once()
		saved := captureSave(files, nil)
		users.On("GetUserByID", ctx, unknown).Return(nil, appError.NotFound("user not found")).Once()

		file, err := svc.ApproveDocument(ctx, fileID, AuthorInput{UserID: &unknown, GuestName: "Visitor"})
		require.NoError(t, err)
		require.Len(t, file.Approvals, 2)
		for _, a := range file.Approvals {
			assert.False(t, a.Author.IsUser(unknown))
		}
		name, ok := file.Approvals[1].Author.GuestName()
		assert.True(t, ok)
		assert.Equal(t, "Visitor", name)
		assert.Len(t, (*saved)[0].Approvals, 2)
	})

	t.Run("identity store failure", func(t *testing.T) {
		_, users, svc := newAnnotationFixture()
		users.On("GetUserByID", ctx, u5).Return(nil, appError.Internal()).Once()

		_, err := svc.ApproveDocument(ctx, fileID, AuthorInput{UserID: &u5})
		assert.Equal(t, 500, appError.CodeOf(err))
	})
}

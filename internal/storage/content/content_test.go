package content

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "files/a.txt", strings.NewReader("payload"), 7))

	rc, err := store.Get(ctx, "files/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(ctx, "files/a.txt"))
	_, err = store.Get(ctx, "files/a.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "files/a.txt"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../outside", strings.NewReader("x"), 1)
	assert.Error(t, err)
}

func TestNewKey(t *testing.T) {
	key := NewKey("files", "Report.PDF")
	assert.True(t, strings.HasPrefix(key, "files/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotEqual(t, key, NewKey("files", "Report.PDF"))
}

type mockS3 struct{ mock.Mock }

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Key))
	if body, ok := args.Get(0).(string); ok {
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	store := NewS3Store(client, "bucket", "tenant")

	client.On("PutObject", ctx, "tenant/files/a.pdf").Return(nil).Once()
	client.On("GetObject", ctx, "tenant/files/a.pdf").Return("pdf-bytes", nil).Once()
	client.On("GetObject", ctx, "tenant/files/missing.pdf").Return(nil, &types.NoSuchKey{}).Once()
	client.On("DeleteObject", ctx, "tenant/files/a.pdf").Return(nil).Once()

	require.NoError(t, store.Put(ctx, "files/a.pdf", strings.NewReader("pdf-bytes"), 9))

	rc, err := store.Get(ctx, "files/a.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf-bytes", string(data))

	_, err = store.Get(ctx, "files/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "files/a.pdf"))
	client.AssertExpectations(t)
}

package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/file"
)

func TestLocalStorage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := file.NewLocalStorage(dir, "/media")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := st.Put(ctx, "subscriptions/receipts/r1.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "subscriptions/receipts/r1.pdf", obj.Key)
	assert.Equal(t, "/media/subscriptions/receipts/r1.pdf", obj.URL)
	assert.Equal(t, int64(4), obj.Size)

	data, err := os.ReadFile(filepath.Join(dir, "subscriptions", "receipts", "r1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	ok, err := st.Exists(ctx, "subscriptions/receipts/r1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(ctx, "subscriptions/receipts/r1.pdf"))
	ok, err = st.Exists(ctx, "subscriptions/receipts/r1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, st.Delete(ctx, "subscriptions/receipts/r1.pdf"), file.ErrFileNotFound)
}

func TestLocalStorage_RejectsBadKeys(t *testing.T) {
	t.Parallel()

	st, err := file.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../x.pdf", "a/../../x.pdf"} {
		_, err := st.Put(context.Background(), key, []byte("x"), "text/plain")
		assert.ErrorIs(t, err, file.ErrInvalidKey, key)
	}

	_, err = st.Put(context.Background(), "a.pdf", nil, "application/pdf")
	assert.ErrorIs(t, err, file.ErrEmptyContent)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestS3Storage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := new(mockS3)
	st, err := file.NewS3Storage(ctx, file.S3Config{Bucket: "gym", Region: "ap-south-1"}, file.WithS3Client(client))
	require.NoError(t, err)

	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "gym" && *in.Key == "receipts/a.pdf" && *in.ContentType == "application/pdf"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	obj, err := st.Put(ctx, "receipts/a.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://gym.s3.ap-south-1.amazonaws.com/receipts/a.pdf", obj.URL)

	client.On("HeadObject", ctx, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "NotFound", Message: "missing"}).Once()
	ok, err := st.Exists(ctx, "receipts/b.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	client.On("DeleteObject", ctx, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}).Once()
	err = st.Delete(ctx, "receipts/a.pdf")
	assert.ErrorIs(t, err, file.ErrAccessDenied)
	assert.ErrorIs(t, err, file.ErrFailedToDelete)

	client.AssertExpectations(t)
}

func TestS3Storage_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := file.NewS3Storage(context.Background(), file.S3Config{})
	assert.True(t, errors.Is(err, file.ErrInvalidConfig))
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	st, err := file.NewFromConfig(context.Background(), file.Config{Backend: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &file.LocalStorage{}, st)

	_, err = file.NewFromConfig(context.Background(), file.Config{Backend: "ftp"})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}

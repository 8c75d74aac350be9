package upload

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"s3put/internal/storage"
)

const testBucket = "test-bucket"

// newLocalStore gives each test its own store with testBucket created, and
// purges and removes the bucket afterwards.
func newLocalStore(t *testing.T) *storage.LocalClient {
	t.Helper()

	ctx := context.Background()
	store := storage.NewLocalClient(t.TempDir())
	require.NoError(t, storage.CreateBucket(ctx, store, testBucket, ""))
	t.Cleanup(func() {
		_, err := storage.DeleteBucket(ctx, store, testBucket, true)
		require.NoError(t, err)
	})
	return store
}

func uniqueBucket(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

type fakePutAPI struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
	out    *s3.PutObjectOutput
	err    error
}

func (f *fakePutAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body []byte
	if params.Body != nil {
		b, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakePutAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeGetAPI struct {
	getFn func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

func (f *fakeGetAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getFn == nil {
		return nil, errors.New("unexpected get object call")
	}
	return f.getFn(ctx, params)
}

type errReadCloser struct{}

func (errReadCloser) Read(_ []byte) (int, error) { return 0, errors.New("read failure") }
func (errReadCloser) Close() error               { return nil }

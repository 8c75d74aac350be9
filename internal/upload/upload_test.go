package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s3put/internal/storage"
)

func TestUploadStoresContentType(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	objectKey := "test.txt"
	fileContent := []byte("Hello, world!")
	contentType := "text/plain"

	result, err := New(store).Upload(ctx, testBucket, objectKey, fileContent, contentType)
	require.NoError(t, err)
	assert.Equal(t, testBucket, result.Bucket)
	assert.Equal(t, objectKey, result.Key)
	assert.Equal(t, int64(len(fileContent)), result.Size)
	assert.NotEmpty(t, result.ETag)

	out, err := store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(testBucket),
		Key:    aws.String(objectKey),
	})
	require.NoError(t, err)
	defer out.Body.Close()

	assert.Equal(t, contentType, aws.ToString(out.ContentType))
	obj, err := NewReader(store).Get(ctx, testBucket, objectKey)
	require.NoError(t, err)
	assert.Equal(t, fileContent, obj.Body)
	assert.Equal(t, contentType, obj.ContentType)
	assert.Equal(t, result.ETag, obj.ETag)
}

func TestUploadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	uploader := New(store)
	reader := NewReader(store)

	binary := make([]byte, 256)
	for i := range binary {
		binary[i] = byte(i)
	}

	tests := []struct {
		name        string
		key         string
		payload     []byte
		contentType string
	}{
		{name: "empty payload", key: "empty", payload: []byte{}, contentType: "application/octet-stream"},
		{name: "nil payload", key: "nil", payload: nil, contentType: "application/octet-stream"},
		{name: "non utf8 bytes", key: "bytes/ff", payload: []byte{0xff, 0xfe, 0x00, 0xc3, 0x28}, contentType: "application/octet-stream"},
		{name: "all byte values", key: "bytes/all", payload: binary, contentType: "application/x-binary"},
		{name: "content type parameters", key: "docs/readme.txt", payload: []byte("héllo"), contentType: "text/plain; charset=utf-8"},
		{name: "json", key: "folder/hello.json", payload: []byte(`{"hello":"world"}`), contentType: "application/json"},
		{name: "opaque key structure", key: "a//b/../c", payload: []byte("x"), contentType: "text/plain"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uploader.Upload(ctx, testBucket, tc.key, tc.payload, tc.contentType)
			require.NoError(t, err)

			obj, err := reader.Get(ctx, testBucket, tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.contentType, obj.ContentType)
			assert.Len(t, obj.Body, len(tc.payload))
			if len(tc.payload) > 0 {
				assert.Equal(t, tc.payload, obj.Body)
			}
		})
	}
}

func TestUploadOverwritesExistingKey(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	uploader := New(store)

	_, err := uploader.Upload(ctx, testBucket, "folder/hello.txt", []byte("first"), "text/plain")
	require.NoError(t, err)
	_, err = uploader.Upload(ctx, testBucket, "folder/hello.txt", []byte("second payload"), "text/markdown")
	require.NoError(t, err)

	obj, err := NewReader(store).Get(ctx, testBucket, "folder/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second payload"), obj.Body)
	assert.Equal(t, "text/markdown", obj.ContentType)

	keys, err := storage.ListKeys(ctx, store, testBucket, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"folder/hello.txt"}, keys)
}

func TestUploadRejectsInvalidArgumentsWithoutRequest(t *testing.T) {
	tests := []struct {
		name        string
		bucket      string
		key         string
		contentType string
	}{
		{name: "empty bucket", bucket: "", key: "k", contentType: "text/plain"},
		{name: "empty key", bucket: testBucket, key: "", contentType: "text/plain"},
		{name: "empty content type", bucket: testBucket, key: "k", contentType: ""},
		{name: "blank content type", bucket: testBucket, key: "k", contentType: "   "},
		{name: "uppercase bucket", bucket: "Test-Bucket", key: "k", contentType: "text/plain"},
		{name: "short bucket", bucket: "ab", key: "k", contentType: "text/plain"},
		{name: "ip bucket", bucket: "192.168.1.10", key: "k", contentType: "text/plain"},
		{name: "key too long", bucket: testBucket, key: string(make([]byte, 1025)), contentType: "text/plain"},
		{name: "key not utf8", bucket: testBucket, key: "bad\xff", contentType: "text/plain"},
		{name: "content type without subtype", bucket: testBucket, key: "k", contentType: "text"},
		{name: "content type with empty subtype", bucket: testBucket, key: "k", contentType: "text/"},
		{name: "content type bad params", bucket: testBucket, key: "k", contentType: "text/plain; =x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakePutAPI{}
			_, err := New(api).Upload(context.Background(), tc.bucket, tc.key, []byte("payload"), tc.contentType)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.False(t, IsRetryable(err))
			assert.Zero(t, api.calls(), "no store request expected")

			var uploadErr *Error
			require.ErrorAs(t, err, &uploadErr)
			assert.Equal(t, "put", uploadErr.Op)
		})
	}
}

func TestUploadMissingBucket(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	missing := uniqueBucket("missing")

	_, err := New(store).Upload(ctx, missing, "test.txt", []byte("Hello, world!"), "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBucketNotFound)

	var noSuchBucket *types.NoSuchBucket
	assert.ErrorAs(t, err, &noSuchBucket)
	assert.Contains(t, err.Error(), fmt.Sprintf("s3.put %s/test.txt: bucket not found", missing))

	_, err = storage.ListKeys(ctx, store, missing, "")
	assert.ErrorAs(t, err, &noSuchBucket, "bucket must not be created by a failed upload")

	keys, err := storage.ListKeys(ctx, store, testBucket, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUploadSendsSinglePutRequest(t *testing.T) {
	api := &fakePutAPI{
		out: &s3.PutObjectOutput{
			ETag:           aws.String(`"abc"`),
			VersionId:      aws.String("v1"),
			ChecksumSHA256: aws.String("c2hh"),
		},
	}
	start := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(150 * time.Millisecond)}
	clock := func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}

	result, err := New(api, WithChecksum(), withClock(clock)).
		Upload(context.Background(), testBucket, "folder/hello.txt", []byte("Hello World!"), "text/plain")
	require.NoError(t, err)

	require.Equal(t, 1, api.calls())
	input := api.inputs[0]
	assert.Equal(t, testBucket, aws.ToString(input.Bucket))
	assert.Equal(t, "folder/hello.txt", aws.ToString(input.Key))
	assert.Equal(t, "text/plain", aws.ToString(input.ContentType))
	assert.Equal(t, int64(len("Hello World!")), aws.ToInt64(input.ContentLength))
	assert.Equal(t, types.ChecksumAlgorithmSha256, input.ChecksumAlgorithm)
	assert.Equal(t, "Hello World!", string(api.bodies[0]))

	assert.Equal(t, `"abc"`, result.ETag)
	assert.Equal(t, "v1", result.VersionID)
	assert.Equal(t, "c2hh", result.ChecksumSHA256)
	assert.Equal(t, 150*time.Millisecond, result.Duration)
}

func TestUploadWithoutChecksumLeavesAlgorithmUnset(t *testing.T) {
	api := &fakePutAPI{}
	_, err := New(api).Upload(context.Background(), testBucket, "k", nil, "text/plain")
	require.NoError(t, err)
	require.Equal(t, 1, api.calls())
	assert.Empty(t, api.inputs[0].ChecksumAlgorithm)
	assert.Equal(t, int64(0), aws.ToInt64(api.inputs[0].ContentLength))
}

func TestUploadChecksumAgainstLocalStore(t *testing.T) {
	store := newLocalStore(t)

	result, err := New(store, WithChecksum()).Upload(context.Background(), testBucket, "sum.txt", []byte("abc"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0=", result.ChecksumSHA256)
}

func TestUploadSurfacesBackendErrors(t *testing.T) {
	api := &fakePutAPI{err: &types.NoSuchBucket{Message: aws.String("nope")}}
	_, err := New(api).Upload(context.Background(), testBucket, "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBucketNotFound)
	assert.Equal(t, 1, api.calls())

	api = &fakePutAPI{err: errors.New("boom")}
	_, err = New(api).Upload(context.Background(), testBucket, "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.EqualError(t, err, "s3.put test-bucket/k: boom")
	assert.False(t, IsRetryable(err))
}

func TestUploadCancelledContextIsNotRetryable(t *testing.T) {
	store := newLocalStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store).Upload(ctx, testBucket, "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))

	keys, err := storage.ListKeys(context.Background(), store, testBucket, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUploadRequiresClient(t *testing.T) {
	_, err := New(nil).Upload(context.Background(), testBucket, "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store client is not configured")
}

func TestUploadConcurrentCallsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	uploader := New(store)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("concurrent/%02d", i)
			if _, err := uploader.Upload(ctx, testBucket, key, []byte(key), "text/plain"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	keys, err := storage.ListKeys(ctx, store, testBucket, "concurrent/")
	require.NoError(t, err)
	assert.Len(t, keys, workers)

	reader := NewReader(store)
	for _, key := range keys {
		obj, err := reader.Get(ctx, testBucket, key)
		require.NoError(t, err)
		assert.Equal(t, key, string(obj.Body))
	}
}

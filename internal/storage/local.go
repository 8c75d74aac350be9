package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	localObjectExt     = ".obj"
	defaultContentType = "binary/octet-stream"
	defaultMaxKeys     = 1000
)

// LocalClient stores buckets as directories under rootDir. Each object is a
// single file named after the SHA-256 of its key, so any key is accepted and a
// put lands with one rename.
type LocalClient struct {
	rootDir string
	mu      sync.Mutex
	now     func() time.Time
}

type localObject struct {
	Key            string            `json:"key"`
	ContentType    string            `json:"content_type"`
	ETag           string            `json:"etag"`
	ChecksumSHA256 string            `json:"checksum_sha256,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	LastModified   time.Time         `json:"last_modified"`
	Body           []byte            `json:"body"`
}

func NewLocalClient(rootDir string) *LocalClient {
	return &LocalClient{rootDir: rootDir, now: time.Now}
}

func (c *LocalClient) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing put object input")
	}
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)
	bucketDir, err := c.existingBucketDir(bucket)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalidArgument("object key is required")
	}

	var body []byte
	if params.Body != nil {
		body, err = io.ReadAll(params.Body)
		if err != nil {
			return nil, fmt.Errorf("read object body: %w", err)
		}
	}
	if params.ContentLength != nil && *params.ContentLength != int64(len(body)) {
		return nil, &smithy.GenericAPIError{Code: "IncompleteBody", Message: "content length does not match body"}
	}

	obj := localObject{
		Key:          key,
		ContentType:  aws.ToString(params.ContentType),
		ETag:         etagFor(body),
		Metadata:     params.Metadata,
		LastModified: c.now().UTC(),
		Body:         body,
	}
	if obj.ContentType == "" {
		obj.ContentType = defaultContentType
	}
	if params.ChecksumAlgorithm == types.ChecksumAlgorithmSha256 || params.ChecksumSHA256 != nil {
		sum := sha256.Sum256(body)
		obj.ChecksumSHA256 = base64.StdEncoding.EncodeToString(sum[:])
		if want := aws.ToString(params.ChecksumSHA256); want != "" && want != obj.ChecksumSHA256 {
			return nil, &smithy.GenericAPIError{Code: "BadDigest", Message: "sha256 checksum does not match body"}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.writeObject(bucketDir, obj); err != nil {
		return nil, err
	}

	out := &s3.PutObjectOutput{ETag: aws.String(obj.ETag)}
	if obj.ChecksumSHA256 != "" {
		out.ChecksumSHA256 = aws.String(obj.ChecksumSHA256)
	}
	return out, nil
}

func (c *LocalClient) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing get object input")
	}
	obj, err := c.readObject(aws.ToString(params.Bucket), aws.ToString(params.Key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &types.NoSuchKey{Message: aws.String("the specified key does not exist")}
		}
		return nil, err
	}

	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.Body)),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
		Metadata:      obj.Metadata,
	}
	if obj.ChecksumSHA256 != "" {
		out.ChecksumSHA256 = aws.String(obj.ChecksumSHA256)
	}
	return out, nil
}

func (c *LocalClient) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing head object input")
	}
	obj, err := c.readObject(aws.ToString(params.Bucket), aws.ToString(params.Key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &types.NotFound{Message: aws.String("not found")}
		}
		return nil, err
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
		Metadata:      obj.Metadata,
	}, nil
}

func (c *LocalClient) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing delete object input")
	}
	bucketDir, err := c.existingBucketDir(aws.ToString(params.Bucket))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = os.Remove(objectPath(bucketDir, aws.ToString(params.Key)))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (c *LocalClient) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing list objects input")
	}
	bucket := aws.ToString(params.Bucket)
	bucketDir, err := c.existingBucketDir(bucket)
	if err != nil {
		return nil, err
	}

	objects, err := c.scanBucket(bucketDir)
	if err != nil {
		return nil, err
	}

	prefix := aws.ToString(params.Prefix)
	after := aws.ToString(params.StartAfter)
	if token := aws.ToString(params.ContinuationToken); token != "" {
		after = token
	}
	maxKeys := defaultMaxKeys
	if params.MaxKeys != nil && *params.MaxKeys > 0 && int(*params.MaxKeys) < defaultMaxKeys {
		maxKeys = int(*params.MaxKeys)
	}

	out := &s3.ListObjectsV2Output{
		Name:        aws.String(bucket),
		Prefix:      params.Prefix,
		MaxKeys:     aws.Int32(int32(maxKeys)),
		IsTruncated: aws.Bool(false),
	}
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, prefix) || (after != "" && obj.Key <= after) {
			continue
		}
		if len(out.Contents) == maxKeys {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = out.Contents[len(out.Contents)-1].Key
			break
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(obj.Key),
			Size:         aws.Int64(int64(len(obj.Body))),
			ETag:         aws.String(obj.ETag),
			LastModified: aws.Time(obj.LastModified),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func (c *LocalClient) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing create bucket input")
	}
	bucket := aws.ToString(params.Bucket)
	bucketDir, err := c.bucketDir(bucket)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(bucketDir); err == nil {
		return nil, &types.BucketAlreadyOwnedByYou{Message: aws.String("bucket already exists")}
	}
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return nil, err
	}
	return &s3.CreateBucketOutput{Location: aws.String("/" + bucket)}, nil
}

func (c *LocalClient) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, invalidArgument("missing delete bucket input")
	}
	bucketDir, err := c.existingBucketDir(aws.ToString(params.Bucket))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(bucketDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), localObjectExt) {
			return nil, &smithy.GenericAPIError{Code: "BucketNotEmpty", Message: "the bucket you tried to delete is not empty"}
		}
	}
	if err := os.RemoveAll(bucketDir); err != nil {
		return nil, err
	}
	return &s3.DeleteBucketOutput{}, nil
}

func (c *LocalClient) bucketDir(bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", &smithy.GenericAPIError{Code: "InvalidBucketName", Message: fmt.Sprintf("invalid bucket name %q", bucket)}
	}
	return filepath.Join(c.rootDir, bucket), nil
}

func (c *LocalClient) existingBucketDir(bucket string) (string, error) {
	dir, err := c.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &types.NoSuchBucket{Message: aws.String("the specified bucket does not exist")}
		}
		return "", err
	}
	if !info.IsDir() {
		return "", &types.NoSuchBucket{Message: aws.String("the specified bucket does not exist")}
	}
	return dir, nil
}

func (c *LocalClient) readObject(bucket, key string) (*localObject, error) {
	bucketDir, err := c.existingBucketDir(bucket)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalidArgument("object key is required")
	}
	return decodeObject(objectPath(bucketDir, key))
}

func (c *LocalClient) writeObject(bucketDir string, obj localObject) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(bucketDir, ".put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, objectPath(bucketDir, obj.Key)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (c *LocalClient) scanBucket(bucketDir string) ([]*localObject, error) {
	entries, err := os.ReadDir(bucketDir)
	if err != nil {
		return nil, err
	}

	objects := make([]*localObject, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), localObjectExt) {
			continue
		}
		obj, err := decodeObject(filepath.Join(bucketDir, entry.Name()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		objects = append(objects, obj)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func decodeObject(path string) (*localObject, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var obj localObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", filepath.Base(path), err)
	}
	return &obj, nil
}

func objectPath(bucketDir, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(bucketDir, hex.EncodeToString(sum[:])+localObjectExt)
}

func etagFor(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func invalidArgument(msg string) error {
	return &smithy.GenericAPIError{Code: "InvalidArgument", Message: msg}
}

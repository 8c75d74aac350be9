package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const opGet = "get"

type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is a stored object as read back from the store.
type Object struct {
	Bucket       string
	Key          string
	ContentType  string
	Body         []byte
	ETag         string
	LastModified time.Time
}

// Reader fetches whole objects. It is the read half used to confirm uploads.
type Reader struct {
	api GetObjectAPI
	settings
}

func NewReader(api GetObjectAPI, opts ...Option) *Reader {
	return &Reader{api: api, settings: newSettings(opts)}
}

func (r *Reader) Get(ctx context.Context, bucket, key string) (*Object, error) {
	if err := validateTarget(opGet, bucket, key); err != nil {
		return nil, err
	}
	if r.api == nil {
		return nil, &Error{Op: opGet, Bucket: bucket, Key: key, Err: errNoClient}
	}

	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("op", opGet).Str("bucket", bucket).Str("key", key).Msg("get object failed")
		return nil, storeError(opGet, bucket, key, err)
	}
	if out == nil || out.Body == nil {
		return nil, &Error{Op: opGet, Bucket: bucket, Key: key, Err: fmt.Errorf("store returned no body")}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storeError(opGet, bucket, key, fmt.Errorf("read object body: %w", err))
	}

	obj := &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Body:        body,
		ETag:        aws.ToString(out.ETag),
	}
	if out.LastModified != nil {
		obj.LastModified = *out.LastModified
	}
	r.logger.Debug().Str("op", opGet).Str("bucket", bucket).Str("key", key).Int("size", len(body)).Msg("get object")
	return obj, nil
}

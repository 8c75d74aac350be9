// Package upload writes single objects to an S3-compatible store and reads
// them back.
//
// An Uploader issues exactly one PutObject per call and blocks until the store
// acknowledges it. It holds no mutable state, so one Uploader may be shared by
// any number of goroutines. Timeouts and cancellation come from the caller's
// context.
package upload

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const opPut = "put"

// PutObjectAPI is the single store capability the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result is the store's acknowledgment of a write. Backend fields are empty
// when the store does not report them.
type Result struct {
	Bucket         string
	Key            string
	ContentType    string
	Size           int64
	ETag           string
	VersionID      string
	ChecksumSHA256 string
	Duration       time.Duration
}

type Uploader struct {
	api PutObjectAPI
	settings
}

func New(api PutObjectAPI, opts ...Option) *Uploader {
	return &Uploader{api: api, settings: newSettings(opts)}
}

// Upload creates or overwrites bucket/key with payload and records contentType
// as the object's declared type. payload may be empty. Inputs are validated
// before any request is made.
func (u *Uploader) Upload(ctx context.Context, bucket, key string, payload []byte, contentType string) (*Result, error) {
	if err := validateTarget(opPut, bucket, key); err != nil {
		return nil, err
	}
	if msg := contentTypeProblem(contentType); msg != "" {
		return nil, invalidArgument(opPut, bucket, key, msg)
	}
	if u.api == nil {
		return nil, &Error{Op: opPut, Bucket: bucket, Key: key, Err: errNoClient}
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(contentType),
	}
	if u.checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmSha256
	}

	log := u.logger.With().Str("op", opPut).Str("bucket", bucket).Str("key", key).Logger()
	start := u.now()
	out, err := u.api.PutObject(ctx, input)
	elapsed := u.now().Sub(start)
	if err != nil {
		wrapped := storeError(opPut, bucket, key, err)
		log.Debug().Err(err).Dur("elapsed", elapsed).Bool("retryable", IsRetryable(wrapped)).Msg("put object failed")
		return nil, wrapped
	}

	result := &Result{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(payload)),
		Duration:    elapsed,
	}
	if out != nil {
		result.ETag = aws.ToString(out.ETag)
		result.VersionID = aws.ToString(out.VersionId)
		result.ChecksumSHA256 = aws.ToString(out.ChecksumSHA256)
	}
	log.Debug().Int64("size", result.Size).Str("etag", result.ETag).Dur("elapsed", elapsed).Msg("put object")
	return result, nil
}

package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Error kinds. Match with errors.Is; the backend error stays reachable with
// errors.As.
var (
	// ErrInvalidArgument marks caller input the store would reject. Not retriable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBucketNotFound means the target bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound means the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied means the credentials may not perform the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrTransient marks network and service-side faults; callers may retry
	// with backoff.
	ErrTransient = errors.New("transient store error")
)

// Error describes a failed store operation.
type Error struct {
	Op     string
	Bucket string
	Key    string

	// Kind is one of the Err* sentinels, or nil when the failure does not fit
	// the taxonomy (context cancellation, unknown backend codes).
	Kind error

	Err error
}

func (e *Error) Error() string {
	cause := e.cause()
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("s3.%s %s/%s: %s", e.Op, e.Bucket, e.Key, cause)
	case e.Bucket != "":
		return fmt.Sprintf("s3.%s bucket %s: %s", e.Op, e.Bucket, cause)
	case e.Key != "":
		return fmt.Sprintf("s3.%s object %s: %s", e.Op, e.Key, cause)
	default:
		return fmt.Sprintf("s3.%s: %s", e.Op, cause)
	}
}

func (e *Error) cause() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsRetryable reports whether err is a transient store fault.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func invalidArgument(op, bucket, key, msg string) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Kind: ErrInvalidArgument, Err: errors.New(msg)}
}

func storeError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Kind: classify(err), Err: err}
}

var defaultRetryables = retry.IsErrorRetryables(retry.DefaultRetryables)

// classify maps a backend error onto the error kinds. Context errors are left
// unclassified so a cancelled call is never reported as retriable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return ErrBucketNotFound
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrObjectNotFound
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return ErrObjectNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind := kindForCode(apiErr.ErrorCode()); kind != nil {
			return kind
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusForbidden:
			return ErrAccessDenied
		case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
			return ErrTransient
		}
	}

	if defaultRetryables.IsErrorRetryable(err) == aws.TrueTernary {
		return ErrTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}
	return nil
}

func kindForCode(code string) error {
	switch code {
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "NoSuchKey", "NotFound":
		return ErrObjectNotFound
	case "AccessDenied", "AllAccessDisabled", "AccountProblem", "InvalidAccessKeyId",
		"SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return ErrAccessDenied
	case "InvalidBucketName", "KeyTooLongError", "InvalidArgument", "InvalidRequest",
		"InvalidDigest", "BadDigest", "IncompleteBody", "MissingContentLength":
		return ErrInvalidArgument
	case "InternalError", "ServiceUnavailable", "SlowDown", "RequestTimeout",
		"RequestTimeTooSkewed", "OperationAborted":
		return ErrTransient
	}
	return nil
}

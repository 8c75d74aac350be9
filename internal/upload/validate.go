package upload

import (
	"mime"
	"net"
	"strings"
	"unicode/utf8"
)

const maxKeyBytes = 1024

func validateTarget(op, bucket, key string) *Error {
	if msg := bucketNameProblem(bucket); msg != "" {
		return invalidArgument(op, bucket, key, msg)
	}
	if msg := objectKeyProblem(key); msg != "" {
		return invalidArgument(op, bucket, key, msg)
	}
	return nil
}

// bucketNameProblem applies the S3 naming rules for new buckets.
func bucketNameProblem(bucket string) string {
	if bucket == "" {
		return "bucket name cannot be empty"
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return "bucket name must be between 3 and 63 characters long"
	}
	for i := 0; i < len(bucket); i++ {
		ch := bucket[i]
		if !isLowerAlnum(ch) && ch != '-' && ch != '.' {
			return "bucket name can only contain lowercase letters, numbers, dots, and hyphens"
		}
	}
	if !isLowerAlnum(bucket[0]) || !isLowerAlnum(bucket[len(bucket)-1]) {
		return "bucket name must begin and end with a letter or number"
	}
	if strings.Contains(bucket, "..") {
		return "bucket name cannot contain consecutive dots"
	}
	if net.ParseIP(bucket) != nil {
		return "bucket name cannot be formatted as an IP address"
	}
	return ""
}

func objectKeyProblem(key string) string {
	switch {
	case key == "":
		return "object key cannot be empty"
	case len(key) > maxKeyBytes:
		return "object key cannot exceed 1024 bytes"
	case !utf8.ValidString(key):
		return "object key must be valid UTF-8"
	}
	return ""
}

// contentTypeProblem requires a type/subtype media type with well-formed
// parameters.
func contentTypeProblem(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "content type cannot be empty"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "content type is malformed: " + err.Error()
	}
	major, minor, ok := strings.Cut(mediaType, "/")
	if !ok || major == "" || minor == "" || strings.Contains(minor, "/") {
		return "content type must have the form type/subtype"
	}
	return ""
}

func isLowerAlnum(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('0' <= ch && ch <= '9')
}

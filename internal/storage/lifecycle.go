package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Bucket lifecycle helpers. The uploader never calls these; they back test
// fixtures and the bucket commands.

const defaultRegion = "us-east-1"

func CreateBucket(ctx context.Context, api API, bucket, region string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := api.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// ListKeys returns every key in bucket under prefix, in listing order.
func ListKeys(ctx context.Context, api API, bucket, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	keys := make([]string, 0)
	paginator := s3.NewListObjectsV2Paginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

// PurgeBucket deletes every object in bucket and returns how many were removed.
func PurgeBucket(ctx context.Context, api API, bucket string) (int, error) {
	keys, err := ListKeys(ctx, api, bucket, "")
	if err != nil {
		return 0, err
	}

	for i, key := range keys {
		_, err := api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return i, fmt.Errorf("delete object %s: %w", key, err)
		}
	}
	return len(keys), nil
}

// DeleteBucket removes bucket, emptying it first when purge is set.
func DeleteBucket(ctx context.Context, api API, bucket string, purge bool) (int, error) {
	removed := 0
	if purge {
		n, err := PurgeBucket(ctx, api, bucket)
		if err != nil {
			return n, err
		}
		removed = n
	}
	if _, err := api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return removed, fmt.Errorf("delete bucket %s: %w", bucket, err)
	}
	return removed, nil
}

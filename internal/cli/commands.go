package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"s3put/internal/config"
	"s3put/internal/storage"
	"s3put/internal/upload"
)

func runPut(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts putOptions, target objectTarget, source string) error {
	payload, err := readPayload(source, os.Stdin)
	if err != nil {
		return err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(target.Key, payload)
		logger.Debug().Str("key", target.Key).Str("content_type", contentType).Msg("detected content type")
	}

	api, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	uploadOpts := []upload.Option{upload.WithLogger(logger)}
	if cfg.S3.Checksum {
		uploadOpts = append(uploadOpts, upload.WithChecksum())
	}

	ctx, cancel := withOptionalTimeout(ctx, opts.Timeout)
	defer cancel()

	result, err := upload.New(api, uploadOpts...).Upload(ctx, target.Bucket, target.Key, payload, contentType)
	if err != nil {
		return err
	}

	if opts.Verify {
		obj, err := upload.NewReader(api, upload.WithLogger(logger)).Get(ctx, target.Bucket, target.Key)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if !bytes.Equal(obj.Body, payload) {
			return fmt.Errorf("verify: s3://%s/%s body mismatch (stored %d bytes, sent %d)", target.Bucket, target.Key, len(obj.Body), len(payload))
		}
		if obj.ContentType != contentType {
			return fmt.Errorf("verify: s3://%s/%s content type mismatch (stored %q, sent %q)", target.Bucket, target.Key, obj.ContentType, contentType)
		}
	}

	fmt.Printf("uploaded s3://%s/%s content_type=%s size=%d etag=%s\n", result.Bucket, result.Key, result.ContentType, result.Size, result.ETag)
	if result.ChecksumSHA256 != "" {
		fmt.Printf("checksum_sha256=%s\n", result.ChecksumSHA256)
	}
	return nil
}

func runGet(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts getOptions, target objectTarget) error {
	api, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := withOptionalTimeout(ctx, opts.Timeout)
	defer cancel()

	obj, err := upload.NewReader(api, upload.WithLogger(logger)).Get(ctx, target.Bucket, target.Key)
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err := os.Stdout.Write(obj.Body)
		return err
	}
	if err := os.WriteFile(opts.Output, obj.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Output, err)
	}
	fmt.Printf("downloaded s3://%s/%s content_type=%s size=%d to %s\n", obj.Bucket, obj.Key, obj.ContentType, len(obj.Body), opts.Output)
	return nil
}

func runBucketCreate(ctx context.Context, cfg *config.Config, opts bucketCreateOptions, bucket string) error {
	api, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	region := opts.Region
	if region == "" {
		region = cfg.S3.Region
	}
	if err := storage.CreateBucket(ctx, api, bucket, region); err != nil {
		return err
	}
	fmt.Printf("created bucket %s\n", bucket)
	return nil
}

func runBucketDelete(ctx context.Context, cfg *config.Config, opts bucketDeleteOptions, bucket string) error {
	api, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	removed, err := storage.DeleteBucket(ctx, api, bucket, opts.Purge)
	if err != nil {
		return err
	}
	if opts.Purge {
		fmt.Printf("deleted bucket %s (removed %d objects)\n", bucket, removed)
		return nil
	}
	fmt.Printf("deleted bucket %s\n", bucket)
	return nil
}

package cli

import (
	"errors"
	"flag"
	"os"
)

func parsePutArgs(args []string) (putOptions, objectTarget, string, error) {
	putFS := flag.NewFlagSet("put", flag.ContinueOnError)
	putFS.SetOutput(os.Stderr)

	var opts putOptions
	putFS.StringVar(&opts.ContentType, "content-type", "", "content type to record (detected from the payload when empty)")
	putFS.DurationVar(&opts.Timeout, "timeout", 0, "abort the upload after this long (0 for no limit)")
	putFS.BoolVar(&opts.Verify, "verify", false, "read the object back and compare body and content type")

	if err := putFS.Parse(args); err != nil {
		return putOptions{}, objectTarget{}, "", err
	}

	rest := putFS.Args()
	if len(rest) != 3 {
		return putOptions{}, objectTarget{}, "", errors.New("usage: s3put put [-content-type type] [-timeout d] [-verify] <bucket> <key> <file|->")
	}
	if opts.Timeout < 0 {
		return putOptions{}, objectTarget{}, "", errors.New("timeout must be >= 0")
	}
	return opts, objectTarget{Bucket: rest[0], Key: rest[1]}, rest[2], nil
}

func parseGetArgs(args []string) (getOptions, objectTarget, error) {
	getFS := flag.NewFlagSet("get", flag.ContinueOnError)
	getFS.SetOutput(os.Stderr)

	var opts getOptions
	getFS.StringVar(&opts.Output, "o", "", "write the object body to this file instead of stdout")
	getFS.DurationVar(&opts.Timeout, "timeout", 0, "abort the download after this long (0 for no limit)")

	if err := getFS.Parse(args); err != nil {
		return getOptions{}, objectTarget{}, err
	}

	rest := getFS.Args()
	if len(rest) != 2 {
		return getOptions{}, objectTarget{}, errors.New("usage: s3put get [-o file] [-timeout d] <bucket> <key>")
	}
	if opts.Timeout < 0 {
		return getOptions{}, objectTarget{}, errors.New("timeout must be >= 0")
	}
	return opts, objectTarget{Bucket: rest[0], Key: rest[1]}, nil
}

func parseBucketCreateArgs(args []string) (bucketCreateOptions, string, error) {
	createFS := flag.NewFlagSet("bucket create", flag.ContinueOnError)
	createFS.SetOutput(os.Stderr)

	var opts bucketCreateOptions
	createFS.StringVar(&opts.Region, "region", "", "bucket location (defaults to the configured region)")

	if err := createFS.Parse(args); err != nil {
		return bucketCreateOptions{}, "", err
	}
	rest := createFS.Args()
	if len(rest) != 1 {
		return bucketCreateOptions{}, "", errors.New("usage: s3put bucket create [-region r] <bucket>")
	}
	return opts, rest[0], nil
}

func parseBucketDeleteArgs(args []string) (bucketDeleteOptions, string, error) {
	deleteFS := flag.NewFlagSet("bucket delete", flag.ContinueOnError)
	deleteFS.SetOutput(os.Stderr)

	var opts bucketDeleteOptions
	deleteFS.BoolVar(&opts.Purge, "purge", false, "delete every object in the bucket first")

	if err := deleteFS.Parse(args); err != nil {
		return bucketDeleteOptions{}, "", err
	}
	rest := deleteFS.Args()
	if len(rest) != 1 {
		return bucketDeleteOptions{}, "", errors.New("usage: s3put bucket delete [-purge] <bucket>")
	}
	return opts, rest[0], nil
}

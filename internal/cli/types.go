package cli

import "time"

type objectTarget struct {
	Bucket string
	Key    string
}

type putOptions struct {
	ContentType string
	Timeout     time.Duration
	Verify      bool
}

type getOptions struct {
	Output  string
	Timeout time.Duration
}

type bucketCreateOptions struct {
	Region string
}

type bucketDeleteOptions struct {
	Purge bool
}

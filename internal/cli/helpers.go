package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"s3put/internal/config"
	"s3put/internal/state"
	"s3put/internal/storage"
)

const fallbackContentType = "application/octet-stream"

func objectStoreFromConfig(ctx context.Context, cfg *config.Config) (storage.API, error) {
	root := cfg.Local.Root
	if cfg.S3.Backend == config.BackendLocal && root == "" {
		dir, err := state.ObjectStoreDir()
		if err != nil {
			return nil, err
		}
		root = dir
	}
	return storage.NewFromConfig(ctx, cfg.S3, root)
}

// detectContentType sniffs payload first and falls back to the key's
// extension. Empty payloads only have the extension to go on.
func detectContentType(key string, payload []byte) string {
	byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if len(payload) == 0 {
		if byExt != "" {
			return byExt
		}
		return fallbackContentType
	}

	detected := mimetype.Detect(payload)
	if !detected.Is(fallbackContentType) {
		return detected.String()
	}
	if byExt != "" {
		return byExt
	}
	return fallbackContentType
}

func readPayload(source string, stdin io.Reader) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

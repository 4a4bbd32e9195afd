package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// downloadAttempts is one download plus one retry.
const downloadAttempts = 2

var (
	lookPath = launcher.LookPath
	download = func(ctx context.Context) (string, error) {
		b := launcher.NewBrowser()
		b.Context = ctx
		return b.Get()
	}
)

// EnsureRuntime returns the path of a usable Chromium binary. An explicit
// binPath wins, then a locally installed browser, then one downloaded by
// rod's launcher. It returns an error wrapping ErrRuntimeUnavailable when
// every download attempt fails.
func EnsureRuntime(ctx context.Context, binPath string, logger *zap.Logger) (string, error) {
	logger = logger.Named("runtime")

	if binPath != "" {
		if _, err := os.Stat(binPath); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
		}
		return binPath, nil
	}

	if path, ok := lookPath(); ok {
		logger.Debug("found local browser", zap.String("path", path))
		return path, nil
	}

	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		logger.Info("no local browser, downloading", zap.Int("attempt", attempt))
		path, err := download(ctx)
		if err == nil {
			logger.Info("browser downloaded", zap.String("path", path))
			return path, nil
		}
		lastErr = err
		logger.Warn("browser download failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return "", fmt.Errorf("%w: %v", ErrRuntimeUnavailable, lastErr)
}

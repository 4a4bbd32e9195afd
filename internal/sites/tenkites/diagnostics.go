package tenkites

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dinemenu/internal/menu"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// snapshotter is the part of *rod.Page used for diagnostics.
type snapshotter interface {
	Screenshot(fullPage bool, req *proto.PageCaptureScreenshot) ([]byte, error)
	HTML() (string, error)
}

// Diagnostics writes a screenshot and the page HTML for a failing stage.
type Diagnostics struct {
	page   snapshotter
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// NewDiagnostics returns nil when dir is empty, which disables capture.
func NewDiagnostics(page snapshotter, dir string, logger *zap.Logger) *Diagnostics {
	if dir == "" {
		return nil
	}
	return &Diagnostics{page: page, dir: dir, now: time.Now, logger: logger.Named("diagnostics")}
}

// Func adapts d to the session's capture hook.
func (d *Diagnostics) Func() menu.DiagnosticFunc {
	if d == nil {
		return nil
	}
	return d.Capture
}

// Capture writes <stage>_<unix>.png and <stage>_<unix>.html. Failures are
// only logged.
func (d *Diagnostics) Capture(_ context.Context, stage string) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Warn("failed to create debug dir", zap.String("dir", d.dir), zap.Error(err))
		return
	}
	base := filepath.Join(d.dir, fmt.Sprintf("%s_%d", stage, d.now().Unix()))

	if png, err := d.page.Screenshot(true, nil); err != nil {
		d.logger.Warn("failed to take screenshot", zap.String("stage", stage), zap.Error(err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		d.logger.Warn("failed to write screenshot", zap.String("stage", stage), zap.Error(err))
	}

	if html, err := d.page.HTML(); err != nil {
		d.logger.Warn("failed to read page html", zap.String("stage", stage), zap.Error(err))
	} else if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		d.logger.Warn("failed to write page html", zap.String("stage", stage), zap.Error(err))
	}

	d.logger.Info("captured diagnostics", zap.String("stage", stage), zap.String("path", base))
}

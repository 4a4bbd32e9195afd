package browser

import (
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrRuntimeUnavailable means no Chromium could be found, downloaded or
// launched.
var ErrRuntimeUnavailable = errors.New("browser runtime unavailable")

// Config 浏览器启动配置
type Config struct {
	Headless  bool
	ProxyURL  string // 代理URL, e.g. http://127.0.0.1:7890
	NoSandbox bool
	BinPath   string // Chromium 路径，为空时由 launcher 自行查找
}

// Browser 封装 rod.Browser 实例
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// New 启动浏览器并建立连接。启动失败时返回的错误包装 ErrRuntimeUnavailable。
func New(cfg Config) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch: %v", ErrRuntimeUnavailable, err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  b,
		launcher: l,
	}, nil
}

// NewPage 创建新的浏览器页面
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close 关闭浏览器并清理资源
func (b *Browser) Close() error {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return nil
}

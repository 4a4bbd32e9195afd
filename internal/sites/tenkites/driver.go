package tenkites

import (
	"context"
	"fmt"
	"time"

	"dinemenu/internal/menu"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// dispatchClickJS fires a bubbling click without moving the pointer.
const dispatchClickJS = `() => this.dispatchEvent(new MouseEvent('click', {bubbles: true}))`

// PageDriver drives a rod page for the menu session.
type PageDriver struct {
	page          *rod.Page
	pageTimeout   time.Duration // navigation and load
	actionTimeout time.Duration // single element operations
}

// NewPageDriver wraps page. actionTimeout bounds every element call.
func NewPageDriver(page *rod.Page, pageTimeout, actionTimeout time.Duration) *PageDriver {
	return &PageDriver{page: page, pageTimeout: pageTimeout, actionTimeout: actionTimeout}
}

func (d *PageDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx).Timeout(d.pageTimeout)
	defer p.CancelTimeout()
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

// Query never waits for selector to appear; callers poll.
func (d *PageDriver) Query(ctx context.Context, selector string) ([]menu.Element, error) {
	p := d.page.Context(ctx).Timeout(d.actionTimeout)
	defer p.CancelTimeout()
	els, err := p.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	out := make([]menu.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &pageElement{el: el, timeout: d.actionTimeout})
	}
	return out, nil
}

type pageElement struct {
	el      *rod.Element
	timeout time.Duration
}

// bind scopes the element to ctx and the action timeout. release stops the
// timeout timer and must be called once the call returns.
func (e *pageElement) bind(ctx context.Context) (el *rod.Element, release func()) {
	el = e.el.Context(ctx).Timeout(e.timeout)
	return el, func() { el.CancelTimeout() }
}

func (e *pageElement) Click(ctx context.Context) error {
	el, release := e.bind(ctx)
	defer release()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *pageElement) DispatchClick(ctx context.Context) error {
	el, release := e.bind(ctx)
	defer release()
	_, err := el.Eval(dispatchClickJS)
	return err
}

func (e *pageElement) Text(ctx context.Context) (string, error) {
	el, release := e.bind(ctx)
	defer release()
	return el.Text()
}

func (e *pageElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, release := e.bind(ctx)
	defer release()
	v, err := el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *pageElement) Visible(ctx context.Context) (bool, error) {
	el, release := e.bind(ctx)
	defer release()
	return el.Visible()
}

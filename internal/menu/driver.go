package menu

import "context"

// Driver is the subset of a browser page the session needs. Implementations
// must be safe to call sequentially only; the widget is a single shared
// resource and nothing in this package issues concurrent calls.
type Driver interface {
	// Navigate loads url and returns once the document has loaded.
	Navigate(ctx context.Context, url string) error
	// Query returns every element currently attached that matches selector.
	// No match is an empty slice, not an error.
	Query(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to a DOM node returned by Driver.Query.
type Element interface {
	// Click issues a native pointer click.
	Click(ctx context.Context) error
	// DispatchClick fires a bubbling synthetic click event on the node.
	DispatchClick(ctx context.Context) error
	// Text returns the rendered inner text.
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Visible reports whether the node is rendered and visible.
	Visible(ctx context.Context) (bool, error)
}

// DiagnosticFunc captures page state for later inspection. stage names the
// failing step, e.g. "period_open_2".
type DiagnosticFunc func(ctx context.Context, stage string)

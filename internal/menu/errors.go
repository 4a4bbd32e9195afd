package menu

import "errors"

var (
	// ErrPreconditionTimeout means the widget anchors never attached. Fatal.
	ErrPreconditionTimeout = errors.New("widget anchors did not attach")
	// ErrOptionsNotOpened means a dropdown never showed its options.
	ErrOptionsNotOpened = errors.New("dropdown options did not open")
	// ErrOptionNotFound means no option text matched the requested label.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSettleTimeout means the label and payload never settled on the target.
	ErrSettleTimeout = errors.New("payload did not settle")
	// ErrNoMenu means the widget has nothing to show for a date. Not a failure.
	ErrNoMenu = errors.New("no menu available")
	// ErrEmptyPayload means the payload attribute was empty when captured.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrPayloadParse means the payload was not the expected JSON document.
	ErrPayloadParse = errors.New("malformed payload")
)

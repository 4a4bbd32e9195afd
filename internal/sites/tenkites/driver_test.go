package tenkites

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
)

func TestPageElement_BindReleasesTimeout(t *testing.T) {
	e := &pageElement{el: &rod.Element{}, timeout: time.Hour}

	el, release := e.bind(context.Background())
	assert.NoError(t, el.GetContext().Err())
	_, ok := el.GetContext().Deadline()
	assert.True(t, ok)

	release()
	assert.ErrorIs(t, el.GetContext().Err(), context.Canceled)
}

func TestPageElement_BindFollowsCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &pageElement{el: &rod.Element{}, timeout: time.Hour}

	el, release := e.bind(ctx)
	defer release()
	cancel()

	assert.ErrorIs(t, el.GetContext().Err(), context.Canceled)
}

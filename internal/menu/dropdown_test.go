package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testDates = []string{"Monday, June 3", "Tuesday, June 4", "Wednesday, June 5"}

type stageRecorder struct{ stages []string }

func (r *stageRecorder) capture(_ context.Context, stage string) {
	r.stages = append(r.stages, stage)
}

func newDateDropdown(t *testing.T, w *fakeWidget, rec *stageRecorder) *Dropdown {
	tm := testTiming()
	logger := zaptest.NewLogger(t)
	return NewDropdown(w, newTestWatcher(t, w), DropdownConfig{
		Name:           "date",
		PanelSelector:  selDatePanel,
		OptionSelector: selDateOption,
		LabelSelector:  selDateLabel,
		OpenTimeout:    tm.OpenTimeout,
		SettleTimeout:  tm.SettleTimeout,
		PollInterval:   tm.PollInterval,
	}, rec.capture, logger)
}

func newPeriodDropdown(t *testing.T, w *fakeWidget, rec *stageRecorder) *Dropdown {
	tm := testTiming()
	return NewDropdown(w, newTestWatcher(t, w), DropdownConfig{
		Name:           "period",
		PanelSelector:  selPeriodPanel,
		OptionSelector: selPeriodOption,
		LabelSelector:  selPeriodLabel,
		OpenTimeout:    tm.OpenTimeout,
		SettleTimeout:  tm.SettleTimeout,
		PollInterval:   tm.PollInterval,
		RetryNotFound:  true,
	}, rec.capture, zaptest.NewLogger(t))
}

func TestDropdown_Select(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast", "Lunch")
	w.show(testDates[0])
	rec := &stageRecorder{}
	d := newDateDropdown(t, w, rec)

	err := d.Select(context.Background(), testDates[1], 2)

	require.NoError(t, err)
	assert.Equal(t, testDates[1], w.date)
	assert.Equal(t, []string{testDates[1]}, w.dispatched)
	assert.False(t, w.dateOpen)
	assert.Empty(t, rec.stages)
}

func TestDropdown_SelectShownTargetDoesNotSettle(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	w.show(testDates[0])
	rec := &stageRecorder{}
	d := newDateDropdown(t, w, rec)

	err := d.Select(context.Background(), testDates[0], 1)

	assert.ErrorIs(t, err, ErrSettleTimeout)
	assert.Equal(t, []string{testDates[0]}, w.dispatched)
	assert.Equal(t, []string{"date_exhausted"}, rec.stages)
}

func TestDropdown_SelectWaitsForPayloadAfterLabel(t *testing.T) {
	w := newFakeWidget(testDates, "Dinner", "Breakfast")
	w.show(testDates[0])
	w.payloadLag = 6
	d := newPeriodDropdown(t, w, &stageRecorder{})

	err := d.Select(context.Background(), "Breakfast", 2)

	require.NoError(t, err)
	assert.Equal(t, payloadFor(testDates[0], "Breakfast"), w.payload)
}

func TestDropdown_Shown(t *testing.T) {
	w := newFakeWidget(testDates, "Lunch", "Dinner")
	w.show(testDates[1])

	assert.Equal(t, testDates[1], newDateDropdown(t, w, &stageRecorder{}).Shown(context.Background()))
	assert.Equal(t, "Lunch", newPeriodDropdown(t, w, &stageRecorder{}).Shown(context.Background()))
}

func TestDropdown_SelectNotFoundStopsAtOnce(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	d := newDateDropdown(t, w, &stageRecorder{})

	err := d.Select(context.Background(), "Sunday, June 9", 2)

	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.Empty(t, w.dispatched)
	assert.False(t, w.dateOpen, "panel should be closed again")
}

func TestDropdown_SelectNotFoundRetries(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast", "Lunch")
	w.show(testDates[0])
	rec := &stageRecorder{}
	d := newPeriodDropdown(t, w, rec)

	err := d.Select(context.Background(), "Dinner", 3)

	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, []string{"period_exhausted"}, rec.stages)
}

func TestDropdown_SelectRetriesAfterOpenFailure(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	w.openFailures = 1
	rec := &stageRecorder{}
	d := newDateDropdown(t, w, rec)

	err := d.Select(context.Background(), testDates[2], 2)

	require.NoError(t, err)
	assert.Equal(t, testDates[2], w.date)
	assert.Equal(t, []string{"date_open_1"}, rec.stages)
}

func TestDropdown_SelectExhaustsOnSettleTimeout(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	w.ignore[testDates[1]] = true
	rec := &stageRecorder{}
	d := newDateDropdown(t, w, rec)

	err := d.Select(context.Background(), testDates[1], 2)

	assert.ErrorIs(t, err, ErrSettleTimeout)
	assert.Equal(t, []string{testDates[1], testDates[1]}, w.dispatched)
	assert.Equal(t, []string{"date_exhausted"}, rec.stages)
}

func TestDropdown_SelectWithDelayedWidget(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast", "Lunch")
	w.show(testDates[0])
	w.lag = 5
	d := newPeriodDropdown(t, w, &stageRecorder{})

	err := d.Select(context.Background(), "Lunch", 2)

	require.NoError(t, err)
	assert.Equal(t, "Lunch", w.period)
	assert.Len(t, w.dispatched, 1)
}

func TestDropdown_Options(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	d := newDateDropdown(t, w, &stageRecorder{})

	got, err := d.Options(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testDates, got)
	assert.False(t, w.dateOpen)
}

func TestDropdown_OptionsNeverOpen(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast")
	w.openFailures = 5
	rec := &stageRecorder{}
	d := newDateDropdown(t, w, rec)

	_, err := d.Options(context.Background())

	assert.ErrorIs(t, err, ErrOptionsNotOpened)
	assert.Equal(t, []string{"date_list_1", "date_list_2"}, rec.stages)
}

func TestDropdown_Attached(t *testing.T) {
	w := newFakeWidget(testDates, "Breakfast", "Lunch")
	d := newPeriodDropdown(t, w, &stageRecorder{})

	n, err := d.Attached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	w.show(testDates[0])
	n, err = d.Attached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

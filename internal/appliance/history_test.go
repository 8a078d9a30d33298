package appliance_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func snap(at time.Time, today, yesterday int64) appliance.EnergySnapshot {
	return appliance.EnergySnapshot{Timestamp: at, Today: today, Yesterday: yesterday}
}

// buildHistory adds snapshots oldest first.
func buildHistory(t *testing.T, snaps ...appliance.EnergySnapshot) *appliance.History {
	t.Helper()
	h := &appliance.History{}
	for _, s := range snaps {
		_, err := h.Add(s, appliance.MaxHistoryAge)
		require.NoError(t, err)
	}
	return h
}

func TestHistoryDeduplicates(t *testing.T) {
	h := &appliance.History{}
	for i := 0; i < 10; i++ {
		added, err := h.Add(snap(t0.Add(time.Duration(i)*time.Minute), 7, 3), appliance.MaxHistoryAge)
		require.NoError(t, err)
		assert.Equal(t, i == 0, added)
	}
	assert.Equal(t, 1, h.Len())

	newest, ok := h.Newest()
	require.True(t, ok)
	assert.Equal(t, t0, newest.Timestamp, "first insert is kept")
}

func TestHistoryRecordsYesterdayChange(t *testing.T) {
	h := buildHistory(t,
		snap(t0, 7, 3),
		snap(t0.Add(time.Minute), 7, 4),
	)
	assert.Equal(t, 2, h.Len())
}

func TestHistoryOrdering(t *testing.T) {
	h := &appliance.History{}
	for i := 0; i < 50; i++ {
		_, err := h.Add(snap(t0.Add(time.Duration(i*7)*time.Minute), int64(i), 0), appliance.MaxHistoryAge)
		require.NoError(t, err)
	}

	snaps := h.Snapshots()
	require.NotEmpty(t, snaps)
	for i := 1; i < len(snaps); i++ {
		assert.False(t, snaps[i].Timestamp.After(snaps[i-1].Timestamp), "index %d newer than %d", i, i-1)
	}
}

func TestHistoryRejectsOutOfOrder(t *testing.T) {
	h := buildHistory(t, snap(t0, 1, 0))

	added, err := h.Add(snap(t0.Add(-time.Minute), 2, 0), appliance.MaxHistoryAge)
	assert.False(t, added)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, appliance.ErrOutOfOrderSample))
	assert.Equal(t, 1, h.Len())
}

func TestHistoryPruneKeepsAnchor(t *testing.T) {
	h := &appliance.History{}
	var last time.Time
	for i := 0; i <= 15; i++ {
		last = t0.Add(time.Duration(i*20) * time.Minute)
		_, err := h.Add(snap(last, int64(i), 0), appliance.MaxHistoryAge)
		require.NoError(t, err)
	}

	cutoff := last.Add(-appliance.MaxHistoryAge)
	snaps := h.Snapshots()

	// 10 entries from cutoff to last inclusive, plus one anchor
	require.Len(t, snaps, 11)
	oldest := snaps[len(snaps)-1]
	assert.True(t, oldest.Timestamp.Before(cutoff))
	for _, s := range snaps[:len(snaps)-1] {
		assert.False(t, s.Timestamp.Before(cutoff))
	}
}

func TestHistoryPruneWithinHorizon(t *testing.T) {
	h := buildHistory(t,
		snap(t0, 1, 0),
		snap(t0.Add(time.Hour), 2, 0),
		snap(t0.Add(2*time.Hour), 3, 0),
	)
	assert.Equal(t, 3, h.Len())
}

func TestHistoryPruneLongGap(t *testing.T) {
	h := buildHistory(t,
		snap(t0, 1, 0),
		snap(t0.Add(time.Minute), 2, 0),
		snap(t0.Add(10*time.Hour), 3, 0),
	)

	snaps := h.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(3), snaps[0].Today)
	assert.Equal(t, int64(2), snaps[1].Today)
}

func TestDeltaEmpty(t *testing.T) {
	h := &appliance.History{}
	d, err := h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Zero(t, d)

	h = buildHistory(t, snap(t0, 5, 0))
	d, err = h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDeltaNormalGrowth(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-10*time.Minute), 45, 40),
		snap(t0, 50, 40),
	)

	d, err := h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), d)
}

func TestDeltaRollover(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-10*time.Minute), 50, 40),
		snap(t0, 3, 50),
	)

	d, err := h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d)
}

func TestDeltaRolloverWithRemainder(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-10*time.Minute), 50, 40),
		snap(t0, 3, 52),
	)

	d, err := h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), d, "2 at the end of the old day plus 3 in the new one")
}

func TestDeltaAnomaly(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-20*time.Minute), 40, 40),
		snap(t0.Add(-10*time.Minute), 50, 40),
		snap(t0, 30, 10),
	)

	d, err := h.Delta(t0, 30*time.Minute, false)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, appliance.ErrConsistencyAnomaly))
	assert.Zero(t, d, "no partial sums once an anomaly is seen")
}

func TestDeltaWindow(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-50*time.Minute), 10, 0),
		snap(t0.Add(-40*time.Minute), 20, 0),
		snap(t0.Add(-20*time.Minute), 25, 0),
		snap(t0.Add(-5*time.Minute), 27, 0),
	)

	d, err := h.Delta(t0, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d, "pairs ending at -5m and -20m")

	d, err = h.Delta(t0, 45*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(17), d)

	// a pair ending exactly at the window start is excluded
	d, err = h.Delta(t0, 20*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d)
}

func TestDeltaEarlyBreak(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-30*time.Minute), 10, 0),
		snap(t0.Add(-20*time.Minute), 15, 0),
		snap(t0.Add(-10*time.Minute), 22, 0),
	)

	d, err := h.Delta(t0, 65*time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d)
}

func TestDeltaIdempotent(t *testing.T) {
	h := buildHistory(t,
		snap(t0.Add(-20*time.Minute), 10, 0),
		snap(t0.Add(-10*time.Minute), 3, 12),
		snap(t0, 9, 12),
	)

	first, err := h.Delta(t0, time.Hour, false)
	require.NoError(t, err)
	second, err := h.Delta(t0, time.Hour, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(11), first)
	assert.Equal(t, 3, h.Len())
}

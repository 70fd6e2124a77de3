package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dshills/storebot/pkg/types"
)

func testDispatcher(sender Sender) *Dispatcher {
	d := NewDispatcher(sender, discardLogger())
	d.limiter = rate.NewLimiter(rate.Inf, 1)
	return d
}

func roster(ids ...int64) []*types.User {
	users := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, &types.User{ID: id})
	}
	return users
}

func TestRun_CountsOutcomes(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	d := testDispatcher(sender)

	report := d.Run(context.Background(), roster(1, 2, 3), types.TextContent("hello"), nil)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.RunID)
}

func TestRun_EmptyRoster(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	report := d.Run(context.Background(), nil, types.TextContent("hello"), nil)
	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
}

func TestRun_ProgressCadence(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)
	d.progressEvery = 2
	d.workers = 1 // deterministic completion order for the cadence check

	var snapshots []Progress
	users := roster(1, 2, 3, 4, 5)
	report := d.Run(context.Background(), users, types.TextContent("hello"), func(p Progress) {
		snapshots = append(snapshots, p)
	})

	require.NotEmpty(t, snapshots)
	// Final snapshot reflects the whole run
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, 5, last.Done)
	assert.Equal(t, 5, last.Total)
	assert.Equal(t, report.Succeeded, last.Succeeded)

	// Intermediate reports land on the cadence
	for _, p := range snapshots[:len(snapshots)-1] {
		assert.Zero(t, p.Done%2)
	}
}

func TestRun_ImageContent(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	report := d.Run(context.Background(), roster(7), types.ImageContent("file-123", "caption"), nil)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, sender.sentTo(7))
}

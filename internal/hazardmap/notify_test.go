package hazardmap_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_Expire(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	feed := hazardmap.NewNotifications(clock, 0)

	first := feed.Push(hazardmap.KindInfo, "Applying filters...")
	clock.Advance(2 * time.Second)
	feed.Push(hazardmap.KindSuccess, "Filters applied successfully!")

	active := feed.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, now.Add(hazardmap.DefaultNotificationTTL), first.ExpiresAt)

	clock.Advance(time.Second)
	active = feed.Active()
	require.Len(t, active, 1)
	assert.Equal(t, hazardmap.KindSuccess, active[0].Kind)

	clock.Advance(2 * time.Second)
	assert.Empty(t, feed.Active())
}

func TestNotifications_Dismiss(t *testing.T) {
	feed := hazardmap.NewNotifications(clockwork.NewFakeClockAt(now), time.Minute)
	n := feed.Push(hazardmap.KindError, "Network error. Please check your connection and try again.")

	assert.True(t, feed.Dismiss(n.ID))
	assert.False(t, feed.Dismiss(n.ID))
	assert.Empty(t, feed.Active())
}

func TestNotifications_UniqueIDs(t *testing.T) {
	feed := hazardmap.NewNotifications(clockwork.NewFakeClockAt(now), time.Minute)
	a := feed.Push(hazardmap.KindInfo, "a")
	b := feed.Push(hazardmap.KindInfo, "b")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNotifications_PushFor(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	feed := hazardmap.NewNotifications(clock, 0)

	n := feed.PushFor(hazardmap.KindInfo, "Data updated", 5*time.Second)
	assert.Equal(t, now.Add(5*time.Second), n.ExpiresAt)

	clock.Advance(4 * time.Second)
	assert.Len(t, feed.Active(), 1)
	clock.Advance(time.Second)
	assert.Empty(t, feed.Active())
}

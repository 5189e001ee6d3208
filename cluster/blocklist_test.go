package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlockList_AllowsUntilThreeConsecutiveFailures(t *testing.T) {
	bl := NewBlockList(time.Minute)

	assert.True(t, bl.Allow("m1"))

	bl.RecordFailure("m1")
	bl.RecordFailure("m1")
	assert.True(t, bl.Allow("m1"), "breaker must not trip before the threshold")

	bl.RecordFailure("m1")
	assert.False(t, bl.Allow("m1"), "breaker must trip open after 3 consecutive failures")
	assert.True(t, bl.IsBlocked("m1"))
}

func TestBlockList_SuccessResetsConsecutiveFailureCount(t *testing.T) {
	bl := NewBlockList(time.Minute)

	bl.RecordFailure("m1")
	bl.RecordFailure("m1")
	bl.RecordSuccess("m1")
	bl.RecordFailure("m1")
	bl.RecordFailure("m1")

	assert.True(t, bl.Allow("m1"), "a success in between should have reset the streak")
}

func TestBlockList_BlockedListsTrippedMembers(t *testing.T) {
	bl := NewBlockList(time.Minute)

	bl.RecordFailure("m1")
	bl.RecordFailure("m1")
	bl.RecordFailure("m1")

	assert.Contains(t, bl.Blocked(), "m1")
}

func TestBlockList_MembersAreIndependent(t *testing.T) {
	bl := NewBlockList(time.Minute)

	bl.RecordFailure("m1")
	bl.RecordFailure("m1")
	bl.RecordFailure("m1")

	assert.False(t, bl.Allow("m1"))
	assert.True(t, bl.Allow("m2"))
}

func TestNewBlockList_DefaultsTTLWhenNonPositive(t *testing.T) {
	bl := NewBlockList(0)
	assert.Equal(t, time.Hour, bl.ttl)
}

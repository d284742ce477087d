package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

func TestBranchRegistry_EnsureDefault(t *testing.T) {
	r := NewBranchRegistry()

	got := r.EnsureDefault("p1")
	assert.Equal(t, models.DefaultBranchID, got)

	branches := r.List("p1")
	require.Len(t, branches, 1)
	assert.Equal(t, models.DefaultBranchID, branches[0].ID)
	assert.Equal(t, models.DefaultBranchName, branches[0].Name)

	// Idempotent: a second call must not duplicate the default branch.
	r.EnsureDefault("p1")
	assert.Len(t, r.List("p1"), 1)
}

func TestBranchRegistry_CreateSwitchesCursor(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")

	b := r.Create("p1", "alt take", "m1")
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "alt take", b.Name)
	assert.Equal(t, "m1", b.ParentMessageID)
	assert.Equal(t, b.ID, r.Active("p1"))
	assert.Len(t, r.List("p1"), 2)
}

func TestBranchRegistry_Switch(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")
	b := r.Create("p1", "alt", "m1")

	require.NoError(t, r.Switch("p1", models.DefaultBranchID))
	assert.Equal(t, models.DefaultBranchID, r.Active("p1"))

	require.NoError(t, r.Switch("p1", b.ID))
	assert.Equal(t, b.ID, r.Active("p1"))

	assert.ErrorIs(t, r.Switch("p1", "missing"), ErrUnknownBranch)
	assert.Equal(t, b.ID, r.Active("p1"), "failed switch must not move the cursor")
}

func TestBranchRegistry_Rename(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")

	require.NoError(t, r.Rename("p1", models.DefaultBranchID, "My Chat"))
	b, ok := r.Get("p1", models.DefaultBranchID)
	require.True(t, ok)
	assert.Equal(t, "My Chat", b.Name)

	assert.ErrorIs(t, r.Rename("p1", "missing", "x"), ErrUnknownBranch)
}

func TestBranchRegistry_DeleteDefaultIsNoOp(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")

	assert.False(t, r.Delete("p1", models.DefaultBranchID))
	assert.Len(t, r.List("p1"), 1)
}

func TestBranchRegistry_DeleteActiveResetsCursor(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")
	b := r.Create("p1", "alt", "m1")
	require.Equal(t, b.ID, r.Active("p1"))

	assert.True(t, r.Delete("p1", b.ID))
	assert.Equal(t, models.DefaultBranchID, r.Active("p1"))
	assert.Len(t, r.List("p1"), 1)
}

func TestBranchRegistry_DeleteInactiveKeepsCursor(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")
	b1 := r.Create("p1", "one", "m1")
	b2 := r.Create("p1", "two", "m2")
	require.Equal(t, b2.ID, r.Active("p1"))

	assert.True(t, r.Delete("p1", b1.ID))
	assert.Equal(t, b2.ID, r.Active("p1"))
}

func TestBranchRegistry_DeleteWhereParent(t *testing.T) {
	r := NewBranchRegistry()
	r.EnsureDefault("p1")
	b1 := r.Create("p1", "one", "m1")
	b2 := r.Create("p1", "two", "m1")
	r.Create("p1", "three", "m9")
	require.NoError(t, r.Switch("p1", b2.ID))

	removed := r.DeleteWhereParent("p1", "m1")
	require.Len(t, removed, 2)
	assert.Equal(t, b1.ID, removed[0].ID)
	assert.Equal(t, b2.ID, removed[1].ID)
	assert.Equal(t, models.DefaultBranchID, r.Active("p1"), "cursor on a removed branch resets to default")
	assert.Len(t, r.List("p1"), 2)

	assert.Nil(t, r.DeleteWhereParent("p1", "no-such-message"))
}

func TestBranchRegistry_Restore(t *testing.T) {
	r := NewBranchRegistry()

	branches := []models.Branch{
		models.NewDefaultBranch(),
		{ID: "b2", Name: "alt", ParentMessageID: "m1"},
	}
	r.Restore("p1", branches, "b2")
	assert.Equal(t, "b2", r.Active("p1"))

	// An unresolvable cursor is repaired to the first branch.
	r.Restore("p1", branches, "gone")
	assert.Equal(t, models.DefaultBranchID, r.Active("p1"))

	r.Restore("p1", nil, "")
	assert.Empty(t, r.List("p1"))
}

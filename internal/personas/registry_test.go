package personas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

func TestNewRegistry_Builtins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 6)
	assert.Equal(t, "niina-gerber", all[0].ID)
	assert.Equal(t, "robert-cop", all[5].ID)

	kate, ok := r.Get("kate-smith")
	require.True(t, ok)
	assert.Equal(t, "Kate Smith", kate.Name)
	assert.Equal(t, "Social Media Lead", kate.Title)
	assert.True(t, strings.HasPrefix(kate.SystemPrompt, "You are Kate Smith"))
	assert.NotEmpty(t, kate.About)
	assert.NotEmpty(t, kate.Challenges)

	_, ok = r.Get("nobody")
	assert.False(t, ok)
}

func TestNewRegistry_ExtraAndOverride(t *testing.T) {
	extra := models.Persona{ID: "jane-doe", Name: "Jane Doe", SystemPrompt: "You are Jane."}
	override := models.Persona{ID: "kate-smith", Name: "Kate 2.0", SystemPrompt: "You are the new Kate."}

	r, err := NewRegistry(extra, override)
	require.NoError(t, err)

	assert.Len(t, r.All(), 7)

	jane, ok := r.Get("jane-doe")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", jane.Name)

	kate, ok := r.Get("kate-smith")
	require.True(t, ok)
	assert.Equal(t, "Kate 2.0", kate.Name)

	// Override keeps the original catalog position.
	assert.Equal(t, "kate-smith", r.IDs()[1])
}

func TestNewRegistry_RejectsInvalid(t *testing.T) {
	_, err := NewRegistry(models.Persona{Name: "No ID", SystemPrompt: "x"})
	assert.Error(t, err)

	_, err = NewRegistry(models.Persona{ID: "no-prompt", Name: "No Prompt"})
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	write("zoe.md", `---
id: zoe-park
name: Zoe Park
title: Creative Director
about: Leads the creative team.
---

You are Zoe Park, a creative director.`)
	write("adam.md", `---
name: Adam Berg
---

You are Adam Berg.`)
	write("notes.txt", "not a persona")

	got, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Sorted by id; adam falls back to the filename id.
	assert.Equal(t, "adam", got[0].ID)
	assert.Equal(t, "Adam Berg", got[0].Name)
	assert.Equal(t, "zoe-park", got[1].ID)
	assert.Equal(t, "Creative Director", got[1].Title)
	assert.Equal(t, "You are Zoe Park, a creative director.", got[1].SystemPrompt)
}

func TestLoadDir_Missing(t *testing.T) {
	got, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadDir_BadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no frontmatter", "You are someone."},
		{"unterminated frontmatter", "---\nname: X\n"},
		{"missing name", "---\nid: x\n---\n\nPrompt."},
		{"empty body", "---\nname: X\n---\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "p.md"), []byte(tt.content), 0644))
			_, err := LoadDir(dir)
			assert.Error(t, err)
		})
	}
}

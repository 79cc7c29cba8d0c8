package snappkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// TestParseSnapList verifies parsing of typical `snap list --all` output
// with a mix of enabled, disabled, and flagged revisions.
func TestParseSnapList(t *testing.T) {
	output := `Name              Version         Rev    Tracking         Publisher   Notes
amazon-ssm-agent  3.2.1705.0      7628   latest/stable    aws**       classic
amazon-ssm-agent  3.1.1732.0      6563   latest/stable    aws**       disabled,classic
core20            20231123        2105   latest/stable    canonical** base
core20            20230622        1974   latest/stable    canonical** base,disabled
lxd               5.0.2-838e1b2   24322  5.0/stable/ubuntu-22.04  canonical**  -
`

	revisions := parseSnapList(output)
	require.Len(t, revisions, 5)

	// Enabled SSM agent revision.
	assert.Equal(t, "amazon-ssm-agent", revisions[0].Name)
	assert.Equal(t, "7628", revisions[0].Revision)
	assert.False(t, revisions[0].Disabled, "classic flag alone must not mark a revision disabled")

	// Disabled SSM agent revision — disabled appears alongside classic.
	assert.Equal(t, "6563", revisions[1].Revision)
	assert.True(t, revisions[1].Disabled)

	// core20: enabled base revision, then disabled one.
	assert.False(t, revisions[2].Disabled)
	assert.True(t, revisions[3].Disabled)
	assert.Equal(t, "20230622", revisions[3].Version)
	assert.Equal(t, "latest/stable", revisions[3].Tracking)

	// lxd with an empty Notes cell ("-").
	assert.Equal(t, "lxd", revisions[4].Name)
	assert.False(t, revisions[4].Disabled)
}

// TestParseSnapListSideloaded verifies that sideloaded revisions with an
// "x" prefix are kept verbatim.
func TestParseSnapListSideloaded(t *testing.T) {
	output := `Name    Version  Rev  Tracking  Publisher  Notes
mytool  1.2.3    x1   -         -          disabled
`

	revisions := parseSnapList(output)
	require.Len(t, revisions, 1)
	assert.Equal(t, "x1", revisions[0].Revision)
	assert.True(t, revisions[0].Disabled)
}

// TestParseSnapListEmpty verifies that empty output and a bare header
// produce no revisions.
func TestParseSnapListEmpty(t *testing.T) {
	assert.Empty(t, parseSnapList(""))
	assert.Empty(t, parseSnapList("Name  Version  Rev  Tracking  Publisher  Notes\n"))
}

// TestParseSnapListIgnoresShortLines verifies that truncated or blank
// lines are skipped rather than producing garbage entries.
func TestParseSnapListIgnoresShortLines(t *testing.T) {
	output := `Name  Version  Rev  Tracking  Publisher  Notes
core20  20231123  2105  latest/stable  canonical  base

broken line
`

	revisions := parseSnapList(output)
	require.Len(t, revisions, 1)
	assert.Equal(t, "core20", revisions[0].Name)
}

// TestHasNote covers the comma-separated Notes cell convention.
func TestHasNote(t *testing.T) {
	assert.True(t, hasNote("disabled", "disabled"))
	assert.True(t, hasNote("base,disabled", "disabled"))
	assert.True(t, hasNote("disabled,classic", "disabled"))
	assert.False(t, hasNote("-", "disabled"))
	assert.False(t, hasNote("classic", "disabled"))
	// Substring of another flag must not match.
	assert.False(t, hasNote("disabled-ish", "disabled"))
}

// TestDisabledRevisions verifies candidate selection: only disabled
// revisions are candidates, and protected snaps are reported separately.
func TestDisabledRevisions(t *testing.T) {
	revisions := []model.SnapRevision{
		{Name: "core20", Revision: "2105"},
		{Name: "core20", Revision: "1974", Disabled: true},
		{Name: "amazon-ssm-agent", Revision: "6563", Disabled: true},
		{Name: "lxd", Revision: "24322"},
	}

	isProtected := func(name string) bool { return name == "amazon-ssm-agent" }

	candidates, protected := DisabledRevisions(revisions, isProtected)

	require.Len(t, candidates, 1)
	assert.Equal(t, "core20", candidates[0].Name)
	assert.Equal(t, "1974", candidates[0].Revision)

	require.Len(t, protected, 1)
	assert.Equal(t, "amazon-ssm-agent", protected[0].Name)
}

// TestDisabledRevisionsNeverSelectsEnabled pins the core safety
// invariant: an enabled revision is never a removal candidate, even
// with no protection function installed.
func TestDisabledRevisionsNeverSelectsEnabled(t *testing.T) {
	revisions := []model.SnapRevision{
		{Name: "core20", Revision: "2105"},
		{Name: "snapd", Revision: "20290"},
	}

	candidates, protected := DisabledRevisions(revisions, nil)
	assert.Empty(t, candidates)
	assert.Empty(t, protected)
}

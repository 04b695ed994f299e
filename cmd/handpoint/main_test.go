package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/config"
	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/session"
	"github.com/ayusman/handpoint/internal/store"
)

func runCLI(t *testing.T, db string, args ...string) error {
	t.Helper()
	argv := append([]string{"handpoint", "--db", db}, args...)
	return newCLI().Run(argv)
}

func openTestStore(t *testing.T, db string) *store.Store {
	t.Helper()
	st, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestProfileCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "handpoint.db")

	require.NoError(t, runCLI(t, db, "profile", "save", "--tolerance", "70", "--min-defect-depth", "2000", "--activate", "close"))
	require.NoError(t, runCLI(t, db, "profile", "save", "wide"))
	require.NoError(t, runCLI(t, db, "profile", "list"))

	st := openTestStore(t, db)
	p, err := st.Profiles().GetByName("close")
	require.NoError(t, err)
	assert.Equal(t, 70, p.Tolerance)
	assert.Equal(t, 2000, p.MinDefectDepth)
	assert.Equal(t, int(handseg.DefaultParams().BinaryThreshold), p.BinaryThreshold)

	active, err := st.Settings().Get(store.SettingActiveProfile)
	require.NoError(t, err)
	assert.Equal(t, "close", active)

	require.NoError(t, runCLI(t, db, "profile", "use", "wide"))
	active, err = st.Settings().Get(store.SettingActiveProfile)
	require.NoError(t, err)
	assert.Equal(t, "wide", active)

	require.NoError(t, runCLI(t, db, "profile", "delete", "wide"))
	_, err = st.Profiles().GetByName("wide")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = st.Settings().Get(store.SettingActiveProfile)
	assert.True(t, errors.Is(err, store.ErrNotFound), "deleting the active profile clears the setting")

	assert.Error(t, runCLI(t, db, "profile", "delete", "wide"))
	assert.Error(t, runCLI(t, db, "profile", "use", "missing"))
}

func TestProfileSave_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "handpoint.db")

	assert.Error(t, runCLI(t, db, "profile", "save"), "name is required")

	err := runCLI(t, db, "profile", "save", "--tolerance", "70000", "big")
	assert.True(t, errors.Is(err, config.ErrInvalidValue))

	err = runCLI(t, db, "profile", "save", "--blur-size", "4", "even")
	assert.True(t, errors.Is(err, handseg.ErrInvalidParams))
}

func TestSynth_RequiresOut(t *testing.T) {
	db := filepath.Join(t.TempDir(), "handpoint.db")
	assert.Error(t, runCLI(t, db, "synth"))
	assert.Error(t, runCLI(t, db, "synth", "--out", t.TempDir(), "--frames", "0"))
}

func TestRun_UnknownProfile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "handpoint.db")
	err := runCLI(t, db, "run", "--headless", "--profile", "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRun_HeadlessRecording(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	dir := t.TempDir()
	db := filepath.Join(dir, "handpoint.db")
	rec := filepath.Join(dir, "rec")

	require.NoError(t, runCLI(t, db, "synth", "--out", rec, "--frames", "10", "--lost", "4", "--lost", "5", "--fps", "0"))
	require.NoError(t, runCLI(t, db, "profile", "save", "--tolerance", "60", "demo"))
	require.NoError(t, runCLI(t, db, "run", "--headless", "--recording", rec, "--profile", "demo"))
	require.NoError(t, runCLI(t, db, "sessions"))

	st := openTestStore(t, db)
	profile, err := st.Profiles().GetByName("demo")
	require.NoError(t, err)

	sessions, err := st.Sessions().ListRecent(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.False(t, s.Active())
	assert.Equal(t, session.ReasonShutdown, s.EndReason)
	assert.Equal(t, 1, s.RefocusCount)
	assert.Equal(t, profile.ID, s.ProfileID)
	assert.InDelta(t, float64(capture.HandDepth), s.StartPoint.Z, 0.001)
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/rehearsal-bot/internal/bot"
	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/events"
	"jordanella.com/rehearsal-bot/pkg/templates"
)

func TestRunFailedErrorDetection(t *testing.T) {
	err := errors.Join(&RunFailedError{Reason: "loading wait failed"}, errors.New("context"))

	var runErr *RunFailedError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "automation failed: loading wait failed", runErr.Error())
}

func TestFormatStatus(t *testing.T) {
	s := events.Progress{Iteration: 3, Total: 10, State: "Waiting for loading", Screenshots: 2, Written: 1, Failed: 1}
	assert.Equal(t, "[3/10] Waiting for loading (saved 2, recorded 1, failed 1)", formatStatus(s))
}

func TestSequenceOf(t *testing.T) {
	assert.Equal(t, 7, sequenceOf(filepath.Join("out", "007_20250301_120000.png"), 1))
	assert.Equal(t, 4, sequenceOf("capture.png", 4))
	assert.Equal(t, 2, sequenceOf("x_1.png", 2))
}

func TestElementRegion(t *testing.T) {
	c := config.Default()

	r, err := elementRegion(c, templates.SkipButton)
	require.NoError(t, err)
	assert.Equal(t, c.Regions.SkipButton, r)

	_, err = elementRegion(c, "menu")
	assert.Error(t, err)
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Detection, loaded.Detection)
	assert.Equal(t, config.Default().Window, loaded.Window)

	// Refuses to overwrite without --force
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", path})
	assert.Error(t, cmd.Execute())
}

func TestHistoryReadsSessionSummary(t *testing.T) {
	s, err := bot.NewSession(t.TempDir(), 5, fixedTime(t))
	require.NoError(t, err)
	s.Finish(bot.State{Kind: bot.StateAborted}, bot.Status{Iteration: 3, Written: 2}, fixedTime(t))
	require.NoError(t, s.WriteSummary())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "history", s.Dir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "aborted")
	assert.Contains(t, out.String(), "iterations:  2/5")
	_, err = os.Stat(filepath.Join(s.Dir, bot.SummaryFile))
	assert.NoError(t, err)
}

func TestCommandsRejectInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr:\n  threshold: 300\n"), 0644))

	for _, args := range [][]string{
		{"ocr", "shot.png"},
		{"probe"},
		{"calibrate", "start"},
	} {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--config", path}, args...))

		err := cmd.Execute()
		require.Error(t, err, args[0])
		assert.Contains(t, err.Error(), "ocr.threshold", args[0])
	}
}

func TestOCRRejectsPartialScoreRegions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "regions:\n  scores:\n    - {x: 0.1, y: 0.1, w: 0.2, h: 0.1}\n    - {x: 0.1, y: 0.3, w: 0.2, h: 0.1}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path, "ocr", "shot.png"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regions.scores must list 0 or 3 regions")
}

func fixedTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

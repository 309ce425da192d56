package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/rehearsal-bot/internal/ocr"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func sampleRecord(i int) Record {
	return Record{
		Iteration:  i,
		CapturedAt: time.Date(2025, 1, 2, 15, 4, 5, 0, time.Local),
		Screenshot: "screenshots/001_20250102_150405.png",
		Scores: ocr.Grid{
			{50339, 50796, 70859},
			{64997, 168009, 128450},
			{122130, 105901, 96776},
		},
	}
}

func TestOpenWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir)
	require.NoError(t, err)
	_, err = Open(dir)
	require.NoError(t, err)

	lines := readLines(t, filepath.Join(dir, ResultsFile))
	require.Len(t, lines, 1)
	assert.Equal(t, "iteration,timestamp,screenshot,s1c1,s1c2,s1c3,s2c1,s2c2,s2c3,s3c1,s3c2,s3c3", lines[0])
}

func TestOpenPreservesExistingRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ResultsFile)
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	_, err := Open(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"existing"}, readLines(t, path))
}

func TestOpenDropsPartialTrailingRow(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecord(1)))

	// Simulate a crash in the middle of the second append
	for _, name := range []string{ResultsFile, RawFile} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_APPEND, 0644)
		require.NoError(t, err)
		_, err = f.WriteString("2,2025-01-02T15:04:06,b.png,10,2")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	s, err = Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecord(3)))

	records, err := ReadRecords(s.ResultsPath())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Iteration)
	assert.Equal(t, 3, records[1].Iteration)

	raw := readLines(t, s.RawPath())
	require.Len(t, raw, 2)
	assert.Equal(t, raw[0], raw[1])
}

func TestOpenPartialHeaderIsRewritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ResultsFile)
	require.NoError(t, os.WriteFile(path, []byte("iteration,times"), 0644))

	_, err := Open(dir)
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, Header[0], strings.Split(lines[0], ",")[0])
	assert.Len(t, strings.Split(lines[0], ","), len(Header))
}

func TestOpenWritesHeaderIntoEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ResultsFile)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Open(dir)
	require.NoError(t, err)

	assert.Len(t, readLines(t, path), 1)
}

func TestAppendWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(sampleRecord(i)))
	}
	assert.Equal(t, 3, store.Appended())

	lines := readLines(t, store.ResultsPath())
	require.Len(t, lines, 4)
	assert.Equal(t,
		"1,2025-01-02T15:04:05,screenshots/001_20250102_150405.png,50339,50796,70859,64997,168009,128450,122130,105901,96776",
		lines[1])

	raw := readLines(t, store.RawPath())
	require.Len(t, raw, 3)
	assert.Equal(t, "50339,50796,70859,64997,168009,128450,122130,105901,96776", raw[0])
}

func TestReadRecordsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(sampleRecord(1)))
	require.NoError(t, store.Append(sampleRecord(2)))

	records, err := ReadRecords(store.ResultsPath())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[1].Iteration)
	assert.Equal(t, sampleRecord(1).Scores, records[0].Scores)
	assert.True(t, sampleRecord(1).CapturedAt.Equal(records[0].CapturedAt))
}

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/infrastructure/config"
	"github.com/kwansinnn/cytosight-all-detect/internal/printer"
)

func testEnv() (*Env, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	env := &Env{
		LoadConfig: func() (*config.Config, error) {
			return &config.Config{
				Environment:  "test",
				StoreBackend: config.StoreMemory,
				ImageBucket:  "discussion-images",
				EventBus:     config.EventBusLog,
			}, nil
		},
		Printer: &printer.Printer{Out: &out, Err: &errOut},
	}
	return env, &out, &errOut
}

func run(t *testing.T, env *Env, args ...string) error {
	t.Helper()
	root := NewRootCommand(env)
	root.SetArgs(args)
	return root.Execute()
}

func TestUploads_ListsDemoAnalyses(t *testing.T) {
	env, out, _ := testEnv()
	require.NoError(t, run(t, env, "uploads"))
	assert.Contains(t, out.String(), "FILE")
	assert.Contains(t, out.String(), "2 analyses")
}

func TestAnalyze(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slide.png")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o600))

	env, out, _ := testEnv()
	require.NoError(t, run(t, env, "analyze", path))
	assert.Contains(t, out.String(), "slide.png:")

	m := regexp.MustCompile(`(\d+)% confidence`).FindStringSubmatch(out.String())
	require.Len(t, m, 2, out.String())
	pct, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pct, 70)
	assert.LessOrEqual(t, pct, 100)
}

func TestAnalyze_MissingFile(t *testing.T) {
	env, _, errOut := testEnv()
	err := run(t, env, "analyze", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Equal(t, "Cannot read file", err.Error())
	assert.Contains(t, errOut.String(), "Cannot read file")
}

func TestThreads(t *testing.T) {
	env, out, _ := testEnv()
	require.NoError(t, run(t, env, "threads"))
	assert.Contains(t, out.String(), "comments")

	err := run(t, env, "threads", "--marked", "starred")
	require.Error(t, err)
}

func TestReport_WritesFile(t *testing.T) {
	dir := t.TempDir()
	env, out, _ := testEnv()

	require.NoError(t, run(t, env, "report", "--title", "Weekly", "--format", "html", "--out-dir", dir))
	assert.Contains(t, out.String(), "Wrote ")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".html", filepath.Ext(entries[0].Name()))
}

func TestReport_RequiresTitle(t *testing.T) {
	env, _, errOut := testEnv()
	err := run(t, env, "report", "--out-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "Title Required", err.Error())
	assert.Contains(t, errOut.String(), "Please provide a title")
}

func TestSignIn_WrongPassword(t *testing.T) {
	env, _, _ := testEnv()
	err := run(t, env, "uploads", "--email", "pathologist@cytosight.dev", "--password", "nope")
	require.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efdcrun/internal/config"
	"efdcrun/internal/observe"
	"efdcrun/internal/runner"
	"efdcrun/internal/testsim"
	"efdcrun/internal/workspace"
	"efdcrun/pkg/inp"
)

// model stamps its restart outputs with the call number.
type model struct{ calls int }

func (m *model) Execute(_ context.Context, dir, _ string) ([]byte, error) {
	m.calls++
	for _, name := range []string{runner.RestartOut, runner.TempRestartOut, runner.WQRestartOut} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(fmt.Sprintf("state %d", m.calls)), 0o644); err != nil {
			return nil, err
		}
	}
	return []byte(" TIMING INFORMATION IN SECONDS\n TIME END = 1.5\n"), nil
}

type env struct {
	src, root, config string
	model             *model
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	src := testsim.Write(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "efdc.exe"), nil, 0o755))
	cfg := strings.Join([]string{
		"source_root: " + src,
		"work_root: " + filepath.Join(root, "runs"),
		"log:",
		"  level: error",
		"artifact:",
		"  driver: fs",
		"  fs_root: " + filepath.Join(root, "artifacts"),
		"ledger:",
		"  driver: sqlite",
		"  path: " + filepath.Join(root, "ledger.db"),
		"metrics:",
		"  trace_path: " + filepath.Join(root, "trace.jsonl"),
		"  prometheus_file: " + filepath.Join(root, "efdcrun.prom"),
		"",
	}, "\n")
	path := filepath.Join(root, "efdcrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &env{src: src, root: root, config: path, model: &model{}}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), &app{executor: e.model}, append([]string{"--config", e.config}, args...), &out)
	return out.String(), err
}

func TestCheck(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "check", e.src)
	require.NoError(t, err)
	for _, name := range []string{inp.EFDCFile, inp.FlowFile, inp.ConcentrationFile, inp.WQ3DWCFile, inp.AdjustFile} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "identical")
	assert.NotContains(t, out, "CHANGED")

	// source_root is the default directory
	_, err = e.run(t, "check")
	require.NoError(t, err)
}

func TestCheckNormalized(t *testing.T) {
	e := newEnv(t)
	text := strings.Replace(testsim.EFDC, "10 24 0.0", "10   24\t0.0", 1)
	require.NoError(t, os.WriteFile(filepath.Join(e.src, inp.EFDCFile), []byte(text), 0o644))
	out, err := e.run(t, "check", e.src)
	require.NoError(t, err)
	assert.Contains(t, out, "normalized")
}

func TestCheckBrokenInput(t *testing.T) {
	e := newEnv(t)
	text := strings.Replace(testsim.EFDC, "7 8 0 0 3 0 0 1.0\n", "", 1)
	require.NoError(t, os.WriteFile(filepath.Join(e.src, inp.EFDCFile), []byte(text), 0o644))
	_, err := e.run(t, "check", e.src)
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, normalize([]byte("a  b\tc\n\n")), normalize([]byte("a b c")))
	assert.NotEqual(t, normalize([]byte("a b")), normalize([]byte("a c")))
}

func TestSelectFlow(t *testing.T) {
	e := newEnv(t)
	dst := filepath.Join(e.root, "selected")
	out, err := e.run(t, "select-flow", e.src, "--keep", "0,2", "--out", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "2 flow boundaries (north, outlet)")

	ws, err := workspace.Load(context.Background(), dst)
	require.NoError(t, err)
	require.NoError(t, ws.Validate())
	n, err := ws.CountFlow()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = e.run(t, "select-flow", e.src, "--drop", "1", "--mode", "qfactor", "--out", dst)
	require.NoError(t, err)
	ws, err = workspace.Load(context.Background(), dst)
	require.NoError(t, err)
	n, err = ws.CountFlow()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "qfactor mode keeps every row")

	_, err = e.run(t, "select-flow", e.src, "--keep", "0", "--drop", "1", "--out", dst)
	assert.Error(t, err)
	_, err = e.run(t, "select-flow", e.src, "--keep", "0", "--mode", "soft", "--out", dst)
	assert.ErrorIs(t, err, workspace.ErrUnknownMode)
	_, err = e.run(t, "select-flow", e.src, "--keep", "x", "--out", dst)
	assert.Error(t, err)
}

func TestRunAndRuns(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "run", e.src, "--length", "4", "--begin", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "TIME END=1.5")
	assert.Equal(t, 1, e.model.calls)

	out, err = e.run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
	assert.Regexp(t, `succeeded\s+1\s+2\s+4\s`, out, "attempt, begin and length recorded")
}

func TestBatch(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "batch", e.src, "--keep-sets", "0,2;1;-", "--mode", "flow")
	require.NoError(t, err)
	assert.Equal(t, 3, e.model.calls)
	assert.Equal(t, 4, strings.Count(out, "\n"), "header and three jobs")

	_, err = e.run(t, "batch", e.src, "--keep-sets", "7")
	assert.Error(t, err)
}

func TestRestart(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "restart", e.src, "--end", "25", "--step", "10")
	require.NoError(t, err)
	// base run to day 10, then windows [10,20) and [20,25)
	assert.Equal(t, 3, e.model.calls)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	baseDir := strings.Fields(lines[1])[1]
	chainDir := strings.Fields(lines[2])[1]
	assert.NotEqual(t, baseDir, chainDir, "chain runs in a fork")
	assert.Equal(t, chainDir, strings.Fields(lines[3])[1])
	data, err := os.ReadFile(filepath.Join(baseDir, runner.RestartOut))
	require.NoError(t, err)
	assert.Equal(t, "state 1", string(data), "base run outputs untouched")
	data, err = os.ReadFile(filepath.Join(chainDir, runner.RestartIn))
	require.NoError(t, err)
	assert.Equal(t, "state 2", string(data))

	_, err = e.run(t, "restart", e.src, "--end", "25", "--step", "0")
	assert.Error(t, err)
}

func TestObservabilityOutputs(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "run", e.src)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(e.root, "trace.jsonl"))
	require.NoError(t, err)
	var ops []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry observe.TraceEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		ops = append(ops, entry.Operation)
	}
	assert.Contains(t, ops, "workspace.load")
	assert.Contains(t, ops, "runner.run")
	assert.Contains(t, ops, "artifact.put")

	prom, err := os.ReadFile(filepath.Join(e.root, "efdcrun.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `efdcrun_operations_total{operation="runner.run",status="success"} 1`)

	entries, err := os.ReadDir(filepath.Join(e.root, "artifacts", "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestParseKeepSets(t *testing.T) {
	got, err := parseKeepSets("0,2; 1 ;-")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2}, {1}, {}}, got)

	_, err = parseKeepSets("0,a")
	assert.Error(t, err)
}

func TestMissingSource(t *testing.T) {
	e := newEnv(t)
	cfg := filepath.Join(e.root, "empty.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: error\n"), 0o644))
	err := execute(context.Background(), &app{}, []string{"--config", cfg, "check"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "source_root")
}

func TestArtifacts(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "run", e.src)
	require.NoError(t, err)

	out, err := e.run(t, "artifacts")
	require.NoError(t, err)
	runs := strings.Fields(out)
	require.Len(t, runs, 1)
	run := runs[0]

	out, err = e.run(t, "artifacts", run)
	require.NoError(t, err)
	assert.Contains(t, out, inp.EFDCFile)
	assert.Contains(t, out, "console.log")
	assert.Contains(t, out, "console: file://")

	out, err = e.run(t, "artifacts", run, "--fetch", "console.log")
	require.NoError(t, err)
	assert.Contains(t, out, "TIMING INFORMATION")

	_, err = e.run(t, "artifacts", run, "--fetch", "nope.out")
	assert.Error(t, err)
	_, err = e.run(t, "artifacts", "--purge")
	assert.Error(t, err)

	out, err = e.run(t, "artifacts", run, "--purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged")
	out, err = e.run(t, "artifacts")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	_, err = e.run(t, "artifacts", run)
	assert.Error(t, err)
}

func TestArtifactsWithoutArchive(t *testing.T) {
	e := newEnv(t)
	t.Setenv("EFDCRUN_ARTIFACT_DRIVER", "none")
	_, err := e.run(t, "artifacts")
	assert.ErrorIs(t, err, errNoArchive)
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.root, "conf", "efdcrun.yaml")
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		err := execute(context.Background(), &app{}, append([]string{"--config", path}, args...), &out)
		return out.String(), err
	}
	out, err := run("init", e.src)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, e.src, cfg.SourceRoot)
	assert.Equal(t, config.Default().Executable, cfg.Executable)

	_, err = run("init")
	require.Error(t, err, "existing file kept")
	_, err = run("init", "--force")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, e.src, cfg.SourceRoot, "effective configuration carried over")
}

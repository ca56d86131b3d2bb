package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrExecutableNotFound means the executable glob matched nothing in the
	// source directory.
	ErrExecutableNotFound = errors.New("runner: executable not found")
	// ErrPoolFailed means a job used up its attempts; it wraps the last
	// attempt's error.
	ErrPoolFailed = errors.New("runner: pool job failed")
)

// Restart file names. The model writes the *.OUT files at the end of a run
// and reads the others when C02 ISRESTI is set.
const (
	RestartOut     = "RESTART.OUT"
	TempRestartOut = "TEMPBRST.OUT"
	WQRestartOut   = "WQWCRST.OUT"
	RestartIn      = "RESTART.INP"
	TempRestartIn  = "TEMPB.RST"
	WQRestartIn    = "wqini.inp"
)

// restartFiles pairs each restart output with the input it becomes.
var restartFiles = [][2]string{
	{RestartOut, RestartIn},
	{TempRestartOut, TempRestartIn},
	{WQRestartOut, WQRestartIn},
}

// Stage recreates dst and symlinks the executable and the shared files of
// src into it. An empty shared list links every regular file of src except
// model outputs (*.out) and logs, since the model would write through a
// linked output into the source directory. It returns the executable name.
func Stage(src, dst, executable string, shared []string) (string, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(src, executable))
	if err != nil {
		return "", fmt.Errorf("runner: executable pattern %q: %w", executable, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no %q in %s", ErrExecutableNotFound, executable, src)
	}
	sort.Strings(matches)
	exe := filepath.Base(matches[0])

	if shared == nil {
		if shared, err = defaultShared(src); err != nil {
			return "", err
		}
	}
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("runner: clear %s: %w", dst, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("runner: create %s: %w", dst, err)
	}
	linked := map[string]bool{}
	for _, name := range append([]string{exe}, shared...) {
		if linked[name] {
			continue
		}
		linked[name] = true
		if err := os.Symlink(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return "", fmt.Errorf("runner: link %s: %w", name, err)
		}
	}
	return exe, nil
}

func defaultShared(src string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("runner: read %s: %w", src, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".out" || ext == ".log" {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// CopyRestartFiles copies the restart outputs of one run directory into
// another, the step that forks a finished run into several continuations.
func CopyRestartFiles(from, to string) error {
	for _, pair := range restartFiles {
		if err := copyFile(filepath.Join(from, pair[0]), filepath.Join(to, pair[0])); err != nil {
			return fmt.Errorf("runner: copy %s: %w", pair[0], err)
		}
	}
	return nil
}

// PrepareRestart turns the restart outputs in dir into the inputs the next
// run reads, replacing any earlier inputs or staged links.
func PrepareRestart(dir string) error {
	for _, pair := range restartFiles {
		in := filepath.Join(dir, pair[1])
		if err := os.Remove(in); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("runner: remove %s: %w", pair[1], err)
		}
		if err := copyFile(filepath.Join(dir, pair[0]), in); err != nil {
			return fmt.Errorf("runner: restart %s -> %s: %w", pair[0], pair[1], err)
		}
	}
	return nil
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	if err := os.Remove(to); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	dst, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

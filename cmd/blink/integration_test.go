package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/csheth/blink/internal/tuitest"
)

func TestBlinkEditAndQuit(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	dataDir := t.TempDir()

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-data-dir", dataDir},
		Dir:     t.TempDir(),
		Env:     []string{"BLINK_AUTOSAVE=1h"},
		Width:   100,
		Height:  30,
		Steps: []tuitest.Step{
			{WaitFor: "Ch 1/1"},
			{Input: []byte("It was a dark night")},
			{WaitFor: "Words 5"},
			{Input: tuitest.KeyCtrlK},
			{WaitFor: "Command Palette"},
			{Input: tuitest.KeyEsc},
			{Delay: 200 * time.Millisecond, Input: tuitest.KeyCtrlQ},
			{WaitFor: "Quit without saving?"},
			{Input: []byte("y")},
		},
		Timeout: 20 * time.Second,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if !rec.Contains("Modified") {
		t.Fatal("status bar never reported the unsaved edit")
	}
	if _, err := os.Stat(filepath.Join(dataDir, "store")); err != nil {
		t.Fatalf("store directory missing: %v", err)
	}
}

func TestBlinkOpensFileArgument(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	workDir := t.TempDir()
	notes := filepath.Join(workDir, "notes.txt")
	if err := os.WriteFile(notes, []byte("alpha beta gamma"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-data-dir", t.TempDir(), notes},
		Dir:     workDir,
		Width:   100,
		Height:  30,
		Steps: []tuitest.Step{
			{WaitFor: "Words 3"},
			{Input: tuitest.KeyCtrlQ},
		},
		Timeout: 20 * time.Second,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if !rec.Contains("notes.txt") {
		t.Fatal("file name missing from the header")
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	name := "blink-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}

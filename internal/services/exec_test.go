package services_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"apkmitm/internal/services"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestCommandExecutorStreamsLinesInOrder(t *testing.T) {
	sh := requireShell(t)
	var got []string
	err := services.CommandExecutor{}.Run(context.Background(), sh, []string{"-c", "echo one; echo two; echo three"}, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{"one", "two", "three"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected lines: got %v want %v", got, want)
	}
}

func TestCommandExecutorReportsTailOnFailure(t *testing.T) {
	sh := requireShell(t)
	err := services.CommandExecutor{}.Run(context.Background(), sh, []string{"-c", "echo working; echo 'brut.androlib.AndrolibException: boom' 1>&2; exit 3"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var cmdErr *services.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", err)
	}
	if !strings.Contains(err.Error(), "AndrolibException: boom") {
		t.Fatalf("expected last output line in error, got %q", err.Error())
	}
	if !services.IsCommandError(err) {
		t.Fatal("expected IsCommandError to match")
	}
	if len(cmdErr.Tail) != 2 {
		t.Fatalf("expected two captured lines, got %v", cmdErr.Tail)
	}
}

func TestCommandExecutorPrefersStderrForCause(t *testing.T) {
	sh := requireShell(t)
	for i := 0; i < 50; i++ {
		err := services.CommandExecutor{}.Run(context.Background(), sh, []string{"-c", "echo working; echo 'AndrolibException: boom' 1>&2; exit 3"}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.HasSuffix(err.Error(), ": AndrolibException: boom") {
			t.Fatalf("run %d: expected stderr diagnostic as cause, got %q", i, err.Error())
		}
	}
}

func TestCommandErrorFallsBackToMergedTail(t *testing.T) {
	err := &services.CommandError{Binary: "java", Err: errors.New("exit status 1"), Tail: []string{"I: Building apk file...", ""}}
	if got, want := err.Error(), "java: exit status 1: I: Building apk file..."; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCommandExecutorHonoursCancellation(t *testing.T) {
	sh := requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := services.CommandExecutor{}.Run(ctx, sh, []string{"-c", "sleep 5"}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

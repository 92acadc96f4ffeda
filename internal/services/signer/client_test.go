package signer_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"apkmitm/internal/services/signer"
)

type stubExecutor struct {
	lines []string
	err   error
	args  []string
}

func (s *stubExecutor) Run(_ context.Context, _ string, args []string, onLine func(string)) error {
	s.args = append([]string(nil), args...)
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

func collect(t *testing.T, client *signer.Client, paths []string, opts signer.Options) ([]string, error) {
	t.Helper()
	var lines []string
	for line, err := range client.Sign(context.Background(), paths, opts) {
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func TestSignArguments(t *testing.T) {
	tests := []struct {
		name string
		opts signer.Options
		want []string
	}{
		{
			name: "zipalign",
			opts: signer.Options{Zipalign: true},
			want: []string{"-jar", "/opt/signer.jar", "--apks", "/tmp/tmp.apk", "--allowResign", "--overwrite"},
		},
		{
			name: "no zipalign",
			want: []string{"-jar", "/opt/signer.jar", "--apks", "/tmp/tmp.apk", "--allowResign", "--overwrite", "--skipZipAlign"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{lines: []string{"source:", "\t/tmp/tmp.apk", "VERIFY"}}
			client, err := signer.New("java", "/opt/signer.jar", signer.WithExecutor(exec))
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			lines, err := collect(t, client, []string{"/tmp/tmp.apk"}, tc.opts)
			if err != nil {
				t.Fatalf("Sign yielded error: %v", err)
			}
			if !slices.Equal(exec.args, tc.want) {
				t.Fatalf("args = %v, want %v", exec.args, tc.want)
			}
			if len(lines) != 3 {
				t.Fatalf("expected 3 lines, got %v", lines)
			}
		})
	}
}

func TestSignPropagatesFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	client, err := signer.New("java", "/opt/signer.jar", signer.WithExecutor(&stubExecutor{err: boom}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = collect(t, client, []string{"a.apk"}, signer.Options{})
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "uber-apk-signer:") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignRequiresPaths(t *testing.T) {
	client, err := signer.New("java", "/opt/signer.jar", signer.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := collect(t, client, nil, signer.Options{}); err == nil {
		t.Fatal("expected error without paths")
	}
	if _, err := signer.New("java", ""); err == nil {
		t.Fatal("expected error without jar")
	}
}

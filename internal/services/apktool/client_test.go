package apktool_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"apkmitm/internal/services"
	"apkmitm/internal/services/apktool"
)

type stubExecutor struct {
	lines  []string
	err    error
	binary string
	args   [][]string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onLine func(string)) error {
	s.binary = binary
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return s.err
}

func newClient(t *testing.T, exec services.Executor, opts ...apktool.Option) *apktool.Client {
	t.Helper()
	opts = append(opts, apktool.WithExecutor(exec))
	client, err := apktool.New("java", "/opt/apktool.jar", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresJavaAndJar(t *testing.T) {
	if _, err := apktool.New("", "/opt/apktool.jar"); err == nil {
		t.Fatal("expected error for missing java")
	}
	if _, err := apktool.New("java", " "); err == nil {
		t.Fatal("expected error for missing jar")
	}
}

func TestDecodeBuildsArgumentsAndForwardsLines(t *testing.T) {
	exec := &stubExecutor{lines: []string{"I: Using Apktool 2.9.3", "I: Loading resource table..."}}
	client := newClient(t, exec, apktool.WithFrameworkPath("/tmp/fw"))

	var got []string
	if err := client.Decode(context.Background(), "app.apk", "/tmp/x/decode", func(line string) { got = append(got, line) }); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := []string{"-jar", "/opt/apktool.jar", "d", "app.apk", "-o", "/tmp/x/decode", "-f", "--frame-path", "/tmp/fw"}
	if exec.binary != "java" || !slices.Equal(exec.args[0], want) {
		t.Fatalf("unexpected invocation %s %v", exec.binary, exec.args[0])
	}
	if !slices.Equal(got, exec.lines) {
		t.Fatalf("lines not forwarded: %v", got)
	}
}

func TestDecodeWrapsExecutorError(t *testing.T) {
	boom := errors.New("boom")
	client := newClient(t, &stubExecutor{err: boom})
	err := client.Decode(context.Background(), "app.apk", "out", nil)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "apktool decode") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEncodeSelectsResourceCompiler(t *testing.T) {
	tests := []struct {
		name     string
		useAAPT2 bool
		want     []string
	}{
		{name: "aapt2", useAAPT2: true, want: []string{"-jar", "/opt/apktool.jar", "b", "decode", "-o", "tmp.apk", "--use-aapt2"}},
		{name: "aapt", useAAPT2: false, want: []string{"-jar", "/opt/apktool.jar", "b", "decode", "-o", "tmp.apk"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{lines: []string{"I: Building apk file..."}}
			client := newClient(t, exec)
			var lines []string
			for line, err := range client.Encode(context.Background(), "decode", "tmp.apk", tc.useAAPT2) {
				if err != nil {
					t.Fatalf("Encode yielded error: %v", err)
				}
				lines = append(lines, line)
			}
			if !slices.Equal(exec.args[0], tc.want) {
				t.Fatalf("args = %v, want %v", exec.args[0], tc.want)
			}
			if !slices.Equal(lines, exec.lines) {
				t.Fatalf("lines = %v", lines)
			}
		})
	}
}

func TestEncodeYieldsFailureAfterLines(t *testing.T) {
	boom := errors.New("exit status 1")
	exec := &stubExecutor{lines: []string{"W: error: failed linking references."}, err: boom}
	client := newClient(t, exec)

	var lines []string
	var gotErr error
	for line, err := range client.Encode(context.Background(), "decode", "tmp.apk", true) {
		if err != nil {
			gotErr = err
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) != 1 {
		t.Fatalf("expected output before failure, got %v", lines)
	}
	if !errors.Is(gotErr, boom) || !strings.Contains(gotErr.Error(), "apktool build") {
		t.Fatalf("unexpected error %v", gotErr)
	}
}

func TestVersionReturnsLastLine(t *testing.T) {
	client := newClient(t, &stubExecutor{lines: []string{"2.9.3", ""}})
	version, err := client.Version(context.Background())
	if err != nil || version != "2.9.3" {
		t.Fatalf("Version = %q, %v", version, err)
	}
}

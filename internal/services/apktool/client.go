package apktool

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"apkmitm/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithFrameworkPath points apktool at a private framework directory instead of
// the shared one under the user's home.
func WithFrameworkPath(path string) Option {
	return func(c *Client) {
		c.frameworkPath = strings.TrimSpace(path)
	}
}

// Client invokes apktool through the Java runtime.
type Client struct {
	java          string
	jar           string
	frameworkPath string
	exec          services.Executor
}

// New constructs an apktool client.
func New(java, jar string, opts ...Option) (*Client, error) {
	java = strings.TrimSpace(java)
	jar = strings.TrimSpace(jar)
	if java == "" {
		return nil, errors.New("java binary required")
	}
	if jar == "" {
		return nil, errors.New("apktool jar required")
	}
	client := &Client{java: java, jar: jar, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Decode unpacks inputPath into outputDir, replacing any previous contents.
func (c *Client) Decode(ctx context.Context, inputPath, outputDir string, emit func(string)) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputDir == "" {
		return errors.New("output directory required")
	}
	args := c.args("d", inputPath, "-o", outputDir, "-f")
	if err := c.exec.Run(ctx, c.java, args, emit); err != nil {
		return fmt.Errorf("apktool decode: %w", err)
	}
	return nil
}

// Encode rebuilds decodedDir into outputPath. With useAAPT2 set the resources
// are compiled with AAPT2, otherwise with the legacy AAPT.
func (c *Client) Encode(ctx context.Context, decodedDir, outputPath string, useAAPT2 bool) iter.Seq2[string, error] {
	args := c.args("b", decodedDir, "-o", outputPath)
	if useAAPT2 {
		args = append(args, "--use-aapt2")
	}
	return func(yield func(string, error) bool) {
		if decodedDir == "" || outputPath == "" {
			yield("", errors.New("decoded directory and output path required"))
			return
		}
		for line, err := range services.Stream(ctx, c.exec, c.java, args) {
			if err != nil {
				yield("", fmt.Errorf("apktool build: %w", err))
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Version reports the apktool version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var lines []string
	if err := c.exec.Run(ctx, c.java, []string{"-jar", c.jar, "--version"}, func(line string) {
		lines = append(lines, strings.TrimSpace(line))
	}); err != nil {
		return "", fmt.Errorf("apktool version: %w", err)
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i] != "" {
			return lines[i], nil
		}
	}
	return "", errors.New("apktool version: no output")
}

func (c *Client) args(command string, rest ...string) []string {
	args := []string{"-jar", c.jar, command}
	args = append(args, rest...)
	if c.frameworkPath != "" {
		args = append(args, "--frame-path", c.frameworkPath)
	}
	return args
}

package signer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"apkmitm/internal/services"
)

// Options controls how archives are signed.
type Options struct {
	// Zipalign runs zipalign before signing.
	Zipalign bool
}

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

// Client invokes uber-apk-signer through the Java runtime.
type Client struct {
	java string
	jar  string
	exec services.Executor
}

// New constructs a signer client.
func New(java, jar string, opts ...Option) (*Client, error) {
	java = strings.TrimSpace(java)
	jar = strings.TrimSpace(jar)
	if java == "" {
		return nil, errors.New("java binary required")
	}
	if jar == "" {
		return nil, errors.New("uber-apk-signer jar required")
	}
	client := &Client{java: java, jar: jar, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Sign signs every archive in paths in place and yields the signer's output.
func (c *Client) Sign(ctx context.Context, paths []string, opts Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if len(paths) == 0 {
			yield("", errors.New("no archives to sign"))
			return
		}
		for line, err := range services.Stream(ctx, c.exec, c.java, c.args(paths, opts)) {
			if err != nil {
				yield("", fmt.Errorf("uber-apk-signer: %w", err))
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

func (c *Client) args(paths []string, opts Options) []string {
	args := []string{"-jar", c.jar}
	for _, path := range paths {
		args = append(args, "--apks", path)
	}
	args = append(args, "--allowResign", "--overwrite")
	if !opts.Zipalign {
		args = append(args, "--skipZipAlign")
	}
	return args
}

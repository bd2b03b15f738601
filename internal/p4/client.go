// Package p4 talks to a Perforce server through the p4 command line client,
// which is always present on the server host this tool is meant to run on.
package p4

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a p4 command and returns its stdout. It exists so tests can
// feed canned -ztag output without a live server.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// Config contains the connection settings passed as p4 global flags. Empty
// fields fall back to the P4PORT/P4USER/P4PASSWD environment the server host
// already has.
type Config struct {
	Port   string
	User   string
	Passwd string
}

// Client queries the Perforce server's live configuration
type Client struct {
	runner Runner
}

type execRunner struct {
	globals []string
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "p4", append(append([]string{}, r.globals...), args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("p4 %s: %w", strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("p4 %s: %s: %w", strings.Join(args, " "), msg, err)
	}

	return stdout.Bytes(), nil
}

// Connect creates a client and verifies the server is reachable. An
// unreachable server is fatal to the whole run, so this fails fast before any
// enumeration happens.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	globals := []string{"-ztag"}
	if cfg.Port != "" {
		globals = append(globals, "-p", cfg.Port)
	}
	if cfg.User != "" {
		globals = append(globals, "-u", cfg.User)
	}
	if cfg.Passwd != "" {
		globals = append(globals, "-P", cfg.Passwd)
	}

	c := &Client{runner: &execRunner{globals: globals}}

	if _, err := c.runner.Run(ctx, "info"); err != nil {
		return nil, fmt.Errorf("could not connect to Perforce server: %w", err)
	}

	return c, nil
}

// NewClient wraps an existing runner; used by tests
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// parseTagged splits -ztag output into records. Each record is a set of
// "... Var Value" lines; a blank line separates records.
func parseTagged(out []byte) []map[string]string {
	var records []map[string]string
	current := map[string]string{}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(current) > 0 {
				records = append(records, current)
				current = map[string]string{}
			}
			continue
		}

		rest, ok := strings.CutPrefix(line, "... ")
		if !ok {
			continue
		}
		key, value, _ := strings.Cut(rest, " ")
		current[key] = value
	}
	if len(current) > 0 {
		records = append(records, current)
	}

	return records
}

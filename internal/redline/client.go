package redline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

const (
	// ModeRecord prints camera and record metadata as "Key:\tValue" lines
	ModeRecord Mode = 1

	// ModePerFrame prints IMU samples aligned one per video frame
	ModePerFrame Mode = 5

	// ModeAsync prints independently timestamped IMU samples
	ModeAsync Mode = 7
)

// Mode selects which metadata block REDline prints
type Mode int

func (m Mode) String() string {
	return strconv.Itoa(int(m))
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) func(c *Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("runtime", c.runtime.Path()))
	}
}

// Client runs REDline metadata queries against video files
type Client struct {
	runtime Runtime
	logger  *slog.Logger
}

// NewClient creates a new Client with a discard logger
func NewClient(runtime Runtime, options ...func(c *Client)) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	c := Client{
		runtime: runtime,
		logger:  logger,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Args returns the command line arguments for a metadata query
func Args(video string, mode Mode) []string {
	return []string{"--i", video, "--useMeta", "--printMeta", mode.String()}
}

// Query runs REDline to completion and returns its standard output and
// standard error. An empty stdout is a valid answer: the requested block is
// not present in the file.
func (c *Client) Query(ctx context.Context, video string, mode Mode) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, c.runtime.Path(), Args(video, mode)...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	c.logger.Debug("querying metadata", slog.String("file", video), slog.String("mode", mode.String()))

	runErr := cmd.Run()

	stdout = outBuf.String()
	stderr = strings.TrimSpace(errBuf.String())

	if stderr != "" {
		c.logger.Warn(fmt.Sprintf("redline >> %s", stderr), slog.String("file", video), slog.String("mode", mode.String()))
	}

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(runErr, ctxErr) {
			runErr = errors.Join(runErr, ctxErr)
		}
		return stdout, stderr, &QueryError{Mode: mode, Stderr: stderr, Err: runErr}
	}

	return stdout, stderr, nil
}

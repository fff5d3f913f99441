package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
)

// maxLineSize bounds a single newline-delimited message, 10MB
const maxLineSize = 10 * 1024 * 1024

// StdioTransport spawns a subprocess and exchanges newline-delimited
// JSON-RPC over its standard pipes. The subprocess lives exactly as long
// as the transport: Stop terminates it and reaps it.
type StdioTransport struct {
	*BaseTransport
	config Config

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser
	started bool
	done    chan struct{}
	once    sync.Once
}

// newStdioTransport creates a stdio transport from a validated config
func newStdioTransport(config Config) *StdioTransport {
	return &StdioTransport{
		BaseTransport: NewBaseTransport(config.Logger),
		config:        config,
		done:          make(chan struct{}),
	}
}

// Initialize spawns the subprocess and wires up its pipes
func (t *StdioTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd != nil {
		return nil
	}

	cmd := exec.Command(t.config.Command, t.config.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeStdio), t.config.Command,
			fmt.Errorf("failed to open stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeStdio), t.config.Command,
			fmt.Errorf("failed to open stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeStdio), t.config.Command,
			fmt.Errorf("failed to open stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return mcperrors.ConnectionFailed(string(TypeStdio), t.config.Command,
			fmt.Errorf("failed to spawn %s: %w", t.config.Command, err))
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.stderr = stderr

	t.logger.Debug("spawned server subprocess",
		logging.String("command", t.config.Command),
		logging.Int("pid", cmd.Process.Pid))

	return nil
}

// Start runs the receive loops. It blocks until the subprocess exits, the
// context is cancelled, or Stop is called.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.cmd == nil {
		t.mu.Unlock()
		return mcperrors.InvalidState("start transport", "not initialized")
	}
	if t.started {
		t.mu.Unlock()
		return mcperrors.InvalidState("start transport", "already started")
	}
	t.started = true
	stdout := t.stdout
	stderr := t.stderr
	t.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.readLoop(gctx, stdout)
	})

	g.Go(func() error {
		// Drain stderr so the subprocess never blocks writing
		// diagnostics, and surface them for debugging.
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			t.logger.Debug("server stderr", logging.String("line", scanner.Text()))
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case <-t.done:
			return nil
		}
	})

	err := g.Wait()
	t.Cleanup()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// readLoop consumes stdout line by line and dispatches each message
func (t *StdioTransport) readLoop(ctx context.Context, stdout io.Reader) error {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// The scanner reuses its buffer across Scan calls
		msg := make([]byte, len(line))
		copy(msg, line)

		t.DispatchMessage(ctx, msg, func(data []byte) error {
			return t.writeMessage(data)
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-t.done:
			// Pipe errors during shutdown are expected
			return nil
		default:
		}
		return mcperrors.ConnectionClosed(string(TypeStdio), err)
	}
	// EOF: the subprocess closed its stdout
	return nil
}

// writeMessage sends one newline-terminated message to the subprocess
func (t *StdioTransport) writeMessage(data []byte) error {
	t.mu.Lock()
	stdin := t.stdin
	t.mu.Unlock()

	if stdin == nil {
		return mcperrors.ConnectionClosed(string(TypeStdio), nil)
	}
	if _, err := stdin.Write(append(data, '\n')); err != nil {
		return mcperrors.ConnectionClosed(string(TypeStdio), err)
	}
	return nil
}

// SendRequest sends a request and waits for the correlated response
func (t *StdioTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return t.SendRequestVia(ctx, method, params, func(_ context.Context, data []byte) error {
		return t.writeMessage(data)
	})
}

// SendNotification sends a one-way message
func (t *StdioTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	return t.SendNotificationVia(ctx, method, params, func(_ context.Context, data []byte) error {
		return t.writeMessage(data)
	})
}

// Stop terminates the subprocess and releases all pending requests.
// Safe to call more than once.
func (t *StdioTransport) Stop(ctx context.Context) error {
	var stopErr error
	t.once.Do(func() {
		close(t.done)

		t.mu.Lock()
		cmd := t.cmd
		stdin := t.stdin
		t.mu.Unlock()

		// Closing stdin asks a well-behaved server to exit on its own
		if stdin != nil {
			_ = stdin.Close()
		}

		if cmd != nil && cmd.Process != nil {
			waited := make(chan error, 1)
			go func() { waited <- cmd.Wait() }()

			select {
			case <-waited:
			case <-ctx.Done():
				if err := cmd.Process.Kill(); err != nil {
					stopErr = fmt.Errorf("failed to kill subprocess: %w", err)
				}
				<-waited
			}
		}

		t.Cleanup()
		t.logger.Debug("stdio transport stopped", logging.String("command", t.config.Command))
	})
	return stopErr
}

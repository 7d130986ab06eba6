package flamapy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
)

var ErrPythonNotFound = errors.New("python interpreter not found")

const (
	stderrTailSize = 4096
	// exitGrace bounds how long diagnose waits for a dying worker to finish
	// writing stderr.
	exitGrace = 2 * time.Second
)

// process is one running worker: a Python interpreter executing the driver
// inside a session workspace.
type process struct {
	cmd    *exec.Cmd
	client *client
	stderr *tailBuffer
	log    *slog.Logger

	exited  chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

func startProcess(cfg Config, dir, driverPath string, log *slog.Logger) (*process, error) {
	path, err := exec.LookPath(cfg.Python)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPythonNotFound, cfg.Python)
	}

	args := append(append([]string{}, cfg.Args...), driverPath)
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"PYTHONIOENCODING=utf-8",
		"PYTHONUNBUFFERED=1",
	)

	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Python, err)
	}

	log.Debug("worker started", "pid", cmd.Process.Pid, "dir", dir)

	p := &process{
		cmd:    cmd,
		stderr: stderr,
		log:    log,
		exited: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()
	p.client = newClient(context.Background(), &protocol.StdioConn{Reader: stdout, Writer: stdin}, log)
	return p, nil
}

// diagnose attaches the worker's stderr to errors caused by the worker
// going away, where the JSON-RPC error alone says nothing useful.
func (p *process) diagnose(err error) error {
	var engineErr *EngineError
	if err == nil || errors.As(err, &engineErr) || errors.Is(err, ErrEngineUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	select {
	case <-p.exited:
	case <-time.After(exitGrace):
		return err
	}

	if tail := strings.TrimSpace(p.stderr.String()); tail != "" {
		return fmt.Errorf("flamapy worker exited: %w: %s", err, lastLine(tail))
	}
	return fmt.Errorf("flamapy worker exited: %w", err)
}

func (p *process) stop(timeout time.Duration) error {
	p.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		select {
		case <-p.client.disconnected():
		default:
			if err := p.client.shutdown(ctx); err != nil {
				p.log.Debug("worker shutdown request failed", "error", err)
			}
		}
		p.client.close()

		select {
		case <-p.exited:
			var exitErr *exec.ExitError
			if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
				p.stopErr = p.waitErr
			}
		case <-ctx.Done():
			p.log.Warn("worker did not exit, killing", "pid", p.cmd.Process.Pid)
			p.cmd.Process.Kill()
			<-p.exited
		}
	})
	return p.stopErr
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

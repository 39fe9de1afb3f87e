package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
)

// Worker analyzes one file pair
type Worker interface {
	Analyze(ctx context.Context, pair FilePair) (*Outcome, error)
}

// InProcessWorker runs the pipeline on the calling goroutine. On timeout the
// pool abandons it and cancels its context.
type InProcessWorker struct {
	Config config.AnalyzerConfig
}

func (w InProcessWorker) Analyze(ctx context.Context, pair FilePair) (*Outcome, error) {
	return Analyze(ctx, pair, w.Config)
}

// WorkerRequest is written to a worker process on stdin
type WorkerRequest struct {
	Pair   FilePair              `json:"pair"`
	Config config.AnalyzerConfig `json:"config"`
}

// WorkerResponse is read back from a worker process on stdout. Analysis
// failures travel in Error; crashes surface as a non-zero exit instead.
type WorkerResponse struct {
	Outcome   *Outcome `json:"outcome,omitempty"`
	Error     string   `json:"error,omitempty"`
	ErrorType string   `json:"error_type,omitempty"`
}

// SubprocessWorker runs each file pair in a child process, so a runaway
// analysis can be killed outright
type SubprocessWorker struct {
	// Executable defaults to the running binary
	Executable string
	// Args default to the hidden worker subcommand
	Args   []string
	Config config.AnalyzerConfig
}

func (w SubprocessWorker) Analyze(ctx context.Context, pair FilePair) (*Outcome, error) {
	exe := w.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, errors.WorkerError(err, pair.Path)
		}
		exe = self
	}
	args := w.Args
	if args == nil {
		args = []string{"worker"}
	}

	payload, err := json.Marshal(WorkerRequest{Pair: pair, Config: w.Config})
	if err != nil {
		return nil, errors.InternalErrorf("failed to encode worker request: %v", err)
	}

	// the deadline kills the child
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no output"
		}
		return nil, errors.WorkerError(fmt.Errorf("%w: %s", err, msg), pair.Path)
	}

	var resp WorkerResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.WorkerError(fmt.Errorf("malformed worker output: %w", err), pair.Path)
	}
	if resp.Error != "" {
		errType, _ := errors.ParseType(resp.ErrorType)
		return nil, errors.New(errType, errors.SeverityHigh, resp.Error).WithContext("file", pair.Path)
	}
	if resp.Outcome == nil {
		return nil, errors.WorkerError(fmt.Errorf("worker returned no outcome"), pair.Path)
	}
	if err := resp.Outcome.validate(); err != nil {
		return nil, errors.WorkerError(err, pair.Path)
	}
	return resp.Outcome, nil
}

// ServeWorker reads one request from r, analyzes it in process and writes the
// response to w. Only I/O failures are returned; analysis failures are
// encoded in the response.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer) error {
	var req WorkerRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode worker request: %w", err)
	}

	var resp WorkerResponse
	outcome, err := Analyze(ctx, req.Pair, req.Config)
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorType = errors.TypeName(err)
	} else {
		resp.Outcome = outcome
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to write worker response: %w", err)
	}
	return nil
}

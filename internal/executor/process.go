package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"go.uber.org/zap"
)

// ProcessExecutor bridges to a sandboxed interpreter process: the JSON
// request is written to the child's stdin and the JSON result is read back
// from its stdout. Diagnostic output on stderr is logged, never parsed.
type ProcessExecutor struct {
	command string
	args    []string
	logger  *logger.Logger
}

// NewProcessExecutor creates an executor that spawns the given command for
// every execution, e.g. ("python3", "indicator_executor.py").
func NewProcessExecutor(command string, args []string, logger *logger.Logger) *ProcessExecutor {
	return &ProcessExecutor{
		command: command,
		args:    args,
		logger:  logger,
	}
}

// Execute implements Executor.
func (e *ProcessExecutor) Execute(ctx context.Context, request Request) (Result, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeExecutionFailed, "failed to encode execution request", err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if stderr.Len() > 0 {
		e.logger.Debug("Executor diagnostics",
			zap.String("command", e.command),
			zap.String("stderr", stderr.String()),
		)
	}

	// A non-zero exit still carries a structured error payload on stdout, so
	// decoding is attempted before the exit status is reported.
	var result Result
	if decodeErr := json.Unmarshal(stdout.Bytes(), &result); decodeErr != nil {
		if runErr != nil {
			return Result{}, errors.Wrap(errors.ErrCodeExecutorUnavailable, "executor process failed", runErr)
		}

		return Result{}, errors.Wrap(errors.ErrCodeMalformedResult, "failed to decode executor response", decodeErr)
	}

	return result, nil
}

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// errCLITimeout marks a subprocess that was killed at its deadline.
var errCLITimeout = errors.New("cli timed out")

// runCLI executes one non-interactive CLI invocation and captures its output.
// The subprocess is always reaped: CommandContext kills it at the deadline
// and WaitDelay bounds how long Run waits for lingering pipe readers, so no
// exit path leaks a process.
func runCLI(ctx context.Context, argv []string, timeout time.Duration, debug bool, logger *log.Logger) (stdout, stderr string, err error) {
	if len(argv) == 0 {
		return "", "", errors.New("empty argv")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = 2 * time.Second

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if debug && logger != nil {
		logger.Printf("cli exec: %s", strings.Join(argv, " "))
	}

	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if debug && logger != nil {
		logger.Printf("cli done: err=%v stdout=%s stderr=%s", runErr, preview(stdout), preview(stderr))
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout, stderr, fmt.Errorf("%w after %s", errCLITimeout, timeout)
	}
	if runErr != nil {
		return stdout, stderr, fmt.Errorf("cli failed: %w", runErr)
	}
	return stdout, stderr, nil
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

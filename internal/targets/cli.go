package targets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrToolNotFound means a vendor CLI binary is missing from PATH.
var ErrToolNotFound = errors.New("deployment tool not found")

// ErrDeployTimeout means a vendor CLI ran past the deploy deadline.
var ErrDeployTimeout = errors.New("deployment timed out")

// Vendor CLIs have no upper bound of their own, so deploys get one here.
const deployTimeout = 10 * time.Minute

// vendorCLI shells out to one vendor's command-line tool.
type vendorCLI struct {
	binary      string
	installHint string
}

// run executes the tool in dir and returns its stdout. A missing binary gets
// an install hint; a non-zero exit surfaces the tool's stderr verbatim so the
// operator can see the underlying provider failure.
func (v vendorCLI) run(ctx context.Context, dir string, args ...string) (string, error) {
	if _, err := exec.LookPath(v.binary); err != nil {
		return "", fmt.Errorf("%w: %s is not installed, install via: %s", ErrToolNotFound, v.binary, v.installHint)
	}

	ctx, cancel := context.WithTimeout(ctx, deployTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w: %s %s ran past %s", ErrDeployTimeout, v.binary, strings.Join(args, " "), deployTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("%s %s failed: %w\n%s", v.binary, strings.Join(args, " "), err, stderr.String())
	}

	return stdout.String(), nil
}

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ReportFormat asks GNU time for "<elapsed seconds> <max RSS>".
const ReportFormat = "%e %M"

// Config describes the resource measurement wrapper placed around every run.
// It measures; it does not confine.
type Config struct {
	TimeBinary string
}

func NewConfig(timeBinary string) Config {
	return Config{TimeBinary: timeBinary}
}

// Wrap returns the argv that runs argv under the time wrapper, reporting to
// reportPath.
func (c Config) Wrap(reportPath string, argv []string) []string {
	cmd := make([]string, 0, len(argv)+6)
	cmd = append(cmd, c.TimeBinary, "-q", "-f", ReportFormat, "-o", reportPath)
	return append(cmd, argv...)
}

type Usage struct {
	TimeMs float64
	Memory float64
}

// ParseReport reads the wrapper's report. Only the last non-empty line
// counts; it must hold exactly the two fields of ReportFormat.
func ParseReport(report string) (Usage, error) {
	lines := strings.Split(strings.TrimSpace(report), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	fields := strings.Fields(last)
	if len(fields) != 2 {
		return Usage{}, fmt.Errorf("malformed resource report %q", last)
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Usage{}, fmt.Errorf("parse elapsed time: %w", err)
	}
	memory, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Usage{}, fmt.Errorf("parse peak memory: %w", err)
	}
	return Usage{TimeMs: seconds * 1e3, Memory: memory}, nil
}

// Command builds a child process that runs in dir inside its own process
// group. When ctx is done the whole group is killed, so a wrapper and the
// program it measures go down together.
func Command(ctx context.Context, dir string, argv []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second
	return cmd
}

// ExitCode separates a normal non-zero exit from a failure to run at all.
func ExitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

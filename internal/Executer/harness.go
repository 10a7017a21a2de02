package executer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/logging"
	"github.com/sudankdk/runbox/internal/metrics"
	"github.com/sudankdk/runbox/internal/model"
	"github.com/sudankdk/runbox/internal/sandbox"
	"github.com/sudankdk/runbox/internal/utils"
)

// Harness runs compiled programs under the resource measurement wrapper.
// It keeps no state between runs; every run gets its own scratch files.
type Harness struct {
	langs      *languages.Registry
	programDir string
	wrapper    sandbox.Config
	runTimeout time.Duration
	log        *logging.ZapLogger
}

func NewHarness(langs *languages.Registry, programDir string, wrapper sandbox.Config, runTimeout time.Duration, log *logging.ZapLogger) (*Harness, error) {
	programDir, err := filepath.Abs(programDir)
	if err != nil {
		return nil, err
	}
	return &Harness{
		langs:      langs,
		programDir: programDir,
		wrapper:    wrapper,
		runTimeout: runTimeout,
		log:        log,
	}, nil
}

// Execute runs an already compiled program against input. The program's own
// exit code, zero or not, is part of the outcome.
func (h *Harness) Execute(ctx context.Context, compilerID, programID, input string) (*model.Outcome, error) {
	lang, err := h.langs.Get(compilerID)
	if err != nil {
		return nil, err
	}
	out, err := h.execute(ctx, lang, filepath.Join(h.programDir, programID), input)

	status := "success"
	if err != nil {
		status = model.KindOf(err).String()
	}
	metrics.ExecutionsTotal.WithLabelValues(lang.ID, status).Inc()
	if out != nil {
		metrics.PhaseDuration.WithLabelValues(lang.ID, "run").Observe(out.TimeMs)
		metrics.MemoryUsage.WithLabelValues(lang.ID).Observe(out.Memory)
	}
	return out, err
}

func (h *Harness) execute(ctx context.Context, lang languages.Language, dir, input string) (*model.Outcome, error) {
	scratch := utils.NewScratch(dir)
	defer func() {
		if err := scratch.Remove(); err != nil {
			logging.FromContext(ctx, h.log).Warn("scratch cleanup failed", "dir", dir, "error", err)
		}
	}()

	if err := os.WriteFile(scratch.Stdin, []byte(input), 0o644); err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to write stdin", err)
	}
	stdin, err := os.Open(scratch.Stdin)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to open stdin", err)
	}
	defer stdin.Close()
	stdout, err := os.Create(scratch.Stdout)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to create stdout", err)
	}
	defer stdout.Close()
	stderr, err := os.Create(scratch.Stderr)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to create stderr", err)
	}
	defer stderr.Close()

	rctx, cancel := context.WithTimeout(ctx, h.runTimeout)
	defer cancel()

	cmd := sandbox.Command(rctx, dir, h.wrapper.Wrap(scratch.Report, lang.RunCommand))
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	logging.FromContext(ctx, h.log).Debug("program finished", "compiler", lang.ID, "dir", dir, "wall_ms", time.Since(start).Milliseconds())

	if ctxErr := rctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, model.NewError(model.KindTimeout, fmt.Sprintf("execution exceeded %s", h.runTimeout), ctxErr)
		}
		return nil, model.NewError(model.KindRunFault, "execution cancelled", ctxErr)
	}
	code, err := sandbox.ExitCode(runErr)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to launch program", err)
	}

	outText, err := utils.ReadString(scratch.Stdout)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to read stdout", err)
	}
	errText, err := utils.ReadString(scratch.Stderr)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to read stderr", err)
	}
	report, err := utils.ReadString(scratch.Report)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to read resource report", err)
	}
	usage, err := sandbox.ParseReport(report)
	if err != nil {
		return nil, model.NewError(model.KindRunFault, "failed to parse resource report", err)
	}

	return &model.Outcome{
		ExitCode: code,
		Stdout:   outText,
		Stderr:   errText,
		TimeMs:   usage.TimeMs,
		Memory:   usage.Memory,
	}, nil
}

package executer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/logging"
	"github.com/sudankdk/runbox/internal/metrics"
	"github.com/sudankdk/runbox/internal/model"
	"github.com/sudankdk/runbox/internal/sandbox"
	"github.com/sudankdk/runbox/internal/utils"
	"golang.org/x/sync/singleflight"
)

const (
	statusFile   = model.StatusFile
	compileLog   = model.CompileLog
	pollInterval = 100 * time.Millisecond
)

// compileResult is the terminal state of one program. It never changes once
// recorded.
type compileResult struct {
	exitCode    int
	diagnostics string
}

func (r compileResult) err() error {
	if r.exitCode == 0 {
		return nil
	}
	return model.CompileFailure(r.diagnostics)
}

// Cache compiles each (compiler, source) pair at most once and serves the
// recorded outcome to every later caller. Lookup, staging and compile for
// one program id run inside a single singleflight call; different ids
// compile in parallel.
type Cache struct {
	langs          *languages.Registry
	programDir     string
	templateDir    string
	compileTimeout time.Duration
	log            *logging.ZapLogger

	group singleflight.Group
	mu    sync.RWMutex
	done  map[string]compileResult
}

func NewCache(langs *languages.Registry, programDir, templateDir string, compileTimeout time.Duration, log *logging.ZapLogger) (*Cache, error) {
	programDir, err := filepath.Abs(programDir)
	if err != nil {
		return nil, err
	}
	templateDir, err = filepath.Abs(templateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(programDir, 0o755); err != nil {
		return nil, fmt.Errorf("create program dir: %w", err)
	}
	return &Cache{
		langs:          langs,
		programDir:     programDir,
		templateDir:    templateDir,
		compileTimeout: compileTimeout,
		log:            log,
		done:           make(map[string]compileResult),
	}, nil
}

// Dir is where the artifact for programID lives.
func (c *Cache) Dir(programID string) string {
	return filepath.Join(c.programDir, programID)
}

// EnsureCompiled returns the program id once a terminal compile outcome
// exists. A non-zero compiler exit comes back as a CompileFailure error
// carrying the diagnostics, for this and every later identical request.
func (c *Cache) EnsureCompiled(ctx context.Context, compilerID, source string) (string, error) {
	lang, err := c.langs.Get(compilerID)
	if err != nil {
		return "", err
	}
	id := utils.ProgramID(compilerID, source)

	if res, ok := c.lookup(id); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		if err := res.err(); err != nil {
			return "", err
		}
		return id, nil
	}

	// The compile may be shared with other requests, so it runs detached
	// from ctx. A caller that gives up stops waiting; the compile goes on.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (interface{}, error) {
		return c.load(detached, lang, id, source)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return "", model.NewError(model.KindRunFault, "request cancelled while compiling", ctx.Err())
	}
	if r.Err != nil {
		return "", r.Err
	}
	if r.Shared {
		logging.FromContext(ctx, c.log).Debug("joined in-flight compile", "program_id", id)
	}
	if err := r.Val.(compileResult).err(); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Cache) lookup(id string) (compileResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.done[id]
	return res, ok
}

func (c *Cache) remember(id string, res compileResult) {
	c.mu.Lock()
	c.done[id] = res
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context, lang languages.Language, id, source string) (compileResult, error) {
	// Another call for id may have finished between the caller's lookup
	// and this one starting.
	if res, ok := c.lookup(id); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return res, nil
	}
	dir := c.Dir(id)

	res, found, err := c.awaitMarker(dir)
	if err != nil {
		return compileResult{}, err
	}
	if found {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		c.remember(id, res)
		return res, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	res, err = c.compile(ctx, lang, dir, source)
	if err != nil {
		// A dir that appeared under us belongs to someone else.
		if !errors.Is(err, os.ErrExist) {
			c.discard(dir)
		}
		return compileResult{}, err
	}
	c.remember(id, res)
	return res, nil
}

// awaitMarker reports the recorded outcome for dir. A directory without a
// status marker belongs to a compile we cannot see (another process, or one
// that crashed); it is polled until the compile timeout and then removed.
func (c *Cache) awaitMarker(dir string) (compileResult, bool, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return compileResult{}, false, nil
	} else if err != nil {
		return compileResult{}, false, model.NewError(model.KindRunFault, "failed to inspect program cache", err)
	}

	deadline := time.Now().Add(c.compileTimeout)
	for {
		res, ok, err := readMarker(dir)
		if err != nil || ok {
			return res, ok, err
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}

	c.log.Warn("removing program dir without compile status", "dir", dir)
	if err := os.RemoveAll(dir); err != nil {
		return compileResult{}, false, model.NewError(model.KindRunFault, "failed to reset program cache", err)
	}
	return compileResult{}, false, nil
}

func readMarker(dir string) (compileResult, bool, error) {
	status, err := utils.ReadString(filepath.Join(dir, statusFile))
	if errors.Is(err, os.ErrNotExist) {
		return compileResult{}, false, nil
	}
	if err != nil {
		return compileResult{}, false, model.NewError(model.KindRunFault, "failed to read compile status", err)
	}
	code, err := strconv.Atoi(strings.TrimSpace(status))
	if err != nil {
		return compileResult{}, false, model.NewError(model.KindRunFault, "corrupt compile status", err)
	}
	res := compileResult{exitCode: code}
	if code != 0 {
		diag, err := utils.ReadString(filepath.Join(dir, compileLog))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return compileResult{}, false, model.NewError(model.KindRunFault, "failed to read compile diagnostics", err)
		}
		res.diagnostics = diag
	}
	return res, true, nil
}

func (c *Cache) compile(ctx context.Context, lang languages.Language, dir, source string) (compileResult, error) {
	if err := utils.Materialize(lang, c.templateDir, dir, source); err != nil {
		return compileResult{}, model.NewError(model.KindStagingFault, "failed to stage workspace", err)
	}
	if !lang.NeedsCompile() {
		return compileResult{}, writeMarker(dir, 0)
	}

	logFile, err := os.Create(filepath.Join(dir, compileLog))
	if err != nil {
		return compileResult{}, model.NewError(model.KindStagingFault, "failed to create compile log", err)
	}
	defer logFile.Close()

	cctx, cancel := context.WithTimeout(ctx, c.compileTimeout)
	defer cancel()

	cmd := sandbox.Command(cctx, dir, lang.CompileCommand)
	cmd.Stderr = logFile

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)
	metrics.PhaseDuration.WithLabelValues(lang.ID, "compile").Observe(float64(elapsed.Milliseconds()))

	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		metrics.CompilesTotal.WithLabelValues(lang.ID, "timeout").Inc()
		return compileResult{}, model.NewError(model.KindTimeout,
			fmt.Sprintf("compilation exceeded %s", c.compileTimeout), cctx.Err())
	}
	code, err := sandbox.ExitCode(runErr)
	if err != nil {
		metrics.CompilesTotal.WithLabelValues(lang.ID, "error").Inc()
		return compileResult{}, model.NewError(model.KindRunFault, "failed to launch compiler", err)
	}
	if err := logFile.Close(); err != nil {
		return compileResult{}, model.NewError(model.KindRunFault, "failed to write compile log", err)
	}

	res := compileResult{exitCode: code}
	if code != 0 {
		diag, err := utils.ReadString(filepath.Join(dir, compileLog))
		if err != nil {
			return compileResult{}, model.NewError(model.KindRunFault, "failed to read compile diagnostics", err)
		}
		res.diagnostics = diag
	}
	if err := writeMarker(dir, code); err != nil {
		return compileResult{}, err
	}

	outcome := "success"
	if code != 0 {
		outcome = "failure"
	}
	metrics.CompilesTotal.WithLabelValues(lang.ID, outcome).Inc()
	logging.FromContext(ctx, c.log).Info("compiled program", "compiler", lang.ID, "dir", dir, "exit_code", code, "elapsed_ms", elapsed.Milliseconds())
	return res, nil
}

// writeMarker records completion. It is the last write to a program dir.
func writeMarker(dir string, code int) error {
	if err := utils.WriteFileAtomic(filepath.Join(dir, statusFile), []byte(strconv.Itoa(code))); err != nil {
		return model.NewError(model.KindRunFault, "failed to record compile status", err)
	}
	return nil
}

func (c *Cache) discard(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		c.log.Error("failed to remove partial program dir", "dir", dir, "error", err)
	}
}

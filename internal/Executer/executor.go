package executer

import (
	"context"
	"sort"

	"github.com/sudankdk/runbox/internal/config"
	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/logging"
	"github.com/sudankdk/runbox/internal/model"
	"github.com/sudankdk/runbox/internal/sandbox"
)

// Executor ties the compile cache to the execution harness.
type Executor struct {
	langs   *languages.Registry
	cache   *Cache
	harness *Harness
}

func NewExecutor(cfg *config.Config, langs *languages.Registry, log *logging.ZapLogger) (*Executor, error) {
	cache, err := NewCache(langs, cfg.ProgramDir, cfg.TemplateDir, cfg.CompileTimeout, log.With("component", "compile_cache"))
	if err != nil {
		return nil, err
	}
	harness, err := NewHarness(langs, cfg.ProgramDir, sandbox.NewConfig(cfg.TimeBinary), cfg.RunTimeout, log.With("component", "harness"))
	if err != nil {
		return nil, err
	}
	return &Executor{langs: langs, cache: cache, harness: harness}, nil
}

// Compilers lists the registered compilers sorted by name.
func (e *Executor) Compilers() []model.CompilerInfo {
	langs := e.langs.List()
	out := make([]model.CompilerInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, model.CompilerInfo{
			Language:     l.Language,
			CompilerName: l.ID,
			Label:        l.Label,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompilerName < out[j].CompilerName })
	return out
}

// Run compiles code.SourceCode if needed and executes it against code.Stdin.
func (e *Executor) Run(ctx context.Context, code model.Code) (*model.Outcome, error) {
	programID, err := e.cache.EnsureCompiled(ctx, code.Compiler, code.SourceCode)
	if err != nil {
		return nil, err
	}
	return e.harness.Execute(ctx, code.Compiler, programID, code.Stdin)
}

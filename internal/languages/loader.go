package languages

import (
	"fmt"
	"path/filepath"

	"github.com/sudankdk/runbox/internal/config"
	"github.com/sudankdk/runbox/internal/model"
)

// CopyFile stages Src (relative to the template dir) at Dst (relative to the
// program dir).
type CopyFile struct {
	Src string
	Dst string
}

type Language struct {
	ID             string
	Language       string
	Label          string
	CopyFiles      []CopyFile
	SourceFilename string
	CompileCommand []string
	RunCommand     []string
}

// NeedsCompile is false for run-only compilers such as interpreters.
func (l Language) NeedsCompile() bool {
	return len(l.CompileCommand) > 0
}

// Registry is built once at startup and never mutated afterwards, so it
// needs no locking.
type Registry struct {
	langs map[string]Language
}

func New(compilers map[string]config.Compiler) (*Registry, error) {
	r := &Registry{langs: make(map[string]Language, len(compilers))}
	for id, c := range compilers {
		lang, err := build(id, c)
		if err != nil {
			return nil, err
		}
		r.langs[id] = lang
	}
	return r, nil
}

func build(id string, c config.Compiler) (Language, error) {
	if len(c.RunCommand) == 0 {
		return Language{}, fmt.Errorf("compiler %q: run_command is empty", id)
	}
	if !filepath.IsLocal(c.SourceFilename) {
		return Language{}, fmt.Errorf("compiler %q: source_filename %q must be a relative path inside the program dir", id, c.SourceFilename)
	}
	if model.IsReservedName(c.SourceFilename) {
		return Language{}, fmt.Errorf("compiler %q: source_filename %q is reserved", id, c.SourceFilename)
	}
	lang := Language{
		ID:             id,
		Language:       c.Language,
		Label:          c.Label,
		SourceFilename: c.SourceFilename,
		CompileCommand: append([]string(nil), c.CompileCommand...),
		RunCommand:     append([]string(nil), c.RunCommand...),
	}
	for _, pair := range c.CopyFiles {
		if len(pair) != 2 {
			return Language{}, fmt.Errorf("compiler %q: copy_files entry %v must be [src, dst]", id, pair)
		}
		if !filepath.IsLocal(pair[0]) || !filepath.IsLocal(pair[1]) {
			return Language{}, fmt.Errorf("compiler %q: copy_files entry %v escapes its directory", id, pair)
		}
		if model.IsReservedName(pair[1]) {
			return Language{}, fmt.Errorf("compiler %q: copy_files destination %q is reserved", id, pair[1])
		}
		lang.CopyFiles = append(lang.CopyFiles, CopyFile{Src: pair[0], Dst: pair[1]})
	}
	return lang, nil
}

func (r *Registry) Get(name string) (Language, error) {
	l, ok := r.langs[name]
	if !ok {
		return Language{}, model.UnknownCompiler(name)
	}
	return l, nil
}

// List returns every compiler in no particular order.
func (r *Registry) List() []Language {
	out := make([]Language, 0, len(r.langs))
	for _, l := range r.langs {
		out = append(out, l)
	}
	return out
}

package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/model"
)

// Materialize creates programDir and stages the template files and the
// source inside it. programDir must not exist yet.
func Materialize(lang languages.Language, templateDir, programDir, source string) error {
	if err := os.Mkdir(programDir, 0o755); err != nil {
		return fmt.Errorf("create program dir: %w", err)
	}
	for _, cf := range lang.CopyFiles {
		src := filepath.Join(templateDir, cf.Src)
		dst := filepath.Join(programDir, cf.Dst)
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("stage %s: %w", cf.Dst, err)
		}
	}
	sourcePath := filepath.Join(programDir, lang.SourceFilename)
	if err := os.MkdirAll(filepath.Dir(sourcePath), 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		return fmt.Errorf("write source: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Scratch holds the per-run files of one execution. The random prefix keeps
// concurrent runs of the same program apart.
type Scratch struct {
	Stdin  string
	Stdout string
	Stderr string
	Report string
}

func NewScratch(dir string) Scratch {
	prefix := filepath.Join(dir, model.ScratchPrefix+uuid.New().String())
	return Scratch{
		Stdin:  prefix + ".stdin",
		Stdout: prefix + ".stdout",
		Stderr: prefix + ".stderr",
		Report: prefix + ".time",
	}
}

// Remove deletes all four files. Missing files are ignored.
func (s Scratch) Remove() error {
	var errs []error
	for _, p := range []string{s.Stdin, s.Stdout, s.Stderr, s.Report} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

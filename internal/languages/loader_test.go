package languages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sudankdk/runbox/internal/config"
	"github.com/sudankdk/runbox/internal/model"
)

func TestNewBuildsDefinitions(t *testing.T) {
	r, err := New(map[string]config.Compiler{
		"gcc-c": {
			Language:       "C",
			Label:          "GCC",
			CopyFiles:      [][]string{{"c/stdc.h", "include/stdc.h"}},
			SourceFilename: "main.c",
			CompileCommand: []string{"gcc", "main.c"},
			RunCommand:     []string{"./a.out"},
		},
		"python3": {
			Language:       "Python",
			SourceFilename: "main.py",
			RunCommand:     []string{"python3", "main.py"},
		},
	})
	require.NoError(t, err)

	gcc, err := r.Get("gcc-c")
	require.NoError(t, err)
	assert.True(t, gcc.NeedsCompile())
	assert.Equal(t, []CopyFile{{Src: "c/stdc.h", Dst: "include/stdc.h"}}, gcc.CopyFiles)

	py, err := r.Get("python3")
	require.NoError(t, err)
	assert.False(t, py.NeedsCompile())

	assert.Len(t, r.List(), 2)
}

func TestGetUnknownCompiler(t *testing.T) {
	r, err := New(map[string]config.Compiler{
		"sh": {SourceFilename: "main.sh", RunCommand: []string{"sh", "main.sh"}},
	})
	require.NoError(t, err)

	_, err = r.Get("brainfuck")
	assert.Equal(t, model.KindUnknownCompiler, model.KindOf(err))
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := map[string]config.Compiler{
		"empty run command": {SourceFilename: "main.c"},
		"absolute source":   {SourceFilename: "/etc/passwd", RunCommand: []string{"cat"}},
		"escaping source":   {SourceFilename: "../main.c", RunCommand: []string{"./main"}},
		"short copy pair":   {SourceFilename: "main.c", RunCommand: []string{"./main"}, CopyFiles: [][]string{{"only"}}},
		"escaping copy dst": {SourceFilename: "main.c", RunCommand: []string{"./main"}, CopyFiles: [][]string{{"a", "../../a"}}},
		"source is status":  {SourceFilename: "compile_status.txt", RunCommand: []string{"sh", "compile_status.txt"}},
		"source is log":     {SourceFilename: "compile_error.txt", RunCommand: []string{"sh", "compile_error.txt"}},
		"source is scratch": {SourceFilename: "run-main.sh", RunCommand: []string{"sh", "run-main.sh"}},
		"copy onto status":  {SourceFilename: "main.c", RunCommand: []string{"./main"}, CopyFiles: [][]string{{"a", "compile_status.txt"}}},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(map[string]config.Compiler{"x": c})
			assert.Error(t, err)
		})
	}
}

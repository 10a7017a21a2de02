package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
bind = "0.0.0.0:9000"
run_timeout = "2s"
rate_limit = 5.0

[compilers.gcc-c]
language = "C"
label = "GCC (C17)"
copy_files = [["common/testlib.h", "testlib.h"]]
source_filename = "main.c"
compile_command = ["gcc", "-O2", "-o", "main", "main.c"]
run_command = ["./main"]

[compilers.python3]
language = "Python"
label = "CPython 3"
source_filename = "main.py"
run_command = ["python3", "main.py"]
`

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Bind)
	assert.Equal(t, DefaultProgramDir, cfg.ProgramDir)
	assert.Equal(t, DefaultTemplateDir, cfg.TemplateDir)
	assert.Equal(t, DefaultTimeBinary, cfg.TimeBinary)
	assert.Equal(t, DefaultCompileTimeout, cfg.CompileTimeout)
	assert.Equal(t, 2*time.Second, cfg.RunTimeout)
	assert.Equal(t, 10, cfg.RateBurst)

	require.Len(t, cfg.Compilers, 2)
	gcc := cfg.Compilers["gcc-c"]
	assert.Equal(t, [][]string{{"common/testlib.h", "testlib.h"}}, gcc.CopyFiles)
	assert.Equal(t, []string{"./main"}, gcc.RunCommand)
	assert.Empty(t, cfg.Compilers["python3"].CompileCommand)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("RUNBOX_BIND", ":7000")
	t.Setenv("RUNBOX_DEBUG", "true")

	cfg, err := Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Bind)
	assert.True(t, cfg.Debug)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no compilers", `bind = ":1"`},
		{"unknown key", sample + "\nbindd = \"x\"\n"},
		{"not toml", "[[["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestLoadAndInitEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.Compilers, "python3")

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	assert.NoError(t, InitEnv(filepath.Join(dir, "missing.env")))

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUNBOX_CONFIG_TEST_VALUE=hello\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RUNBOX_CONFIG_TEST_VALUE") })
	require.NoError(t, InitEnv(envFile))
	assert.Equal(t, "hello", os.Getenv("RUNBOX_CONFIG_TEST_VALUE"))
}

package executer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sudankdk/runbox/internal/config"
	"github.com/sudankdk/runbox/internal/languages"
	"github.com/sudankdk/runbox/internal/logging"
)

// fakeTime stands in for GNU time: it accepts the same flags, runs the
// command and always reports "0.05 12345".
const fakeTime = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
	case "$1" in
	-q) shift ;;
	-f) shift 2 ;;
	-o) out="$2"; shift 2 ;;
	*) break ;;
	esac
done
"$@"
code=$?
printf '0.05 12345\n' > "$out"
exit $code
`

type testEnv struct {
	root      string
	cfg       *config.Config
	countFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	timeBin := filepath.Join(root, "fake-time")
	require.NoError(t, os.WriteFile(timeBin, []byte(fakeTime), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "template"), 0o755))

	countFile := filepath.Join(root, "compiles.log")
	// fakecc "compiles" main.src into prog.sh. Sources containing BROKEN fail.
	fakecc := fmt.Sprintf(`echo compiled >> %q; sleep 0.2; `+
		`if grep -q BROKEN main.src; then echo "main.src:1: syntax error" >&2; exit 1; fi; `+
		`cp main.src prog.sh`, countFile)

	cfg := &config.Config{
		ProgramDir:     filepath.Join(root, "program"),
		TemplateDir:    filepath.Join(root, "template"),
		TimeBinary:     timeBin,
		CompileTimeout: 10 * time.Second,
		RunTimeout:     5 * time.Second,
		Compilers: map[string]config.Compiler{
			"sh": {
				Language:       "Shell",
				Label:          "POSIX sh",
				SourceFilename: "main.sh",
				RunCommand:     []string{"sh", "main.sh"},
			},
			"fakecc": {
				Language:       "FakeC",
				Label:          "fake compiler",
				SourceFilename: "main.src",
				CompileCommand: []string{"sh", "-c", fakecc},
				RunCommand:     []string{"sh", "prog.sh"},
			},
		},
	}
	return &testEnv{root: root, cfg: cfg, countFile: countFile}
}

func (e *testEnv) executor(t *testing.T) *Executor {
	t.Helper()
	langs, err := languages.New(e.cfg.Compilers)
	require.NoError(t, err)
	ex, err := NewExecutor(e.cfg, langs, logging.NewNopLogger())
	require.NoError(t, err)
	return ex
}

func (e *testEnv) compiles(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(e.countFile)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "compiled\n")
}

package api

import "github.com/sudankdk/runbox/internal/model"

const (
	StatusSuccess       = "success"
	StatusCompileError  = "compileError"
	StatusTimeLimit     = "timeLimitExceeded"
	StatusInternalError = "internalError"
)

// RunResult is the wire shape of a run. Fields that do not apply to a
// status are left out entirely.
type RunResult struct {
	Status   string   `json:"status"`
	Stdout   *string  `json:"stdout,omitempty"`
	Stderr   *string  `json:"stderr,omitempty"`
	ExitCode *int     `json:"exit_code,omitempty"`
	Time     *float64 `json:"time,omitempty"`
	Memory   *float64 `json:"memory,omitempty"`
}

func successResult(out *model.Outcome) RunResult {
	return RunResult{
		Status:   StatusSuccess,
		Stdout:   &out.Stdout,
		Stderr:   &out.Stderr,
		ExitCode: &out.ExitCode,
		Time:     &out.TimeMs,
		Memory:   &out.Memory,
	}
}

// failureResult maps an engine error to its wire status. Only compiler
// diagnostics are passed through verbatim.
func failureResult(err error) RunResult {
	msg := model.PublicMessage(err)
	status := StatusInternalError
	switch model.KindOf(err) {
	case model.KindCompileFailure:
		status = StatusCompileError
	case model.KindTimeout:
		status = StatusTimeLimit
	}
	return RunResult{Status: status, Stderr: &msg}
}

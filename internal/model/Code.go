package model

import "context"

// Code is one execution request. Nothing about it outlives the run.
type Code struct {
	Compiler   string
	SourceCode string
	Stdin      string
}

// Outcome is what a finished run reports. A non-zero ExitCode is a normal
// program result, not an error.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimeMs   float64
	Memory   float64
}

// CompilerInfo is the public description of a registered compiler.
type CompilerInfo struct {
	Language     string `json:"language"`
	CompilerName string `json:"compilerName"`
	Label        string `json:"label"`
}

// CodeRunner is what the API needs from the engine.
type CodeRunner interface {
	Compilers() []CompilerInfo
	Run(ctx context.Context, code Code) (*Outcome, error)
}

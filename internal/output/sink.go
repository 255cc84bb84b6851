// Package output owns everything the engine hands to a human or a file:
// console progress, the summary view, and JSON/YAML report files. The engine
// itself exposes no formatting concerns.
package output

import (
	"fmt"
	"io"
	"os"
)

// Sink receives human-facing progress and status messages during a run.
// The engine writes through this interface only; logging is separate.
type Sink interface {
	// Progress reports a phase transition or long-running step.
	Progress(message string)

	// Info prints an informational line.
	Info(message string)

	// Success prints a completion line.
	Success(message string)

	// Warn prints a non-fatal condition (partial data, empty result).
	Warn(message string)

	// Error prints a failure line. Shown even in quiet mode.
	Error(message string)

	// Debug prints diagnostic detail, shown only in debug mode.
	Debug(message string)
}

// ConsoleSink writes messages to the given writers with verbosity control.
// Quiet suppresses everything except errors; Debug enables progress and
// diagnostic lines.
type ConsoleSink struct {
	Out     io.Writer
	Err     io.Writer
	Quiet   bool
	Verbose bool
}

// NewConsoleSink returns a ConsoleSink on stdout/stderr.
func NewConsoleSink(quiet, debug bool) *ConsoleSink {
	return &ConsoleSink{Out: os.Stdout, Err: os.Stderr, Quiet: quiet, Verbose: debug}
}

// Progress implements Sink. Shown only in debug mode, like the rest of the
// step-by-step chatter.
func (s *ConsoleSink) Progress(message string) {
	if s.Verbose && !s.Quiet {
		fmt.Fprintf(s.Out, "... %s\n", message)
	}
}

// Info implements Sink.
func (s *ConsoleSink) Info(message string) {
	if !s.Quiet {
		fmt.Fprintln(s.Out, message)
	}
}

// Success implements Sink.
func (s *ConsoleSink) Success(message string) {
	if !s.Quiet {
		fmt.Fprintf(s.Out, "OK  %s\n", message)
	}
}

// Warn implements Sink.
func (s *ConsoleSink) Warn(message string) {
	if !s.Quiet {
		fmt.Fprintf(s.Out, "WARN  %s\n", message)
	}
}

// Error implements Sink. Always shown, even in quiet mode.
func (s *ConsoleSink) Error(message string) {
	fmt.Fprintf(s.Err, "ERROR  %s\n", message)
}

// Debug implements Sink.
func (s *ConsoleSink) Debug(message string) {
	if s.Verbose && !s.Quiet {
		fmt.Fprintf(s.Out, "debug: %s\n", message)
	}
}

// NullSink discards every message. Used when no sink is configured.
type NullSink struct{}

func (NullSink) Progress(string) {}
func (NullSink) Info(string)     {}
func (NullSink) Success(string)  {}
func (NullSink) Warn(string)     {}
func (NullSink) Error(string)    {}
func (NullSink) Debug(string)    {}

package output

import (
	"strings"
	"testing"
)

func newTestSink(quiet, verbose bool) (*ConsoleSink, *strings.Builder, *strings.Builder) {
	var out, errOut strings.Builder
	return &ConsoleSink{Out: &out, Err: &errOut, Quiet: quiet, Verbose: verbose}, &out, &errOut
}

func TestConsoleSink_Default(t *testing.T) {
	sink, out, errOut := newTestSink(false, false)

	sink.Progress("step one")
	sink.Debug("internals")
	sink.Info("hello")
	sink.Success("done")
	sink.Warn("careful")
	sink.Error("boom")

	got := out.String()
	if strings.Contains(got, "step one") || strings.Contains(got, "internals") {
		t.Errorf("progress/debug shown without verbose:\n%s", got)
	}
	for _, want := range []string{"hello", "OK  done", "WARN  careful"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(errOut.String(), "ERROR  boom") {
		t.Errorf("stderr missing error line: %q", errOut.String())
	}
}

func TestConsoleSink_Verbose(t *testing.T) {
	sink, out, _ := newTestSink(false, true)

	sink.Progress("step one")
	sink.Debug("internals")

	got := out.String()
	if !strings.Contains(got, "... step one") {
		t.Errorf("stdout missing progress line:\n%s", got)
	}
	if !strings.Contains(got, "debug: internals") {
		t.Errorf("stdout missing debug line:\n%s", got)
	}
}

func TestConsoleSink_Quiet(t *testing.T) {
	sink, out, errOut := newTestSink(true, true)

	sink.Progress("step one")
	sink.Info("hello")
	sink.Success("done")
	sink.Warn("careful")
	sink.Debug("internals")
	sink.Error("boom")

	if out.String() != "" {
		t.Errorf("quiet mode wrote to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "ERROR  boom") {
		t.Errorf("errors must survive quiet mode: %q", errOut.String())
	}
}

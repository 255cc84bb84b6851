package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/cpk-labs/sso-access-auditor/internal/config"
)

// flagCmd builds a bare command carrying the audit flag set so precedence can
// be tested without running an audit.
func flagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit"}
	cmd.Flags().String("profile", "", "")
	cmd.Flags().String("region", "", "")
	cmd.Flags().String("output-format", "both", "")
	cmd.Flags().String("output-dir", "", "")
	cmd.Flags().Int("concurrency", 0, "")
	cmd.Flags().BoolP("quiet", "q", false, "")
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().Bool("no-timestamp", false, "")
	return cmd
}

func TestApplyAuditFlags_UnsetKeepsConfig(t *testing.T) {
	cmd := flagCmd()
	cfg := config.Default()
	cfg.AWS.Region = "eu-central-1"
	cfg.AWS.Profile = "from-file"

	applyAuditFlags(cmd, cfg, "", "", "both", "", 0, false, false, false)

	if cfg.AWS.Region != "eu-central-1" || cfg.AWS.Profile != "from-file" {
		t.Errorf("unset flags overwrote config: %+v", cfg.AWS)
	}
	if !reflect.DeepEqual(cfg.Output.Formats, []string{"json", "yaml"}) {
		t.Errorf("formats = %v; unset --output-format must not apply its default", cfg.Output.Formats)
	}
	if !cfg.Output.IncludeTimestamp {
		t.Error("IncludeTimestamp cleared without --no-timestamp")
	}
}

func TestApplyAuditFlags_SetFlagsWin(t *testing.T) {
	cmd := flagCmd()
	for flag, value := range map[string]string{
		"profile":       "prod",
		"region":        "us-west-2",
		"output-format": "yaml",
		"output-dir":    "/tmp/reports",
		"concurrency":   "8",
	} {
		if err := cmd.Flags().Set(flag, value); err != nil {
			t.Fatalf("set %s: %v", flag, err)
		}
	}

	cfg := config.Default()
	cfg.AWS.Region = "eu-central-1" // file value that must lose

	applyAuditFlags(cmd, cfg, "prod", "us-west-2", "yaml", "/tmp/reports", 8, true, true, true)

	if cfg.AWS.Profile != "prod" || cfg.AWS.Region != "us-west-2" {
		t.Errorf("aws = %+v", cfg.AWS)
	}
	if !reflect.DeepEqual(cfg.Output.Formats, []string{"yaml"}) {
		t.Errorf("formats = %v; want [yaml]", cfg.Output.Formats)
	}
	if cfg.Output.Directory != "/tmp/reports" {
		t.Errorf("directory = %q", cfg.Output.Directory)
	}
	if cfg.Behavior.Concurrency != 8 {
		t.Errorf("concurrency = %d; want 8", cfg.Behavior.Concurrency)
	}
	if !cfg.Behavior.Quiet || !cfg.Behavior.Debug {
		t.Errorf("behavior = %+v", cfg.Behavior)
	}
	if cfg.Output.IncludeTimestamp {
		t.Error("--no-timestamp did not clear IncludeTimestamp")
	}
}

func TestAuditCmd_RequiresAccountArg(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"audit"})
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})

	if err := root.Execute(); err == nil {
		t.Error("audit without an account-id argument must fail")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"audit": false, "doctor": false, "profiles": false, "version": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpk-labs/sso-access-auditor/internal/config"
	"github.com/cpk-labs/sso-access-auditor/internal/engine"
	"github.com/cpk-labs/sso-access-auditor/internal/output"
	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/common"
	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/directory"
	"github.com/cpk-labs/sso-access-auditor/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ssoaudit",
		Short: "Audit AWS Identity Center group access for an account",
	}
	root.AddCommand(newAuditCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newProfilesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newAuditCmd() *cobra.Command {
	var (
		configPath   string
		profile      string
		region       string
		outputFormat string
		outputDir    string
		concurrency  int
		quiet        bool
		debug        bool
		noTimestamp  bool
	)

	cmd := &cobra.Command{
		Use:   "audit <account-id>",
		Short: "Audit SSO groups and permission sets assigned to an AWS account",
		Long: "Enumerates the Identity Center groups, their members, and the permission sets\n" +
			"assigned to the given account, and writes a cross-referenced report.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID := args[0]

			cfg, err := (&config.FileLoader{Path: configPath}).Load()
			if err != nil {
				return err
			}
			applyAuditFlags(cmd, cfg, profile, region, outputFormat, outputDir, concurrency, quiet, debug, noTimestamp)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.Behavior.Debug)
			defer logger.Sync() //nolint:errcheck

			sink := output.NewConsoleSink(cfg.Behavior.Quiet, cfg.Behavior.Debug)

			ctx := cmd.Context()
			provider := common.NewDefaultAWSClientProvider()
			profileCfg, err := provider.LoadProfile(ctx, cfg.AWS.Profile)
			if err != nil {
				return err
			}
			gw := directory.NewDefaultDirectoryGateway(provider.ConfigForRegion(profileCfg, cfg.AWS.Region))

			eng := engine.NewDefaultEngine(gw, sink, logger)
			report, err := eng.RunAudit(ctx, engine.AuditOptions{
				AccountID:   accountID,
				Region:      cfg.AWS.Region,
				Concurrency: cfg.Behavior.Concurrency,
			})
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			writer := &output.Writer{
				Formats:          cfg.Output.Formats,
				Directory:        cfg.Output.Directory,
				IncludeTimestamp: cfg.Output.IncludeTimestamp,
			}
			paths, err := writer.Save(report, accountID)
			if err != nil {
				return err
			}

			if !cfg.Behavior.Quiet {
				output.PrintSummary(os.Stdout, report)
				fmt.Println()
			}
			sink.Success("Results saved to: " + strings.Join(paths, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/sso-access-auditor/config.yaml)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "Identity Center home region (default: us-east-1)")
	cmd.Flags().StringVar(&outputFormat, "output-format", "both", "Report file format: json, yaml, or both")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for report files (default: current directory)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Fan-out limit for per-permission-set and per-group fetches")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress console output; only write report files")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable progress output and debug logging")
	cmd.Flags().BoolVar(&noTimestamp, "no-timestamp", false, "Don't include a timestamp in report filenames")

	return cmd
}

// applyAuditFlags overlays explicitly set flags onto cfg. Unset flags keep
// the file/env value, so precedence is flags > env > file > defaults.
func applyAuditFlags(
	cmd *cobra.Command,
	cfg *config.Config,
	profile, region, outputFormat, outputDir string,
	concurrency int,
	quiet, debug, noTimestamp bool,
) {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.AWS.Profile = profile
	}
	if flags.Changed("region") {
		cfg.AWS.Region = region
	}
	if flags.Changed("output-format") {
		cfg.Output.Formats = []string{outputFormat}
	}
	if flags.Changed("output-dir") {
		cfg.Output.Directory = outputDir
	}
	if flags.Changed("concurrency") {
		cfg.Behavior.Concurrency = concurrency
	}
	if quiet {
		cfg.Behavior.Quiet = true
	}
	if debug {
		cfg.Behavior.Debug = true
	}
	if noTimestamp {
		cfg.Output.IncludeTimestamp = false
	}
}

// newLogger builds the application logger. Debug mode gets the human-readable
// development encoder at debug level; otherwise warnings and errors only.
func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

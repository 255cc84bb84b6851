package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/common"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "profiles",
		Short:        "List AWS profiles with usable credentials",
		Long:         "Discovers profiles in ~/.aws/credentials and ~/.aws/config and shows the\naccount and home region each one resolves to. Profiles without working\ncredentials are skipped.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles(cmd.Context(), common.NewDefaultAWSClientProvider(), cmd.OutOrStdout())
		},
	}
}

// runProfiles renders the discovered-profiles table to w.
func runProfiles(ctx context.Context, provider common.AWSClientProvider, w io.Writer) error {
	profiles, err := provider.LoadAllProfiles(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No usable AWS profiles found.")
		return nil
	}

	fmt.Fprintf(w, "%-24s  %-14s  %s\n", "PROFILE", "ACCOUNT", "REGION")
	for _, p := range profiles {
		fmt.Fprintf(w, "%-24s  %-14s  %s\n", p.ProfileName, p.AccountID, p.Region)
	}
	return nil
}

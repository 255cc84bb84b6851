package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/common"
	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/directory"
)

// DoctorResult is the structured output of ssoaudit doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	IdentityCenter struct {
		Reachable       bool   `json:"reachable"`
		InstanceArn     string `json:"instance_arn,omitempty"`
		IdentityStoreID string `json:"identity_store_id,omitempty"`
		Error           string `json:"error,omitempty"`
	} `json:"identity_center"`

	OverallHealthy bool `json:"overall_healthy"`
}

// gatewayFactory builds a DirectoryGateway from a region-scoped aws.Config.
// Tests swap it for a stub.
type gatewayFactory func(cfg aws.Config) directory.DirectoryGateway

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			region, _ := cmd.Flags().GetString("region")
			result, err := runDoctor(
				context.Background(),
				common.NewDefaultAWSClientProvider(),
				func(cfg aws.Config) directory.DirectoryGateway {
					return directory.NewDefaultDirectoryGateway(cfg)
				},
				cmd.OutOrStdout(),
				format,
				profile,
				region,
			)
			if err != nil {
				// Rendering failure — let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	cmd.Flags().String("region", "us-east-1", "Identity Center home region to probe")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy; runDoctor itself never returns an error for an
// unhealthy result so that no error text leaks to callers (such as main).
func runDoctor(ctx context.Context, awsProvider common.AWSClientProvider, newGateway gatewayFactory, w io.Writer, format, profile, region string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, awsProvider, newGateway, profile, region)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, awsProvider common.AWSClientProvider, newGateway gatewayFactory, profile, region string) DoctorResult {
	var result DoctorResult

	// AWS: credentials → STS account ID → region discovery.
	// An empty profile string selects the default credential chain.
	if profile != "" {
		result.AWS.Profile = profile
	}
	profileCfg, err := awsProvider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		_, err = awsProvider.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
		}

		// Identity Center: instance discovery in the requested home region.
		if region == "" {
			region = profileCfg.Region
		}
		gw := newGateway(awsProvider.ConfigForRegion(profileCfg, region))
		inst, instErr := gw.DescribeInstance(ctx)
		if instErr != nil {
			result.IdentityCenter.Error = instErr.Error()
		} else {
			result.IdentityCenter.Reachable = true
			result.IdentityCenter.InstanceArn = inst.InstanceArn
			result.IdentityCenter.IdentityStoreID = inst.IdentityStoreID
		}
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		result.IdentityCenter.Reachable

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nIdentity Center:")
	if !result.AWS.Credentials {
		doctorPrint(w, "Instance", "FAIL", "skipped")
	} else if result.IdentityCenter.Reachable {
		doctorPrint(w, "Instance", "OK", result.IdentityCenter.InstanceArn)
		doctorPrint(w, "Identity Store", "OK", result.IdentityCenter.IdentityStoreID)
	} else {
		doctorPrint(w, "Instance", "FAIL", result.IdentityCenter.Error)
	}

	fmt.Fprintln(w)
	if result.OverallHealthy {
		fmt.Fprintln(w, "Overall: HEALTHY")
	} else {
		fmt.Fprintln(w, "Overall: UNHEALTHY")
	}
}

// doctorPrint writes one aligned diagnostic row; detail is optional.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %-16s %-6s %s\n", label, status, detail)
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", label, status)
}

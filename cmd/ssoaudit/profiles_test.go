package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cpk-labs/sso-access-auditor/internal/providers/aws/common"
)

func TestRunProfiles(t *testing.T) {
	provider := &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			ProfileName: "prod",
			AccountID:   "123456789012",
			Region:      "us-east-1",
		},
	}

	var buf bytes.Buffer
	if err := runProfiles(context.Background(), provider, &buf); err != nil {
		t.Fatalf("runProfiles: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"PROFILE", "prod", "123456789012", "us-east-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestRunProfiles_NoneFound(t *testing.T) {
	var buf bytes.Buffer
	if err := runProfiles(context.Background(), &mockAWSProvider{}, &buf); err != nil {
		t.Fatalf("runProfiles: %v", err)
	}
	if !strings.Contains(buf.String(), "No usable AWS profiles found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRunProfiles_DiscoveryError(t *testing.T) {
	provider := &mockAWSProvider{profileErr: errors.New("home directory unavailable")}
	if err := runProfiles(context.Background(), provider, &bytes.Buffer{}); err == nil {
		t.Error("runProfiles must surface discovery errors")
	}
}

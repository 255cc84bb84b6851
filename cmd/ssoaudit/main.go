// Command ssoaudit audits AWS Identity Center (SSO) group access for one
// account: group memberships, permission-set policy bundles, and account
// assignments, joined into a single cross-referenced report.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

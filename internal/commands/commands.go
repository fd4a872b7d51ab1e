package commands

import (
	"fmt"
	"os"

	"casedeck/internal/casedev"
	"casedeck/internal/config"
)

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// profileFlag selects a non-default profile; set on the root command.
var profileFlag string

// SetProfileFlag wires the root --profile flag into the command helpers.
func SetProfileFlag(name string) {
	profileFlag = name
}

// newClient builds a Case.dev client from the active profile.
func newClient() (*casedev.Client, error) {
	p, err := config.ActiveProfile(profileFlag)
	if err != nil {
		return nil, err
	}
	return casedev.New(p.CaseDevBaseURL, p.CaseDevAPIKey), nil
}

// mustClient exits with a message when no credentials are configured.
func mustClient() *casedev.Client {
	client, err := newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'casedeck profile add' or set CASEDEV_API_KEY.")
		os.Exit(1)
	}
	return client
}

// fail prints an error and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

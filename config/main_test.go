package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run the config tests outside GO_ENV=test. Load reads
// .env and DATABASE_URL, and ConnectDatabase migrates whatever file that names.
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		fmt.Fprintf(os.Stderr,
			"config tests need GO_ENV=test so they never open the maintenance order database (GO_ENV=%q)\n"+
				"run them with: make test, or GO_ENV=test go test ./...\n",
			env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

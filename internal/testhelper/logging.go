package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv enables logging during tests when set to a non-empty value
const LogEnv = "CALDECO_TEST_LOG"

// init silences zerolog for test binaries unless LogEnv is set
func init() {
	if isTesting() && os.Getenv(LogEnv) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

func isTesting() bool {
	return testing.Testing() ||
		os.Getenv("GO_TEST") != "" ||
		(len(os.Args) > 1 && os.Args[1] == "test")
}

// Run executes the tests of a package with logging configured, for use from
// a package's TestMain.
func Run(m *testing.M) {
	if os.Getenv(LogEnv) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	os.Exit(m.Run())
}

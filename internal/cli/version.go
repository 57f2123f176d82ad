package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/Ergy12/caldeco/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for caldeco, including build details.`,
	Example: `
  caldeco version               # Show the version
  caldeco version --output json # Show build info as JSON`,
	Run: func(cmd *cobra.Command, args []string) {
		showVersion(cmd.OutOrStdout(), viper.GetString("output"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func showVersion(w io.Writer, format string) {
	info := currentVersion()

	switch format {
	case "json":
		style.PrintJSON(w, info)
	case "yaml":
		style.PrintYAML(w, info)
	default:
		fmt.Fprintln(w, info.Version)
	}
}

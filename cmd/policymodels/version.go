package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
)

// Set with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentBuild() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (b BuildInfo) Text(w io.Writer) error {
	_, err := fmt.Fprintf(w, "policymodels %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s\n",
		b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
	return err
}

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(versionFormat)
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), currentBuild())
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "output format (text, json, yaml)")
	skipSetup(versionCmd)
	rootCmd.AddCommand(versionCmd)
}

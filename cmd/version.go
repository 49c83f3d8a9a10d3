package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/BohdanBykov/gha-optimizer/pkg/version"
)

var versionShort bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long: `Display detailed version information including:
- Semantic version
- Git commit hash
- Build date
- Go version used for compilation
- Target platform

Supports multiple output formats for integration with CI/CD pipelines.`,
	Example: `  # Display version information
  gha-optimizer version

  # Display short version
  gha-optimizer version --short

  # Output as JSON
  gha-optimizer version --output json

  # Output as YAML
  gha-optimizer version --output yaml`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// The global --output flag selects text (table), json or yaml.
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false,
		"Display short version information")
}

func runVersion(cmd *cobra.Command, args []string) {
	versionInfo := version.Get()

	// Handle short version
	if versionShort {
		fmt.Println(versionInfo.Short())
		return
	}

	// Handle different output formats
	versionOutputFormat, _ := cmd.Flags().GetString("output")
	switch versionOutputFormat {
	case "json":
		output, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal version info to JSON", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(output))

	case "yaml":
		output, err := yaml.Marshal(versionInfo)
		if err != nil {
			logger.Error("Failed to marshal version info to YAML", "error", err)
			os.Exit(1)
		}
		fmt.Print(string(output))

	default:
		fmt.Println(versionInfo.String())

		// Add development build warning
		if version.IsDevBuild() {
			fmt.Println("\n⚠️  This is a development build. Use official releases for production.")
		}
	}
}

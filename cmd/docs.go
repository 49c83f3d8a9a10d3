package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BohdanBykov/gha-optimizer/internal"
	"github.com/BohdanBykov/gha-optimizer/pkg/docs"
	"github.com/BohdanBykov/gha-optimizer/pkg/version"
)

// docsCmd shows which optimization patterns document would be used
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show which optimization patterns documentation resolves",
	Long: `Resolve the optimization patterns documentation the same way a scan does and
report its source: the versioned remote document, the copy packaged in the
binary, or the local development copy (--local-docs).

Examples:
  gha-optimizer docs
  gha-optimizer docs --local-docs
  gha-optimizer docs --print`,
	RunE: runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().Bool("local-docs", false, "use the local optimization patterns document only")
	docsCmd.Flags().Bool("print", false, "print the text that would be placed in the prompt")
	docsCmd.Flags().Bool("list", false, "list documents packaged in the binary")
}

func runDocs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("list"); list {
		names, err := internal.ListPackagedDocs()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("local-docs") {
		cfg.Docs.ForceLocal, _ = cmd.Flags().GetBool("local-docs")
	}

	doc, err := newResolver(cfg).Resolve(ctx)
	if err != nil {
		return err
	}

	if printText, _ := cmd.Flags().GetBool("print"); printText {
		fmt.Fprintln(out, doc.PromptText(version.GetVersion()))
		return nil
	}

	declared := doc.DeclaredVersion
	if declared == "" {
		declared = "unknown"
	}
	fmt.Fprintf(out, "Source:    %s (%s)\n", doc.Provenance, doc.Provenance.Description())
	fmt.Fprintf(out, "URL:       %s\n", doc.URL)
	fmt.Fprintf(out, "Version:   %s (tool %s)\n", declared, version.GetVersion())
	fmt.Fprintf(out, "Size:      %d bytes\n", len(doc.Body))
	if doc.Provenance == docs.ProvenanceRemote {
		fmt.Fprintln(out, "The prompt will reference the remote document instead of inlining it.")
	}
	return nil
}

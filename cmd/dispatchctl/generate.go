package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"oficio/internal/core/id"
	"oficio/internal/domain/cases"
)

var (
	generateCase         string
	generateTemplateName string
	generateOutDir       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Issue the dispatch of a completed case",
	Long: `Issue a dispatch for a completed case that has none, for example when
generation failed at completion time. The case keeps the document; with
--out it is also written to disk.

Examples:
  dispatchctl generate --case <id>
  dispatchctl generate --case <id> --template-name reduzido --out ./oficios`,
	RunE: func(cmd *cobra.Command, args []string) error {
		caseID, err := id.Parse(generateCase)
		if err != nil {
			return fmt.Errorf("invalid --case: %w", err)
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.services.Cases.GenerateDispatch(ctx, cliActor, caseID, cases.DispatchOptions{
			TemplateName: generateTemplateName,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", c.DispatchNumber, c.DispatchFilename)
		if generateOutDir == "" {
			return nil
		}
		if err := os.MkdirAll(generateOutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		dest := filepath.Join(generateOutDir, c.DispatchFilename)
		if err := os.WriteFile(dest, c.DispatchFile, 0o644); err != nil {
			return fmt.Errorf("write dispatch: %w", err)
		}
		fmt.Fprintln(out, dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateCase, "case", "", "Case ID")
	generateCmd.Flags().StringVar(&generateTemplateName, "template-name", "", "Template to use instead of the unit default")
	generateCmd.Flags().StringVarP(&generateOutDir, "out", "o", "", "Directory to write the document to")
	_ = generateCmd.MarkFlagRequired("case")
}

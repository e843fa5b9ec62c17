package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"oficio/internal/core/id"
	"oficio/internal/domain"
	"oficio/internal/domain/templates"
)

var (
	templateUnit        string
	templateName        string
	templateDescription string
	templateFile        string
	templateDefault     bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage dispatch templates",
}

var templateImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store an ODT/OTT file as a dispatch template",
	Long: `Store a text document as a dispatch template of an extraction unit.

Placeholders are written as {{name}} inside the document, for example
{{dispatch_number_formatted}}, {{date_long}} or {{requester_unit}}.

Examples:
  dispatchctl template import --unit <id> --name padrao --file oficio.ott --default`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unitID, err := id.Parse(templateUnit)
		if err != nil {
			return fmt.Errorf("invalid --unit: %w", err)
		}
		content, err := os.ReadFile(templateFile)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		t := &templates.Template{
			ExtractionUnitID: unitID,
			Name:             templateName,
			Description:      templateDescription,
			Content:          content,
			ContentFilename:  filepath.Base(templateFile),
			IsActive:         true,
			IsDefault:        templateDefault,
		}
		if err := s.services.Templates.Save(ctx, cliActor, t); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the templates of an extraction unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		unitID, err := id.Parse(templateUnit)
		if err != nil {
			return fmt.Errorf("invalid --unit: %w", err)
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.services.Templates.List(ctx, unitID, domain.DefaultListFilter())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, t := range res.Items {
			marker := " "
			if t.IsDefault {
				marker = "*"
			}
			state := "active"
			if !t.IsActive {
				state = "inactive"
			}
			fmt.Fprintf(out, "%s %s  %-24s %s\n", marker, t.ID, t.Name, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateImportCmd, templateListCmd)

	templateImportCmd.Flags().StringVarP(&templateUnit, "unit", "u", "", "Extraction unit ID")
	templateImportCmd.Flags().StringVarP(&templateName, "name", "n", "", "Template name, unique per unit")
	templateImportCmd.Flags().StringVarP(&templateDescription, "description", "d", "", "Free text description")
	templateImportCmd.Flags().StringVarP(&templateFile, "file", "f", "", "ODT or OTT file")
	templateImportCmd.Flags().BoolVar(&templateDefault, "default", false, "Make this the unit's default template")
	_ = templateImportCmd.MarkFlagRequired("unit")
	_ = templateImportCmd.MarkFlagRequired("name")
	_ = templateImportCmd.MarkFlagRequired("file")

	templateListCmd.Flags().StringVarP(&templateUnit, "unit", "u", "", "Extraction unit ID")
	_ = templateListCmd.MarkFlagRequired("unit")
}

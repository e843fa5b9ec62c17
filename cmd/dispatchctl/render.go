package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"oficio/internal/odt"
)

var (
	renderTemplate string
	renderVars     []string
	renderOut      string
	renderList     bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fill a template file offline",
	Long: `Replace {{name}} placeholders in an ODT/OTT file without touching the
database or any counter. Useful to check a template before importing it.

Examples:
  dispatchctl render -t oficio.ott --var dispatch_number_formatted=001_2025 -o out.odt
  dispatchctl render -t oficio.ott --list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(renderTemplate)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}

		if renderList {
			return listPlaceholders(cmd, data)
		}

		vars := make(odt.Vars, len(renderVars))
		for _, kv := range renderVars {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return fmt.Errorf("invalid --var %q, want key=value", kv)
			}
			vars[strings.TrimSpace(key)] = value
		}

		out, err := odt.Render(data, vars)
		if err != nil {
			return err
		}
		dest := renderOut
		if dest == "" {
			dest = strings.TrimSuffix(renderTemplate, filepath.Ext(renderTemplate)) + ".filled.odt"
		}
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dest)
		return nil
	},
}

func listPlaceholders(cmd *cobra.Command, data []byte) error {
	doc, err := odt.Open(data)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, name := range []string{odt.PartContent, odt.PartStyles} {
		part, ok := doc.Part(name)
		if !ok {
			continue
		}
		for _, tok := range odt.Tokens(string(part)) {
			seen[tok] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "ODT or OTT file")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "Placeholder value as key=value (repeatable)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default: <template>.filled.odt)")
	renderCmd.Flags().BoolVar(&renderList, "list", false, "Print the placeholders found in the template")
	_ = renderCmd.MarkFlagRequired("template")
}

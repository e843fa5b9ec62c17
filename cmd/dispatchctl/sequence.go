package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"oficio/internal/core/id"
	"oficio/internal/domain/dispatch"
)

var (
	sequenceUnit  string
	sequenceYear  int
	sequenceValue int64
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Inspect and seed per-unit dispatch counters",
	Long: `Dispatch numbers restart at 001 every year for every extraction unit.

Examples:
  # Show the counter of the current year
  dispatchctl sequence show --unit <id>

  # Continue a legacy numbering: the next dispatch gets 143_2025
  dispatchctl sequence set --unit <id> --year 2025 --value 142`,
}

// sequenceArgs parses the shared flags. A zero year means the current
// year in the dispatch timezone.
func sequenceArgs(s *session) (id.ID, int, error) {
	unitID, err := id.Parse(sequenceUnit)
	if err != nil {
		return id.ID{}, 0, fmt.Errorf("invalid --unit: %w", err)
	}
	year := sequenceYear
	if year == 0 {
		loc, err := s.cfg.Dispatch.Location()
		if err != nil {
			return id.ID{}, 0, err
		}
		year = time.Now().In(loc).Year()
	}
	return unitID, year, nil
}

func printSequence(w io.Writer, seq *dispatch.Sequence) {
	fmt.Fprintf(w, "unit %s year %d: last %d, next %s\n", seq.UnitID, seq.Year, seq.LastNumber, seq.Next)
}

var sequenceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the last issued number",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		unitID, year, err := sequenceArgs(s)
		if err != nil {
			return err
		}
		seq, err := s.services.Sequences.Show(ctx, unitID, year)
		if err != nil {
			return err
		}
		printSequence(cmd.OutOrStdout(), seq)
		return nil
	},
}

var sequenceSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the last issued number",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		unitID, year, err := sequenceArgs(s)
		if err != nil {
			return err
		}
		seq, err := s.services.Sequences.Set(ctx, cliActor, unitID, year, sequenceValue)
		if err != nil {
			return err
		}
		printSequence(cmd.OutOrStdout(), seq)
		return nil
	},
}

var sequenceNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Take the next number without generating a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		unitID, year, err := sequenceArgs(s)
		if err != nil {
			return err
		}
		number, err := s.services.Sequences.Next(ctx, unitID, year)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), number)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
	sequenceCmd.AddCommand(sequenceShowCmd, sequenceSetCmd, sequenceNextCmd)

	for _, c := range []*cobra.Command{sequenceShowCmd, sequenceSetCmd, sequenceNextCmd} {
		c.Flags().StringVarP(&sequenceUnit, "unit", "u", "", "Extraction unit ID")
		c.Flags().IntVarP(&sequenceYear, "year", "y", 0, "Year (default: current year)")
		_ = c.MarkFlagRequired("unit")
	}
	sequenceSetCmd.Flags().Int64Var(&sequenceValue, "value", 0, "Last issued number; the next dispatch gets value+1")
	_ = sequenceSetCmd.MarkFlagRequired("value")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oficio/internal/core/id"
	"oficio/internal/domain/units"
)

var (
	unitAcronym  string
	unitName     string
	unitAgency   string
	unitLogoPath string
)

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Register agencies and units",
}

var unitAgencyCmd = &cobra.Command{
	Use:   "add-agency",
	Short: "Register the agency that signs dispatches",
	Long: `Register an agency. The optional logo (PNG, JPEG or GIF) is placed
on top of generated fallback letters. Prints the new agency ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := &units.Agency{Acronym: unitAcronym, Name: unitName}
		if unitLogoPath != "" {
			logo, err := os.ReadFile(unitLogoPath)
			if err != nil {
				return fmt.Errorf("read logo: %w", err)
			}
			a.MainLogo = logo
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.services.Units.CreateAgency(ctx, cliActor, a); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.ID)
		return nil
	},
}

var unitExtractionCmd = &cobra.Command{
	Use:   "add-extraction",
	Short: "Register an extraction unit",
	Long:  `Register an extraction unit, optionally under an agency. Prints the new unit ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := &units.ExtractionUnit{Acronym: unitAcronym, Name: unitName}
		if unitAgency != "" {
			agencyID, err := id.Parse(unitAgency)
			if err != nil {
				return fmt.Errorf("invalid --agency: %w", err)
			}
			u.AgencyID = &agencyID
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.services.Units.CreateExtractionUnit(ctx, cliActor, u); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.ID)
		return nil
	},
}

var unitRequesterCmd = &cobra.Command{
	Use:   "add-requester",
	Short: "Register a unit that requests extractions",
	RunE: func(cmd *cobra.Command, args []string) error {
		u := &units.AgencyUnit{Acronym: unitAcronym, Name: unitName}
		if unitAgency != "" {
			agencyID, err := id.Parse(unitAgency)
			if err != nil {
				return fmt.Errorf("invalid --agency: %w", err)
			}
			u.AgencyID = &agencyID
		}

		ctx, s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.services.Units.CreateAgencyUnit(ctx, cliActor, u); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitCmd)
	unitCmd.AddCommand(unitAgencyCmd, unitExtractionCmd, unitRequesterCmd)

	for _, c := range []*cobra.Command{unitAgencyCmd, unitExtractionCmd, unitRequesterCmd} {
		c.Flags().StringVarP(&unitName, "name", "n", "", "Unit name")
		c.Flags().StringVarP(&unitAcronym, "acronym", "a", "", "Short acronym used in dispatch labels")
		_ = c.MarkFlagRequired("name")
	}
	unitAgencyCmd.Flags().StringVar(&unitLogoPath, "logo", "", "Logo image file")
	unitExtractionCmd.Flags().StringVar(&unitAgency, "agency", "", "Owning agency ID")
	unitRequesterCmd.Flags().StringVar(&unitAgency, "agency", "", "Owning agency ID")
}

package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/domain/units"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	compound string
	dose     float64
	days     int
	interval int
	ke       float64
}

type simulationRow struct {
	Day       int      `json:"day"`
	Raw       float64  `json:"raw"`
	Display   float64  `json:"display"`
	Secondary *float64 `json:"secondary,omitempty"`
}

type simulationOutput struct {
	Compound      string          `json:"compound"`
	DecayConstant float64         `json:"decay_constant"`
	Unit          string          `json:"unit"`
	SecondaryUnit string          `json:"secondary_unit,omitempty"`
	Peak          simulationRow   `json:"peak"`
	Rows          []simulationRow `json:"rows"`
}

func newSimulateCommand(opts *rootOptions) *cobra.Command {
	so := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate levels for one dosing schedule",
		Long: `Simulate serum levels for a single or repeating dose.

Examples:
  pksim simulate --compound "Testosterone Cypionate" --dose 100 --days 56 --interval 7
  pksim simulate --compound "Estradiol Valerate" --dose 5 --days 30 --interval 5 --ke 0.25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runSimulate(so)
			if err != nil {
				return err
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return writeSimulationTable(cmd, out)
		},
	}

	cmd.Flags().StringVar(&so.compound, "compound", domain.DefaultCompoundName, "Compound name")
	cmd.Flags().Float64Var(&so.dose, "dose", domain.DefaultDoseMg, "Dose in mg")
	cmd.Flags().IntVar(&so.days, "days", domain.DefaultSimulationDays, "Days to simulate")
	cmd.Flags().IntVar(&so.interval, "interval", 0, "Days between injections; 0 for a single dose")
	cmd.Flags().Float64Var(&so.ke, "ke", 0, "Personal elimination constant (1/day) overriding the population value")
	return cmd
}

func runSimulate(so *simulateOptions) (*simulationOutput, error) {
	if so.ke < 0 {
		return nil, fmt.Errorf("--ke must be positive, got %g", so.ke)
	}
	compound, err := catalog.Lookup(so.compound)
	if err != nil {
		return nil, err
	}

	var interval *int
	if so.interval != 0 {
		interval = &so.interval
	}
	regimen, err := domain.NewRegimen(compound, so.dose, so.days, interval, so.ke > 0, domain.DefaultRegimenLimits())
	if err != nil {
		return nil, err
	}
	if so.ke > 0 {
		regimen.PersonalizedDecayConstant = &so.ke
	}

	series, ke := pk.SimulateRegimen(regimen)
	display := units.Convert(compound.Class, series.Values())

	out := &simulationOutput{
		Compound:      compound.Name,
		DecayConstant: ke,
		Unit:          display.Unit,
		SecondaryUnit: display.SecondaryUnit,
		Rows:          make([]simulationRow, len(series.Points)),
	}
	for i, p := range series.Points {
		row := simulationRow{Day: p.Day, Raw: p.Concentration, Display: display.Values[i]}
		if display.Secondary != nil {
			v := display.Secondary[i]
			row.Secondary = &v
		}
		out.Rows[i] = row
	}
	if peak := series.Peak(); len(out.Rows) > 0 {
		out.Peak = out.Rows[peak.Day]
	}
	return out, nil
}

func writeSimulationTable(cmd *cobra.Command, out *simulationOutput) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s  ke=%.4f/day\n\n", out.Compound, out.DecayConstant)

	if out.SecondaryUnit != "" {
		fmt.Fprintf(w, "DAY\tRAW\t%s\t%s\n", out.Unit, out.SecondaryUnit)
	} else {
		fmt.Fprintf(w, "DAY\tRAW\t%s\n", out.Unit)
	}
	for _, r := range out.Rows {
		if r.Secondary != nil {
			fmt.Fprintf(w, "%d\t%.5f\t%.1f\t%.1f\n", r.Day, r.Raw, r.Display, *r.Secondary)
		} else {
			fmt.Fprintf(w, "%d\t%.5f\t%.1f\n", r.Day, r.Raw, r.Display)
		}
	}
	fmt.Fprintf(w, "\npeak: day %d, %.1f %s\n", out.Peak.Day, out.Peak.Display, out.Unit)
	return w.Flush()
}

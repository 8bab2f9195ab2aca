package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/spf13/cobra"
)

type estimateOutput struct {
	Compound string `json:"compound"`
	pk.Estimate
	HalfLife                *float64 `json:"half_life_days"`
	PopulationDecayConstant float64  `json:"population_decay_constant"`
}

func newEstimateCommand(opts *rootOptions) *cobra.Command {
	var compoundName, recordsPath string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Fit a personal elimination rate to blood test records",
		Long: `Fit a personal elimination constant for one compound to blood test
records exported from the API (a JSON array of blood tests).

Example:
  pksim estimate --compound "Testosterone Cypionate" --records tests.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)

			compound, err := catalog.Lookup(compoundName)
			if err != nil {
				return err
			}
			records, err := readRecords(recordsPath)
			if err != nil {
				return err
			}
			log.Debug("loaded blood test records", "path", recordsPath, "count", len(records))

			obs := make([]pk.Observation, len(records))
			for i, r := range records {
				obs[i] = pk.ObservationFromBloodTest(r)
			}
			est := pk.NewDefaultEstimator().Estimate(compound, obs)
			if est.FallbackToClass {
				log.Info("no records matched the ester, using every record of the class",
					"compound", compound.Name, "records", est.RecordsConsidered)
			}

			out := estimateOutput{
				Compound:                compound.Name,
				Estimate:                est,
				HalfLife:                est.HalfLifeDays(),
				PopulationDecayConstant: compound.PopulationDecayConstant(),
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			writeEstimate(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&compoundName, "compound", "", "Compound name (required)")
	cmd.Flags().StringVar(&recordsPath, "records", "", "Path to a JSON array of blood tests (required)")
	_ = cmd.MarkFlagRequired("compound")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

func readRecords(path string) ([]*domain.BloodTest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	var records []*domain.BloodTest
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}

func writeEstimate(cmd *cobra.Command, out estimateOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "compound:    %s\n", out.Compound)
	fmt.Fprintf(w, "records:     %d considered, %d used\n", out.RecordsConsidered, out.RecordsUsed)
	if out.FallbackToClass {
		fmt.Fprintln(w, "match:       no records for this ester, fitted every record of the class")
	}
	if out.DecayConstant == nil {
		fmt.Fprintln(w, "estimate:    none (no usable records)")
		fmt.Fprintf(w, "population:  ke=%.4f/day\n", out.PopulationDecayConstant)
		return
	}
	fmt.Fprintf(w, "estimate:    ke=%.4f/day, half-life %.2f days\n", *out.DecayConstant, *out.HalfLife)
	fmt.Fprintf(w, "population:  ke=%.4f/day\n", out.PopulationDecayConstant)
}

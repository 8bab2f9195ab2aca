package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/spf13/cobra"
)

func newCompoundsCommand(opts *rootOptions) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "compounds",
		Short: "List the modeled compounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			compounds := catalog.All()
			if class != "" {
				c, err := domain.ParseCompoundClass(class)
				if err != nil {
					return err
				}
				compounds = catalog.ByClass(c)
			}

			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(compounds)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCLASS\tHALF-LIFE (d)\tKA (1/d)\tKE (1/d)\tVD (L)\tF")
			fmt.Fprintln(w, "----\t-----\t-------------\t--------\t--------\t------\t-")
			for _, c := range compounds {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.3f\t%.4f\t%.0f\t%.2f\n",
					c.Name, c.Class, c.HalfLifeDays, c.AbsorptionRate,
					c.PopulationDecayConstant(), c.VolumeOfDistribution, c.Bioavailability)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Only list one hormone family (testosterone, estradiol)")
	return cmd
}

package api

import (
	"net/http"

	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/units"
)

// ListCompounds handles GET /api/compounds. An optional ?class= narrows the
// list to one hormone family.
func ListCompounds(w http.ResponseWriter, r *http.Request) {
	compounds := catalog.All()
	if raw := r.URL.Query().Get("class"); raw != "" {
		class, err := domain.ParseCompoundClass(raw)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		compounds = catalog.ByClass(class)
	}

	out := make([]CompoundResponse, 0, len(compounds))
	for _, c := range compounds {
		rule, _ := units.For(c.Class)
		out = append(out, CompoundResponse{
			Compound:                c,
			PopulationDecayConstant: c.PopulationDecayConstant(),
			Units:                   rule,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

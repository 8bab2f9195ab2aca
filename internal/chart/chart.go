// Package chart combines several simulated regimens into one display bundle
// with shared scales, tick marks, colors and a per-day cross-regimen lookup.
package chart

import (
	"context"
	"math"

	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/domain/units"
	"golang.org/x/sync/errgroup"
)

// Palette is the fixed regimen color cycle.
var Palette = []string{
	"#60a5fa",
	"#f472b6",
	"#34d399",
	"#fbbf24",
	"#a78bfa",
	"#f87171",
	"#38bdf8",
	"#facc15",
}

// Tick counts along each axis.
const (
	XTickCount = 11
	YTickCount = 6
)

// ColorFor returns the palette entry for the regimen at index i.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Input is one regimen to chart.
type Input struct {
	Regimen *domain.Regimen
}

// Line is one regimen's rendered series.
type Line struct {
	RegimenID     string        `json:"regimen_id"`
	CompoundName  string        `json:"compound_name"`
	Class         string        `json:"class"`
	Color         string        `json:"color"`
	DecayConstant float64       `json:"decay_constant"`
	Personalized  bool          `json:"personalized"`
	Raw           []pk.Point    `json:"raw"`
	Display       units.Display `json:"display"`
}

// Chart is the aggregate bundle handed to renderers. Renderers must treat it
// as read-only.
type Chart struct {
	Lines  []Line    `json:"lines"`
	MaxDay int       `json:"max_day"`
	MaxY   float64   `json:"max_y"`
	XTicks []int     `json:"x_ticks"`
	YTicks []float64 `json:"y_ticks"`
}

// LevelAt is one regimen's display value on a given day.
type LevelAt struct {
	RegimenID    string  `json:"regimen_id"`
	CompoundName string  `json:"compound_name"`
	Color        string  `json:"color"`
	Unit         string  `json:"unit"`
	Value        float64 `json:"value"`

	SecondaryUnit  string   `json:"secondary_unit,omitempty"`
	SecondaryValue *float64 `json:"secondary_value,omitempty"`
}

// Lookup returns every regimen's display value at day. Regimens whose
// simulation ends before day are omitted.
func (c *Chart) Lookup(day int) []LevelAt {
	levels := make([]LevelAt, 0, len(c.Lines))
	for _, l := range c.Lines {
		if day < 0 || day >= len(l.Display.Values) {
			continue
		}
		level := LevelAt{
			RegimenID:    l.RegimenID,
			CompoundName: l.CompoundName,
			Color:        l.Color,
			Unit:         l.Display.Unit,
			Value:        l.Display.Values[day],
		}
		if day < len(l.Display.Secondary) {
			v := l.Display.Secondary[day]
			level.SecondaryUnit = l.Display.SecondaryUnit
			level.SecondaryValue = &v
		}
		levels = append(levels, level)
	}
	return levels
}

// Aggregator builds charts. The zero value is ready to use.
type Aggregator struct {
	// Parallelism caps concurrent simulations. Zero means no limit.
	Parallelism int
}

// NewAggregator creates an Aggregator that simulates at most parallelism
// regimens at once.
func NewAggregator(parallelism int) *Aggregator {
	return &Aggregator{Parallelism: parallelism}
}

// Build simulates every input and combines the results. Each regimen is
// simulated on its own goroutine and writes only its own slot, so input order
// is preserved in Lines. An empty input yields an empty chart.
func (a *Aggregator) Build(ctx context.Context, inputs []Input) (*Chart, error) {
	lines := make([]Line, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if a != nil && a.Parallelism > 0 {
		g.SetLimit(a.Parallelism)
	}

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines[i] = buildLine(i, in.Regimen)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(lines), nil
}

func buildLine(i int, r *domain.Regimen) Line {
	series, ke := pk.SimulateRegimen(r)
	return Line{
		RegimenID:     r.ID.String(),
		CompoundName:  r.Compound.Name,
		Class:         string(r.Compound.Class),
		Color:         ColorFor(i),
		DecayConstant: ke,
		Personalized:  r.UsePersonalizedRate && r.PersonalizedDecayConstant != nil && ke == *r.PersonalizedDecayConstant,
		Raw:           series.Points,
		Display:       units.Convert(r.Compound.Class, series.Values()),
	}
}

func assemble(lines []Line) *Chart {
	c := &Chart{Lines: lines}
	if len(lines) == 0 {
		c.Lines = []Line{}
		c.XTicks = []int{}
		c.YTicks = []float64{}
		return c
	}

	for _, l := range lines {
		if d := len(l.Display.Values) - 1; d > c.MaxDay {
			c.MaxDay = d
		}
		for _, v := range l.Display.Values {
			if v > c.MaxY {
				c.MaxY = v
			}
		}
	}

	c.XTicks = XTicks(c.MaxDay)
	c.YTicks = YTicks(c.MaxY)
	return c
}

// XTicks returns XTickCount day marks evenly spread over [0, maxDay].
func XTicks(maxDay int) []int {
	ticks := make([]int, XTickCount)
	for i := range ticks {
		ticks[i] = int(math.Round(float64(maxDay) * float64(i) / float64(XTickCount-1)))
	}
	return ticks
}

// YTicks returns YTickCount level marks from maxY down to 0.
func YTicks(maxY float64) []float64 {
	ticks := make([]float64, YTickCount)
	for i := range ticks {
		ticks[i] = maxY * (1 - float64(i)/float64(YTickCount-1))
	}
	return ticks
}

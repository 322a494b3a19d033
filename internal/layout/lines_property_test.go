package layout

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type rowSpec struct {
	Rows    int
	PerRow  int
	Jitters []int
	Seed    int64
}

func genRows() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 8),
		gen.IntRange(1, 6),
		gen.SliceOfN(48, gen.IntRange(-2, 2)),
		gen.Int64(),
	).Map(func(vals []interface{}) rowSpec {
		return rowSpec{
			Rows:    vals[0].(int),
			PerRow:  vals[1].(int),
			Jitters: vals[2].([]int),
			Seed:    vals[3].(int64),
		}
	})
}

// buildPage lays tokens out in rows 40px apart with 10px high boxes,
// vertically jittered by at most 2px inside a row.
func buildPage(spec rowSpec) []Token {
	var out []Token
	k := 0
	for r := range spec.Rows {
		for c := range spec.PerRow {
			top := r*40 + spec.Jitters[k%len(spec.Jitters)]
			k++
			out = append(out, Token{
				Text: fmt.Sprintf("r%dc%d", r, c),
				BBox: &geometry.Rect{Left: c * 50, Top: top + 100, Right: c*50 + 40, Bottom: top + 110},
			})
		}
	}
	return out
}

func TestAssembleLines_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tokens within tolerance share a line and rows never merge", prop.ForAll(
		func(spec rowSpec) bool {
			lines := AssembleLines(buildPage(spec))
			if len(lines) != spec.Rows {
				return false
			}
			for _, l := range lines {
				if len(l.Tokens) != spec.PerRow {
					return false
				}
			}
			return true
		},
		genRows(),
	))

	properties.Property("line count is invariant to input order", prop.ForAll(
		func(spec rowSpec) bool {
			page := buildPage(spec)
			shuffled := append([]Token(nil), page...)
			rnd := rand.New(rand.NewSource(spec.Seed)) //nolint:gosec // deterministic shuffle for tests
			rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			a, b := AssembleLines(page), AssembleLines(shuffled)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].Text != b[i].Text {
					return false
				}
			}
			return true
		},
		genRows(),
	))

	properties.TestingRun(t)
}

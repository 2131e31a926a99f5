// Package selection orders the verdicts of one scan run into the final
// result table. Evaluation workers return verdicts in completion order,
// so ranking is also where determinism is restored: two runs over the
// same data always produce the same table.
package selection

import (
	"sort"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/strategy"
)

// Rank orders verdicts for output. Scored profiles rank by score
// descending with ties broken by code ascending, then keep the top
// TopN (zero keeps all). Unscored profiles simply list by code.
func Rank(verdicts []contracts.Verdict, p *strategy.Profile) []contracts.Verdict {
	ranked := make([]contracts.Verdict, len(verdicts))
	copy(ranked, verdicts)

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Code < ranked[j].Code
	})

	if p.Kind == strategy.KindSupportRetest {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})
		if p.TopN > 0 && len(ranked) > p.TopN {
			ranked = ranked[:p.TopN]
		}
	}
	return ranked
}

package nixstore

import (
	"github.com/neurokit/nixstore/container"
	"github.com/neurokit/nixstore/model"
)

var leafKinds = []model.Kind{
	model.KindTimeSeries,
	model.KindIrregularTimeSeries,
	model.KindSpikeTrain,
	model.KindEventSet,
	model.KindIntervalSet,
}

// sweep removes every data array in the block that is no longer reachable:
// not referenced by any tag and not linked to any source. The array's
// metadata section is pruned with it. It returns the number of arrays
// removed.
func sweep(blk *container.Block) int {
	referenced := make(map[string]struct{})
	for _, tag := range blk.Tags().Items() {
		for _, da := range tag.References() {
			referenced[da.Name] = struct{}{}
		}
	}

	removed := 0
	for _, da := range blk.DataArrays().Items() {
		if _, ok := referenced[da.Name]; ok {
			continue
		}
		if len(da.Sources()) > 0 {
			continue
		}
		blk.DataArrays().Delete(da.Name)
		for _, kind := range leafKinds {
			if da.Type == kind.String() {
				pruneKindSection(blk, kind, da.Name)
				break
			}
		}
		removed++
	}
	return removed
}

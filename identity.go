package nixstore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/neurokit/nixstore/model"
)

// Identity resolution: structural kinds are addressed by their assigned name
// (the caller must keep sibling names unique; collisions silently overwrite).
// Leaf kinds are addressed by a content hash of their payload, which makes
// re-writes of identical data idempotent and deduplicates payload-equal
// leaves across parents.
//
// The hash is SHA-256 over a canonical encoding (kind tag, then per row the
// length and the little-endian float64 bits), truncated to 160 bits. Series
// and spike-train kinds hash the sample payload; event and interval kinds
// hash the time axis.

func contentHash(kind model.Kind, rows ...[]float64) string {
	h := sha256.New()
	h.Write([]byte(kind.String()))
	var buf [8]byte
	for _, row := range rows {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(row)))
		h.Write(buf[:])
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:20])
}

func timeSeriesIdentity(ts *model.TimeSeries) string {
	return contentHash(model.KindTimeSeries, ts.Samples)
}

func irregularTimeSeriesIdentity(its *model.IrregularTimeSeries) string {
	return contentHash(model.KindIrregularTimeSeries, its.Samples)
}

func spikeTrainIdentity(st *model.SpikeTrain) string {
	return contentHash(model.KindSpikeTrain, st.Times)
}

func eventSetIdentity(es *model.EventSet) string {
	return contentHash(model.KindEventSet, es.Times)
}

func intervalSetIdentity(is *model.IntervalSet) string {
	return contentHash(model.KindIntervalSet, is.Times)
}

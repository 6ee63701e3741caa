package model

// Kind identifies an object kind of the graph.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindRecording is the top-level structural kind.
	KindRecording
	// KindSegment is a time-aligned structural grouping within a recording.
	KindSegment
	// KindChannelGroup groups recording channels and derived signals.
	KindChannelGroup
	// KindUnit is a spike-sorted source nested under a channel group.
	KindUnit
	// KindTimeSeries is a regularly sampled signal leaf.
	KindTimeSeries
	// KindIrregularTimeSeries is a signal leaf with explicit sample times.
	KindIrregularTimeSeries
	// KindSpikeTrain is a spike-time leaf.
	KindSpikeTrain
	// KindEventSet is a labeled event-time leaf.
	KindEventSet
	// KindIntervalSet is a labeled interval leaf (times plus durations).
	KindIntervalSet
)

// String returns the kind's type tag, used to tag container nodes.
func (k Kind) String() string {
	switch k {
	case KindRecording:
		return "recording"
	case KindSegment:
		return "segment"
	case KindChannelGroup:
		return "channelgroup"
	case KindUnit:
		return "unit"
	case KindTimeSeries:
		return "timeseries"
	case KindIrregularTimeSeries:
		return "irregulartimeseries"
	case KindSpikeTrain:
		return "spiketrain"
	case KindEventSet:
		return "eventset"
	case KindIntervalSet:
		return "intervalset"
	default:
		return "invalid"
	}
}

// Group returns the metadata section group name for the kind.
func (k Kind) Group() string {
	switch k {
	case KindRecording:
		return "recordings"
	case KindSegment:
		return "segments"
	case KindChannelGroup:
		return "channelgroups"
	case KindUnit:
		return "units"
	case KindTimeSeries:
		return "timeseries"
	case KindIrregularTimeSeries:
		return "irregulartimeseries"
	case KindSpikeTrain:
		return "spiketrains"
	case KindEventSet:
		return "eventsets"
	case KindIntervalSet:
		return "intervalsets"
	default:
		return "invalid"
	}
}

// Leaf reports whether the kind carries a numeric payload (as opposed to a
// structural container kind).
func (k Kind) Leaf() bool {
	switch k {
	case KindTimeSeries, KindIrregularTimeSeries, KindSpikeTrain, KindEventSet, KindIntervalSet:
		return true
	default:
		return false
	}
}

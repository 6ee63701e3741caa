package model

import "time"

// Annotations is the free-form annotation map carried by every object.
// Supported value types are string, int64, float64, bool, time.Time,
// Quantity and flat slices thereof; anything else fails encoding.
type Annotations map[string]any

// Recording is the top-level container of a dataset (one experimental
// session). Its identity is its name.
type Recording struct {
	Name         string
	Description  string
	FileOrigin   string
	FileDatetime time.Time
	RecDatetime  time.Time
	Index        int64

	Annotations Annotations

	Segments      *List[*Segment]
	ChannelGroups *List[*ChannelGroup]
}

// NewRecording creates an empty recording with the given name.
func NewRecording(name string) *Recording {
	return &Recording{
		Name:          name,
		Annotations:   Annotations{},
		Segments:      NewList[*Segment](),
		ChannelGroups: NewList[*ChannelGroup](),
	}
}

// Segment is a time-aligned grouping of data leaves within a recording (for
// example, one trial). A segment references its leaves; it does not own their
// container representation exclusively.
type Segment struct {
	Name         string
	Description  string
	FileOrigin   string
	FileDatetime time.Time
	RecDatetime  time.Time
	Index        int64

	Annotations Annotations

	TimeSeries          *List[*TimeSeries]
	IrregularTimeSeries *List[*IrregularTimeSeries]
	SpikeTrains         *List[*SpikeTrain]
	EventSets           *List[*EventSet]
	IntervalSets        *List[*IntervalSet]
}

// NewSegment creates an empty segment with the given name.
func NewSegment(name string) *Segment {
	return &Segment{
		Name:                name,
		Annotations:         Annotations{},
		TimeSeries:          NewList[*TimeSeries](),
		IrregularTimeSeries: NewList[*IrregularTimeSeries](),
		SpikeTrains:         NewList[*SpikeTrain](),
		EventSets:           NewList[*EventSet](),
		IntervalSets:        NewList[*IntervalSet](),
	}
}

// ChannelGroup groups recording channels and the units and signals derived
// from them. Its leaves are linked via source links.
type ChannelGroup struct {
	Name        string
	Description string
	FileOrigin  string

	ChannelIndexes []int64
	ChannelNames   []string

	Annotations Annotations

	TimeSeries          *List[*TimeSeries]
	IrregularTimeSeries *List[*IrregularTimeSeries]
	Units               *List[*Unit]
}

// NewChannelGroup creates an empty channel group with the given name.
func NewChannelGroup(name string) *ChannelGroup {
	return &ChannelGroup{
		Name:                name,
		Annotations:         Annotations{},
		TimeSeries:          NewList[*TimeSeries](),
		IrregularTimeSeries: NewList[*IrregularTimeSeries](),
		Units:               NewList[*Unit](),
	}
}

// Unit is a spike-sorted source nested under a channel group.
type Unit struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	SpikeTrains *List[*SpikeTrain]
}

// NewUnit creates an empty unit with the given name.
func NewUnit(name string) *Unit {
	return &Unit{
		Name:        name,
		Annotations: Annotations{},
		SpikeTrains: NewList[*SpikeTrain](),
	}
}

// TimeSeries is a regularly sampled signal. Its container identity derives
// from the sample payload, never from Name.
type TimeSeries struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	Samples      []float64
	Unit         string
	SamplingRate Quantity
	TStart       Quantity
}

// IrregularTimeSeries is a signal with explicit per-sample times.
type IrregularTimeSeries struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	Samples  []float64
	Unit     string
	Times    []float64
	TimeUnit string
}

// SpikeTrain is a series of spike times. LeftSweep and SamplingRate are
// optional and persisted only when set.
type SpikeTrain struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	Times        []float64
	Unit         string
	TStart       Quantity
	TStop        Quantity
	LeftSweep    *Quantity
	SamplingRate *Quantity
}

// EventSet is a set of labeled event times.
type EventSet struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	Times  []float64
	Unit   string
	Labels []string
}

// IntervalSet is a set of labeled intervals: times with parallel durations.
type IntervalSet struct {
	Name        string
	Description string
	FileOrigin  string

	Annotations Annotations

	Times     []float64
	Durations []float64
	Unit      string
	Labels    []string
}

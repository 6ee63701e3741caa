package nixstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurokit/nixstore/blobstore"
	"github.com/neurokit/nixstore/container"
	"github.com/neurokit/nixstore/model"
)

func newTestStore(t *testing.T, blobs blobstore.Store, optFns ...func(*Options)) *Store {
	t.Helper()

	fns := append([]func(*Options){func(o *Options) { o.Blobs = blobs }}, optFns...)
	s, err := New("test.nixs", fns...)
	require.NoError(t, err)
	return s
}

func newTimeSeries(name string, samples ...float64) *model.TimeSeries {
	return &model.TimeSeries{
		Name:         name,
		Annotations:  model.Annotations{},
		Samples:      samples,
		Unit:         "mV",
		SamplingRate: model.Q(1000, "Hz"),
		TStart:       model.Q(0, "s"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	blobs := blobstore.NewMemory()

	rec := model.NewRecording("foo")
	rec.Description = "test session"
	rec.FileOrigin = "rig-1"
	rec.FileDatetime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.Index = 3
	rec.Annotations["experimenter"] = "jd"

	seg := model.NewSegment("trial-1")
	seg.Index = 1
	require.NoError(t, seg.TimeSeries.Append(newTimeSeries("lfp", 1.5, 2.5, 3.5)))
	require.NoError(t, rec.Segments.Append(seg))

	s := newTestStore(t, blobs)
	require.NoError(t, s.WriteRecording(rec, true))
	require.NoError(t, s.Close())

	// Reopen against the same backing store.
	s2 := newTestStore(t, blobs)

	got, err := s2.ReadRecording("foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", got.Name)
	assert.Equal(t, "test session", got.Description)
	assert.Equal(t, "rig-1", got.FileOrigin)
	assert.Equal(t, rec.FileDatetime, got.FileDatetime)
	assert.Equal(t, int64(3), got.Index)
	assert.Equal(t, "jd", got.Annotations["experimenter"])

	assert.False(t, got.Segments.Loaded())
	segs, err := got.Segments.Slice()
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "trial-1", segs[0].Name)
	assert.Equal(t, int64(1), segs[0].Index)

	series, err := segs[0].TimeSeries.Slice()
	require.NoError(t, err)
	require.Len(t, series, 1)
	ts := series[0]
	assert.Equal(t, "lfp", ts.Name)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, ts.Samples)
	assert.Equal(t, "mV", ts.Unit)
	assert.Equal(t, model.Q(1000, "Hz"), ts.SamplingRate)
	assert.Equal(t, model.Q(0, "s"), ts.TStart)
}

func TestStoreReadAllRecordings(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	require.NoError(t, s.WriteRecording(model.NewRecording("a"), true))
	require.NoError(t, s.WriteRecording(model.NewRecording("b"), true))

	recs, err := s.ReadAllRecordings()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Name)
	assert.Equal(t, "b", recs[1].Name)
}

func TestStoreReadMissingRecording(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())
	require.NoError(t, s.WriteRecording(model.NewRecording("exists"), false))

	_, err := s.ReadRecording("missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, model.KindRecording, nf.Kind)
	assert.Equal(t, "missing", nf.Name)
}

func TestStoreReadOnly(t *testing.T) {
	blobs := blobstore.NewMemory()

	s := newTestStore(t, blobs)
	require.NoError(t, s.WriteRecording(model.NewRecording("foo"), false))

	ro := newTestStore(t, blobs, func(o *Options) { o.ReadOnly = true })

	t.Run("write fails", func(t *testing.T) {
		err := ro.WriteRecording(model.NewRecording("bar"), false)
		require.ErrorIs(t, err, ErrReadOnly)
	})

	t.Run("read works", func(t *testing.T) {
		rec, err := ro.ReadRecording("foo")
		require.NoError(t, err)
		assert.Equal(t, "foo", rec.Name)
	})

	t.Run("missing file fails", func(t *testing.T) {
		empty := newTestStore(t, blobstore.NewMemory(), func(o *Options) { o.ReadOnly = true })
		_, err := empty.ReadRecording("foo")
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestWriteIdempotent(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	rec := model.NewRecording("foo")
	seg := model.NewSegment("trial-1")
	require.NoError(t, seg.TimeSeries.Append(newTimeSeries("lfp", 1, 2, 3)))
	require.NoError(t, rec.Segments.Append(seg))

	require.NoError(t, s.WriteRecording(rec, true))
	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	defer release()

	blk, ok := f.Block("foo")
	require.True(t, ok)
	assert.Equal(t, 1, blk.Tags().Len())
	assert.Equal(t, 1, blk.DataArrays().Len())
}

func TestPayloadDeduplication(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	// Two leaves with identical samples collapse onto one container node.
	rec := model.NewRecording("foo")
	seg1 := model.NewSegment("trial-1")
	seg2 := model.NewSegment("trial-2")
	require.NoError(t, seg1.TimeSeries.Append(newTimeSeries("a", 1, 2, 3)))
	require.NoError(t, seg2.TimeSeries.Append(newTimeSeries("b", 1, 2, 3)))
	require.NoError(t, rec.Segments.Append(seg1, seg2))

	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	defer release()

	blk, ok := f.Block("foo")
	require.True(t, ok)
	assert.Equal(t, 1, blk.DataArrays().Len())

	for _, tag := range blk.Tags().Items() {
		assert.Len(t, tag.References(), 1)
	}
}

func TestReconcileChildSet(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	a := newTimeSeries("a", 1)
	b := newTimeSeries("b", 2)
	c := newTimeSeries("c", 3)
	d := newTimeSeries("d", 4)

	rec := model.NewRecording("foo")
	seg := model.NewSegment("trial-1")
	require.NoError(t, seg.TimeSeries.Append(a, b, c))
	require.NoError(t, rec.Segments.Append(seg))
	require.NoError(t, s.WriteRecording(rec, true))

	removed, err := seg.TimeSeries.Remove(a)
	require.NoError(t, err)
	require.True(t, removed)
	require.NoError(t, seg.TimeSeries.Append(d))
	require.NoError(t, s.WriteRecording(rec, true))

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)
	segs, err := got.Segments.Slice()
	require.NoError(t, err)
	require.Len(t, segs, 1)
	series, err := segs[0].TimeSeries.Slice()
	require.NoError(t, err)
	require.Len(t, series, 3)

	names := make([]string, len(series))
	for i, ts := range series {
		names[i] = ts.Name
	}
	assert.ElementsMatch(t, []string{"b", "c", "d"}, names)

	// The unlinked leaf's array was swept.
	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	defer release()
	blk, _ := f.Block("foo")
	assert.Equal(t, 3, blk.DataArrays().Len())
}

func TestReconcileRemovedSegment(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	rec := model.NewRecording("foo")
	require.NoError(t, rec.Segments.Append(model.NewSegment("trial-1"), model.NewSegment("trial-2")))
	require.NoError(t, s.WriteRecording(rec, true))

	require.NoError(t, rec.Segments.RemoveAt(0))
	require.NoError(t, s.WriteRecording(rec, true))

	got, err := s.ReadRecording("foo")
	require.NoError(t, err)
	segs, err := got.Segments.Slice()
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "trial-2", segs[0].Name)
}

func TestChannelGroupAndUnits(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	st := &model.SpikeTrain{
		Name:        "unit-1-spikes",
		Annotations: model.Annotations{},
		Times:       []float64{0.1, 0.5, 0.9},
		Unit:        "s",
		TStart:      model.Q(0, "s"),
		TStop:       model.Q(1, "s"),
	}
	unit := model.NewUnit("unit-1")
	require.NoError(t, unit.SpikeTrains.Append(st))

	cg := model.NewChannelGroup("tetrode-1")
	cg.ChannelIndexes = []int64{0, 1, 2, 3}
	cg.ChannelNames = []string{"ch0", "ch1", "ch2", "ch3"}
	require.NoError(t, cg.TimeSeries.Append(newTimeSeries("lfp", 1, 2, 3)))
	require.NoError(t, cg.Units.Append(unit))

	rec := model.NewRecording("foo")
	require.NoError(t, rec.ChannelGroups.Append(cg))
	require.NoError(t, s.WriteRecording(rec, true))

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)
	cgs, err := got.ChannelGroups.Slice()
	require.NoError(t, err)
	require.Len(t, cgs, 1)
	assert.Equal(t, "tetrode-1", cgs[0].Name)
	assert.Equal(t, []int64{0, 1, 2, 3}, cgs[0].ChannelIndexes)
	assert.Equal(t, []string{"ch0", "ch1", "ch2", "ch3"}, cgs[0].ChannelNames)

	series, err := cgs[0].TimeSeries.Slice()
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "lfp", series[0].Name)

	units, err := cgs[0].Units.Slice()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "unit-1", units[0].Name)

	trains, err := units[0].SpikeTrains.Slice()
	require.NoError(t, err)
	require.Len(t, trains, 1)
	assert.Equal(t, []float64{0.1, 0.5, 0.9}, trains[0].Times)
	assert.Equal(t, model.Q(0, "s"), trains[0].TStart)
	assert.Equal(t, model.Q(1, "s"), trains[0].TStop)
	assert.Nil(t, trains[0].LeftSweep)
	assert.Nil(t, trains[0].SamplingRate)
}

func TestMultiParentLeaf(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	// One signal shared by a segment (reference list) and a channel group
	// (source link): stored once, visible from both parents.
	ts := newTimeSeries("lfp", 1, 2, 3)

	seg := model.NewSegment("trial-1")
	require.NoError(t, seg.TimeSeries.Append(ts))
	cg := model.NewChannelGroup("tetrode-1")
	require.NoError(t, cg.TimeSeries.Append(ts))

	rec := model.NewRecording("foo")
	require.NoError(t, rec.Segments.Append(seg))
	require.NoError(t, rec.ChannelGroups.Append(cg))
	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	blk, _ := f.Block("foo")
	assert.Equal(t, 1, blk.DataArrays().Len())
	require.NoError(t, release())

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)

	segs, err := got.Segments.Slice()
	require.NoError(t, err)
	fromSeg, err := segs[0].TimeSeries.Slice()
	require.NoError(t, err)
	require.Len(t, fromSeg, 1)

	cgs, err := got.ChannelGroups.Slice()
	require.NoError(t, err)
	fromCG, err := cgs[0].TimeSeries.Slice()
	require.NoError(t, err)
	require.Len(t, fromCG, 1)

	assert.Equal(t, fromSeg[0].Samples, fromCG[0].Samples)

	// Dropping one parent keeps the array alive through the other.
	require.NoError(t, seg.TimeSeries.RemoveAt(0))
	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err = s.handle.acquire()
	require.NoError(t, err)
	defer release()
	blk, _ = f.Block("foo")
	assert.Equal(t, 1, blk.DataArrays().Len())
}

func TestRemovedChannelGroupSweepsLeaves(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	st := &model.SpikeTrain{
		Annotations: model.Annotations{},
		Times:       []float64{0.1, 0.9},
		Unit:        "s",
		TStart:      model.Q(0, "s"),
		TStop:       model.Q(1, "s"),
	}
	unit := model.NewUnit("unit-1")
	require.NoError(t, unit.SpikeTrains.Append(st))
	cg := model.NewChannelGroup("tetrode-1")
	require.NoError(t, cg.Units.Append(unit))

	rec := model.NewRecording("foo")
	require.NoError(t, rec.ChannelGroups.Append(cg))
	require.NoError(t, s.WriteRecording(rec, true))

	// Dropping the channel group must not leave the unit's spike train
	// behind with a dangling source link.
	require.NoError(t, rec.ChannelGroups.RemoveAt(0))
	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	defer release()

	blk, ok := f.Block("foo")
	require.True(t, ok)
	assert.Equal(t, 0, blk.Sources().Len())
	assert.Equal(t, 0, blk.DataArrays().Len())

	// Metadata sections of the deleted nodes are pruned with them.
	require.NotNil(t, blk.Metadata)
	if group, ok := blk.Metadata.Section(model.KindChannelGroup.Group()); ok {
		assert.False(t, group.Sections().Has("tetrode-1"))
	}
	if group, ok := blk.Metadata.Section(model.KindUnit.Group()); ok {
		assert.False(t, group.Sections().Has("unit-1"))
	}
}

func TestDeletedSegmentPrunesMetadata(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	ts := newTimeSeries("lfp", 1, 2, 3)
	seg := model.NewSegment("trial-1")
	require.NoError(t, seg.TimeSeries.Append(ts))
	rec := model.NewRecording("foo")
	require.NoError(t, rec.Segments.Append(seg))
	require.NoError(t, s.WriteRecording(rec, true))

	require.NoError(t, rec.Segments.RemoveAt(0))
	require.NoError(t, s.WriteRecording(rec, true))

	f, release, err := s.handle.acquire()
	require.NoError(t, err)
	defer release()

	blk, ok := f.Block("foo")
	require.True(t, ok)
	require.NotNil(t, blk.Metadata)

	segGroup, ok := blk.Metadata.Section(model.KindSegment.Group())
	require.True(t, ok)
	assert.False(t, segGroup.Sections().Has("trial-1"))

	// The swept leaf's section goes too.
	tsGroup, ok := blk.Metadata.Section(model.KindTimeSeries.Group())
	require.True(t, ok)
	assert.False(t, tsGroup.Sections().Has(timeSeriesIdentity(ts)))
}

func TestOrphanSweep(t *testing.T) {
	f := container.NewFile()
	blk := f.CreateBlock("foo", model.KindRecording.String())

	keep := blk.CreateDataArray("keep", model.KindTimeSeries.String(), [][]float64{{1}})
	blk.CreateDataArray("orphan", model.KindTimeSeries.String(), [][]float64{{2}})
	linked := blk.CreateDataArray("linked", model.KindSpikeTrain.String(), [][]float64{{3}})

	tag := blk.CreateTag("trial-1", model.KindSegment.String(), []float64{0})
	tag.AddReference(keep)
	linked.AddSource(blk.CreateSource("unit-1", model.KindUnit.String()))

	removed := sweep(blk)
	assert.Equal(t, 1, removed)
	assert.True(t, blk.DataArrays().Has("keep"))
	assert.True(t, blk.DataArrays().Has("linked"))
	assert.False(t, blk.DataArrays().Has("orphan"))
}

func TestWriteUnitDanglingParent(t *testing.T) {
	f := container.NewFile()
	blk := f.CreateBlock("foo", model.KindRecording.String())

	_, err := writeUnit(f, blk, "no-such-group", model.NewUnit("unit-1"), false)
	var dp *DanglingParentError
	require.ErrorAs(t, err, &dp)
	assert.Equal(t, model.KindChannelGroup, dp.Kind)
	assert.Equal(t, "no-such-group", dp.Name)
}

func TestNonRecursiveWrite(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	rec := model.NewRecording("foo")
	seg := model.NewSegment("trial-1")
	require.NoError(t, rec.Segments.Append(seg))

	// Non-recursive writes touch only the recording node.
	require.NoError(t, s.WriteRecording(rec, false))

	got, err := s.ReadRecording("foo")
	require.NoError(t, err)
	n, err := got.Segments.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAllLeafKindsRoundTrip(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	leftSweep := model.Q(0.002, "s")
	rate := model.Q(30000, "Hz")

	seg := model.NewSegment("trial-1")
	require.NoError(t, seg.TimeSeries.Append(newTimeSeries("lfp", 1, 2, 3)))
	require.NoError(t, seg.IrregularTimeSeries.Append(&model.IrregularTimeSeries{
		Name:        "temp",
		Annotations: model.Annotations{},
		Samples:     []float64{36.5, 36.7},
		Unit:        "C",
		Times:       []float64{0, 60},
		TimeUnit:    "s",
	}))
	require.NoError(t, seg.SpikeTrains.Append(&model.SpikeTrain{
		Name:         "spikes",
		Annotations:  model.Annotations{},
		Times:        []float64{0.25, 0.75},
		Unit:         "s",
		TStart:       model.Q(0, "s"),
		TStop:        model.Q(1, "s"),
		LeftSweep:    &leftSweep,
		SamplingRate: &rate,
	}))
	require.NoError(t, seg.EventSets.Append(&model.EventSet{
		Name:        "stimuli",
		Annotations: model.Annotations{},
		Times:       []float64{0.1, 0.2},
		Unit:        "s",
		Labels:      []string{"on", "off"},
	}))
	require.NoError(t, seg.IntervalSets.Append(&model.IntervalSet{
		Name:        "epochs",
		Annotations: model.Annotations{},
		Times:       []float64{0, 0.5},
		Durations:   []float64{0.4, 0.4},
		Unit:        "s",
		Labels:      []string{"baseline", "response"},
	}))

	rec := model.NewRecording("foo")
	require.NoError(t, rec.Segments.Append(seg))
	require.NoError(t, s.WriteRecording(rec, true))

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)
	segs, err := got.Segments.Slice()
	require.NoError(t, err)
	require.Len(t, segs, 1)

	t.Run("irregular time series", func(t *testing.T) {
		its, err := segs[0].IrregularTimeSeries.Slice()
		require.NoError(t, err)
		require.Len(t, its, 1)
		assert.Equal(t, "temp", its[0].Name)
		assert.Equal(t, []float64{36.5, 36.7}, its[0].Samples)
		assert.Equal(t, []float64{0, 60}, its[0].Times)
		assert.Equal(t, "s", its[0].TimeUnit)
	})

	t.Run("spike train", func(t *testing.T) {
		sts, err := segs[0].SpikeTrains.Slice()
		require.NoError(t, err)
		require.Len(t, sts, 1)
		assert.Equal(t, []float64{0.25, 0.75}, sts[0].Times)
		require.NotNil(t, sts[0].LeftSweep)
		assert.Equal(t, leftSweep, *sts[0].LeftSweep)
		require.NotNil(t, sts[0].SamplingRate)
		assert.Equal(t, rate, *sts[0].SamplingRate)
	})

	t.Run("event set", func(t *testing.T) {
		ess, err := segs[0].EventSets.Slice()
		require.NoError(t, err)
		require.Len(t, ess, 1)
		assert.Equal(t, []float64{0.1, 0.2}, ess[0].Times)
		assert.Equal(t, []string{"on", "off"}, ess[0].Labels)
	})

	t.Run("interval set", func(t *testing.T) {
		iss, err := segs[0].IntervalSets.Slice()
		require.NoError(t, err)
		require.Len(t, iss, 1)
		assert.Equal(t, []float64{0, 0.5}, iss[0].Times)
		assert.Equal(t, []float64{0.4, 0.4}, iss[0].Durations)
		assert.Equal(t, []string{"baseline", "response"}, iss[0].Labels)
	})
}

func TestAnnotationsRoundTrip(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	rec := model.NewRecording("foo")
	rec.Annotations["subject"] = "rat-42"
	rec.Annotations["trial_count"] = int64(12)
	rec.Annotations["valid"] = true
	rec.Annotations["weight"] = model.Q(0.35, "kg")
	rec.Annotations["tags"] = []string{"awake", "headfixed"}

	require.NoError(t, s.WriteRecording(rec, false))

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)
	assert.Equal(t, "rat-42", got.Annotations["subject"])
	assert.Equal(t, int64(12), got.Annotations["trial_count"])
	assert.Equal(t, true, got.Annotations["valid"])
	assert.Equal(t, model.Q(0.35, "kg"), got.Annotations["weight"])
	assert.Equal(t, []string{"awake", "headfixed"}, got.Annotations["tags"])
}

func TestEmptySliceAnnotationRoundTrip(t *testing.T) {
	blobs := blobstore.NewMemory()
	s := newTestStore(t, blobs)

	rec := model.NewRecording("foo")
	rec.Annotations["tags"] = []string{}
	require.NoError(t, s.WriteRecording(rec, false))

	got, err := newTestStore(t, blobs).ReadRecording("foo")
	require.NoError(t, err)
	require.Contains(t, got.Annotations, "tags")
	assert.Empty(t, got.Annotations["tags"])
}

func TestUnsupportedAnnotationType(t *testing.T) {
	s := newTestStore(t, blobstore.NewMemory())

	rec := model.NewRecording("foo")
	rec.Annotations["bad"] = struct{ X int }{1}

	err := s.WriteRecording(rec, false)
	var cm *CodecMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, "bad", cm.Attr)
}

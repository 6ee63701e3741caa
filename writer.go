package nixstore

import (
	"github.com/neurokit/nixstore/container"
	"github.com/neurokit/nixstore/model"
)

// The writer reconciles an in-memory subtree into the container: it creates
// or updates each node by identity, persists attributes and annotations, and
// diffs every child collection against the currently linked children.
//
// Linkage is applied through an explicit strategy per call site:
//   - reference lists (segment tags): unlink removed names, append new ones
//   - source links (channel groups, units): drop/add the parent's link on
//     the leaf
//   - exclusive containment (segments under a recording, units under a
//     channel group): removed children are deleted outright
//
// Children present in both the desired and existing sets are left untouched.

// reconcile diffs the desired child list against the currently linked
// children. Every desired child is written (idempotently); linkage deltas
// are then applied via link/unlink.
func reconcile[T comparable](
	list *model.List[T],
	identity func(T) string,
	existing []string,
	write func(T) error,
	link func(id string) error,
	unlink func(id string) error,
) error {
	desired, err := list.Slice()
	if err != nil {
		return err
	}

	desiredSet := make(map[string]struct{}, len(desired))
	for _, obj := range desired {
		if err := write(obj); err != nil {
			return err
		}
		desiredSet[identity(obj)] = struct{}{}
	}

	existingSet := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	for _, id := range existing {
		if _, ok := desiredSet[id]; !ok {
			if err := unlink(id); err != nil {
				return err
			}
		}
	}
	for _, obj := range desired {
		id := identity(obj)
		if _, ok := existingSet[id]; !ok {
			if err := link(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func noLink(string) error { return nil }

// blockSection returns the recording's metadata section at the file root,
// creating it on demand.
func blockSection(f *container.File, blk *container.Block) *container.Section {
	if blk.Metadata == nil {
		blk.Metadata = f.GetOrCreateSection(blk.Name, blk.Type)
	}
	return blk.Metadata
}

// kindSection returns the metadata section for one object, nested in the
// kind's group under the recording's metadata scope.
func kindSection(f *container.File, blk *container.Block, kind model.Kind, name string) *container.Section {
	group := blockSection(f, blk).GetOrCreateSection(kind.Group(), kind.String())
	return group.GetOrCreateSection(name, kind.String())
}

func writeRecording(f *container.File, rec *model.Recording, recursive bool) (*container.Block, error) {
	blk, ok := f.Block(rec.Name)
	if !ok {
		blk = f.CreateBlock(rec.Name, model.KindRecording.String())
	}

	sec := blockSection(f, blk)
	attrs := map[string]any{"index": rec.Index}
	putCommonAttrs(attrs, rec.Description, rec.FileOrigin, rec.Annotations)
	if !rec.FileDatetime.IsZero() {
		attrs["file_datetime"] = rec.FileDatetime
	}
	if !rec.RecDatetime.IsZero() {
		attrs["rec_datetime"] = rec.RecDatetime
	}
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}

	if recursive {
		// Segments are exclusively contained: removed ones are deleted.
		err := reconcile(rec.Segments,
			func(s *model.Segment) string { return s.Name },
			taggedNames(blk, model.KindSegment),
			func(s *model.Segment) error { _, err := writeSegment(f, blk, s, true); return err },
			noLink,
			func(id string) error {
				blk.Tags().Delete(id)
				pruneKindSection(blk, model.KindSegment, id)
				return nil
			},
		)
		if err != nil {
			return nil, err
		}

		// So are channel groups.
		err = reconcile(rec.ChannelGroups,
			func(cg *model.ChannelGroup) string { return cg.Name },
			sourceNames(blk.Sources().Items(), model.KindChannelGroup),
			func(cg *model.ChannelGroup) error { _, err := writeChannelGroup(f, blk, cg, true); return err },
			noLink,
			func(id string) error {
				if src, ok := blk.Sources().Get(id); ok {
					unlinkSourceTree(blk, src)
					for _, unitSrc := range src.Sources().Items() {
						pruneKindSection(blk, model.KindUnit, unitSrc.Name)
					}
				}
				blk.Sources().Delete(id)
				pruneKindSection(blk, model.KindChannelGroup, id)
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
	}

	return blk, nil
}

func writeSegment(f *container.File, blk *container.Block, seg *model.Segment, recursive bool) (*container.Tag, error) {
	tag, ok := blk.Tags().Get(seg.Name)
	if !ok {
		tag = blk.CreateTag(seg.Name, model.KindSegment.String(), []float64{0})
	}

	sec := kindSection(f, blk, model.KindSegment, seg.Name)
	tag.Metadata = sec
	attrs := map[string]any{"index": seg.Index}
	putCommonAttrs(attrs, seg.Description, seg.FileOrigin, seg.Annotations)
	if !seg.FileDatetime.IsZero() {
		attrs["file_datetime"] = seg.FileDatetime
	}
	if !seg.RecDatetime.IsZero() {
		attrs["rec_datetime"] = seg.RecDatetime
	}
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}

	if recursive {
		if err := reconcileTagged(f, blk, tag, seg.TimeSeries, model.KindTimeSeries, timeSeriesIdentity, writeTimeSeries); err != nil {
			return nil, err
		}
		if err := reconcileTagged(f, blk, tag, seg.IrregularTimeSeries, model.KindIrregularTimeSeries, irregularTimeSeriesIdentity, writeIrregularTimeSeries); err != nil {
			return nil, err
		}
		if err := reconcileTagged(f, blk, tag, seg.SpikeTrains, model.KindSpikeTrain, spikeTrainIdentity, writeSpikeTrain); err != nil {
			return nil, err
		}
		if err := reconcileTagged(f, blk, tag, seg.EventSets, model.KindEventSet, eventSetIdentity, writeEventSet); err != nil {
			return nil, err
		}
		if err := reconcileTagged(f, blk, tag, seg.IntervalSets, model.KindIntervalSet, intervalSetIdentity, writeIntervalSet); err != nil {
			return nil, err
		}
	}

	return tag, nil
}

// reconcileTagged applies the reference-list strategy: the segment's tag
// carries an ordered reference list over the block's data arrays.
func reconcileTagged[T comparable](
	f *container.File,
	blk *container.Block,
	tag *container.Tag,
	list *model.List[T],
	kind model.Kind,
	identity func(T) string,
	write func(*container.File, *container.Block, T) (*container.DataArray, error),
) error {
	var existing []string
	for _, da := range tag.References() {
		if da.Type == kind.String() {
			existing = append(existing, da.Name)
		}
	}
	return reconcile(list, identity, existing,
		func(obj T) error { _, err := write(f, blk, obj); return err },
		func(id string) error {
			da, ok := blk.DataArrays().Get(id)
			if !ok {
				return &NotFoundError{Kind: kind, Name: id}
			}
			tag.AddReference(da)
			return nil
		},
		func(id string) error { tag.RemoveReference(id); return nil },
	)
}

// reconcileLinked applies the source-link strategy: membership is a link
// from the leaf back to the parent source.
func reconcileLinked[T comparable](
	f *container.File,
	blk *container.Block,
	src *container.Source,
	list *model.List[T],
	kind model.Kind,
	identity func(T) string,
	write func(*container.File, *container.Block, T) (*container.DataArray, error),
) error {
	var existing []string
	for _, da := range blk.DataArrays().Items() {
		if da.Type == kind.String() && da.HasSource(src.Name) {
			existing = append(existing, da.Name)
		}
	}
	return reconcile(list, identity, existing,
		func(obj T) error { _, err := write(f, blk, obj); return err },
		func(id string) error {
			da, ok := blk.DataArrays().Get(id)
			if !ok {
				return &NotFoundError{Kind: kind, Name: id}
			}
			da.AddSource(src)
			return nil
		},
		func(id string) error {
			if da, ok := blk.DataArrays().Get(id); ok {
				da.RemoveSource(src.Name)
			}
			return nil
		},
	)
}

func writeChannelGroup(f *container.File, blk *container.Block, cg *model.ChannelGroup, recursive bool) (*container.Source, error) {
	src, ok := blk.Sources().Get(cg.Name)
	if !ok {
		src = blk.CreateSource(cg.Name, model.KindChannelGroup.String())
	}

	sec := kindSection(f, blk, model.KindChannelGroup, cg.Name)
	src.Metadata = sec
	attrs := map[string]any{"name": cg.Name}
	putCommonAttrs(attrs, cg.Description, cg.FileOrigin, cg.Annotations)
	if len(cg.ChannelIndexes) > 0 {
		attrs["channel_indexes"] = cg.ChannelIndexes
	}
	if len(cg.ChannelNames) > 0 {
		attrs["channel_names"] = cg.ChannelNames
	}
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}

	if recursive {
		// Units are exclusively contained under their channel group.
		err := reconcile(cg.Units,
			func(u *model.Unit) string { return u.Name },
			sourceNames(src.Sources().Items(), model.KindUnit),
			func(u *model.Unit) error { _, err := writeUnit(f, blk, cg.Name, u, true); return err },
			noLink,
			func(id string) error {
				if unitSrc, ok := src.Sources().Get(id); ok {
					unlinkSourceTree(blk, unitSrc)
				}
				src.Sources().Delete(id)
				pruneKindSection(blk, model.KindUnit, id)
				return nil
			},
		)
		if err != nil {
			return nil, err
		}

		if err := reconcileLinked(f, blk, src, cg.TimeSeries, model.KindTimeSeries, timeSeriesIdentity, writeTimeSeries); err != nil {
			return nil, err
		}
		if err := reconcileLinked(f, blk, src, cg.IrregularTimeSeries, model.KindIrregularTimeSeries, irregularTimeSeriesIdentity, writeIrregularTimeSeries); err != nil {
			return nil, err
		}
	}

	return src, nil
}

func writeUnit(f *container.File, blk *container.Block, channelGroupName string, unit *model.Unit, recursive bool) (*container.Source, error) {
	cgSrc, ok := blk.Sources().Get(channelGroupName)
	if !ok {
		return nil, &DanglingParentError{Kind: model.KindChannelGroup, Name: channelGroupName}
	}

	src, ok := cgSrc.Sources().Get(unit.Name)
	if !ok {
		src = cgSrc.CreateSource(unit.Name, model.KindUnit.String())
	}

	sec := kindSection(f, blk, model.KindUnit, unit.Name)
	src.Metadata = sec
	attrs := map[string]any{}
	putCommonAttrs(attrs, unit.Description, unit.FileOrigin, unit.Annotations)
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}

	if recursive {
		if err := reconcileLinked(f, blk, src, unit.SpikeTrains, model.KindSpikeTrain, spikeTrainIdentity, writeSpikeTrain); err != nil {
			return nil, err
		}
	}

	return src, nil
}

func writeTimeSeries(f *container.File, blk *container.Block, ts *model.TimeSeries) (*container.DataArray, error) {
	name := timeSeriesIdentity(ts)
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		// Payload is written on creation only; the content-derived identity
		// makes it immutable afterwards.
		da = blk.CreateDataArray(name, model.KindTimeSeries.String(), [][]float64{cloneRow(ts.Samples)})
	}
	da.Unit = ts.Unit

	if len(da.Dimensions) == 0 {
		da.Dimensions = append(da.Dimensions, container.Dimension{
			Kind:             container.DimSampled,
			SamplingInterval: ts.SamplingRate.Value,
		})
	}
	da.Dimensions[0].Unit = ts.SamplingRate.Unit

	attrs := map[string]any{"t_start": ts.TStart}
	putLeafName(attrs, ts.Name)
	putCommonAttrs(attrs, ts.Description, ts.FileOrigin, ts.Annotations)
	sec := kindSection(f, blk, model.KindTimeSeries, name)
	da.Metadata = sec
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}
	return da, nil
}

func writeIrregularTimeSeries(f *container.File, blk *container.Block, its *model.IrregularTimeSeries) (*container.DataArray, error) {
	name := irregularTimeSeriesIdentity(its)
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		da = blk.CreateDataArray(name, model.KindIrregularTimeSeries.String(), [][]float64{cloneRow(its.Samples)})
	}
	da.Unit = its.Unit

	if len(da.Dimensions) == 0 {
		da.Dimensions = append(da.Dimensions, container.Dimension{
			Kind:  container.DimRange,
			Ticks: cloneRow(its.Times),
		})
	}
	da.Dimensions[0].Unit = its.TimeUnit

	attrs := map[string]any{}
	putLeafName(attrs, its.Name)
	putCommonAttrs(attrs, its.Description, its.FileOrigin, its.Annotations)
	sec := kindSection(f, blk, model.KindIrregularTimeSeries, name)
	da.Metadata = sec
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}
	return da, nil
}

func writeSpikeTrain(f *container.File, blk *container.Block, st *model.SpikeTrain) (*container.DataArray, error) {
	name := spikeTrainIdentity(st)
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		da = blk.CreateDataArray(name, model.KindSpikeTrain.String(), [][]float64{cloneRow(st.Times)})
	}
	da.Unit = st.Unit

	if st.SamplingRate != nil {
		if len(da.Dimensions) == 0 {
			da.Dimensions = append(da.Dimensions, container.Dimension{
				Kind:             container.DimSampled,
				SamplingInterval: st.SamplingRate.Value,
			})
		}
		da.Dimensions[0].Unit = st.SamplingRate.Unit
	}

	attrs := map[string]any{
		"t_start": st.TStart,
		"t_stop":  st.TStop,
	}
	if st.LeftSweep != nil {
		attrs["left_sweep"] = *st.LeftSweep
	}
	putLeafName(attrs, st.Name)
	putCommonAttrs(attrs, st.Description, st.FileOrigin, st.Annotations)
	sec := kindSection(f, blk, model.KindSpikeTrain, name)
	da.Metadata = sec
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}
	return da, nil
}

func writeEventSet(f *container.File, blk *container.Block, es *model.EventSet) (*container.DataArray, error) {
	name := eventSetIdentity(es)
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		da = blk.CreateDataArray(name, model.KindEventSet.String(), [][]float64{cloneRow(es.Times)})
	}
	da.Unit = es.Unit

	if len(da.Dimensions) == 0 {
		da.Dimensions = append(da.Dimensions, container.Dimension{Kind: container.DimSet})
	}
	da.Dimensions[0].Labels = append([]string(nil), es.Labels...)

	attrs := map[string]any{}
	putLeafName(attrs, es.Name)
	putCommonAttrs(attrs, es.Description, es.FileOrigin, es.Annotations)
	sec := kindSection(f, blk, model.KindEventSet, name)
	da.Metadata = sec
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}
	return da, nil
}

func writeIntervalSet(f *container.File, blk *container.Block, is *model.IntervalSet) (*container.DataArray, error) {
	name := intervalSetIdentity(is)
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		da = blk.CreateDataArray(name, model.KindIntervalSet.String(), [][]float64{cloneRow(is.Times), cloneRow(is.Durations)})
	}
	da.Unit = is.Unit

	if len(da.Dimensions) == 0 {
		da.Dimensions = append(da.Dimensions, container.Dimension{Kind: container.DimSet})
	}
	da.Dimensions[0].Labels = append([]string(nil), is.Labels...)

	attrs := map[string]any{}
	putLeafName(attrs, is.Name)
	putCommonAttrs(attrs, is.Description, is.FileOrigin, is.Annotations)
	sec := kindSection(f, blk, model.KindIntervalSet, name)
	da.Metadata = sec
	if err := writeMetadata(sec, attrs); err != nil {
		return nil, err
	}
	return da, nil
}

// putCommonAttrs merges annotations and the default simple attrs into the
// attribute map. Empty strings are treated as unset and not persisted.
func putCommonAttrs(attrs map[string]any, description, fileOrigin string, ann model.Annotations) {
	for k, v := range ann {
		attrs[k] = v
	}
	if description != "" {
		attrs["description"] = description
	}
	if fileOrigin != "" {
		attrs["file_origin"] = fileOrigin
	}
}

func putLeafName(attrs map[string]any, name string) {
	if name != "" {
		attrs["name"] = name
	}
}

// pruneKindSection drops a deleted node's metadata section from its kind
// group so the metadata scope does not accumulate dead entries.
func pruneKindSection(blk *container.Block, kind model.Kind, name string) {
	if blk.Metadata == nil {
		return
	}
	if group, ok := blk.Metadata.Section(kind.Group()); ok {
		group.Sections().Delete(name)
	}
}

// unlinkSourceTree removes the source's link, and those of all nested
// sources, from every data array in the block. Exclusive deletion of a
// source must not leave dangling links behind; the orphan sweep relies on
// link counts.
func unlinkSourceTree(blk *container.Block, src *container.Source) {
	for _, child := range src.Sources().Items() {
		unlinkSourceTree(blk, child)
	}
	for _, da := range blk.DataArrays().Items() {
		da.RemoveSource(src.Name)
	}
}

func taggedNames(blk *container.Block, kind model.Kind) []string {
	var out []string
	for _, tag := range blk.Tags().Items() {
		if tag.Type == kind.String() {
			out = append(out, tag.Name)
		}
	}
	return out
}

func sourceNames(items []*container.Source, kind model.Kind) []string {
	var out []string
	for _, src := range items {
		if src.Type == kind.String() {
			out = append(out, src.Name)
		}
	}
	return out
}

func cloneRow(row []float64) []float64 {
	return append([]float64(nil), row...)
}

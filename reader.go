package nixstore

import (
	"github.com/neurokit/nixstore/container"
	"github.com/neurokit/nixstore/model"
)

// The reader materializes one object per call and wires a deferred list for
// every child collection. A deferred list's fetch function re-acquires the
// handle (reopening the backing store if it was closed in between) and
// re-enters the reader for each matching child.
//
// Collection order follows the container's enumeration order; it is not
// guaranteed stable across independent container implementations.

func readRecording(h *fileHandle, f *container.File, name string) (*model.Recording, error) {
	blk, ok := f.Block(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindRecording, Name: name}
	}

	rec := model.NewRecording(blk.Name)
	md := blk.Metadata
	applyCommonAttrs(md, &rec.Description, &rec.FileOrigin)
	if t, ok := getTime(md, "file_datetime"); ok {
		rec.FileDatetime = t
	}
	if t, ok := getTime(md, "rec_datetime"); ok {
		rec.RecDatetime = t
	}
	if i, ok := getInt(md, "index"); ok {
		rec.Index = i
	}
	rec.Annotations = readAnnotations(md, model.KindRecording)

	rec.Segments = model.DeferredList(func() ([]*model.Segment, error) {
		return fetchChildren(h, name, func(blk *container.Block) ([]*model.Segment, error) {
			var out []*model.Segment
			for _, tag := range blk.Tags().Items() {
				if tag.Type != model.KindSegment.String() {
					continue
				}
				seg, err := readSegment(h, blk, tag.Name)
				if err != nil {
					return nil, err
				}
				out = append(out, seg)
			}
			return out, nil
		})
	})
	rec.ChannelGroups = model.DeferredList(func() ([]*model.ChannelGroup, error) {
		return fetchChildren(h, name, func(blk *container.Block) ([]*model.ChannelGroup, error) {
			var out []*model.ChannelGroup
			for _, src := range blk.Sources().Items() {
				if src.Type != model.KindChannelGroup.String() {
					continue
				}
				cg, err := readChannelGroup(h, blk, src.Name)
				if err != nil {
					return nil, err
				}
				out = append(out, cg)
			}
			return out, nil
		})
	})

	return rec, nil
}

// fetchChildren acquires the handle, looks the block up again (the cached
// pointer from construction time is stale once the handle was closed) and
// runs the fetch against the fresh tree.
func fetchChildren[T any](h *fileHandle, blockName string, fetch func(*container.Block) ([]T, error)) ([]T, error) {
	f, release, err := h.acquire()
	if err != nil {
		return nil, err
	}
	defer func() { _ = release() }()

	blk, ok := f.Block(blockName)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindRecording, Name: blockName}
	}
	return fetch(blk)
}

func readSegment(h *fileHandle, blk *container.Block, name string) (*model.Segment, error) {
	tag, ok := blk.Tags().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindSegment, Name: name}
	}

	seg := model.NewSegment(tag.Name)
	md := tag.Metadata
	applyCommonAttrs(md, &seg.Description, &seg.FileOrigin)
	if t, ok := getTime(md, "file_datetime"); ok {
		seg.FileDatetime = t
	}
	if t, ok := getTime(md, "rec_datetime"); ok {
		seg.RecDatetime = t
	}
	if i, ok := getInt(md, "index"); ok {
		seg.Index = i
	}
	seg.Annotations = readAnnotations(md, model.KindSegment)

	blockName := blk.Name
	seg.TimeSeries = model.DeferredList(func() ([]*model.TimeSeries, error) {
		return fetchTagged(h, blockName, name, model.KindTimeSeries, readTimeSeries)
	})
	seg.IrregularTimeSeries = model.DeferredList(func() ([]*model.IrregularTimeSeries, error) {
		return fetchTagged(h, blockName, name, model.KindIrregularTimeSeries, readIrregularTimeSeries)
	})
	seg.SpikeTrains = model.DeferredList(func() ([]*model.SpikeTrain, error) {
		return fetchTagged(h, blockName, name, model.KindSpikeTrain, readSpikeTrain)
	})
	seg.EventSets = model.DeferredList(func() ([]*model.EventSet, error) {
		return fetchTagged(h, blockName, name, model.KindEventSet, readEventSet)
	})
	seg.IntervalSets = model.DeferredList(func() ([]*model.IntervalSet, error) {
		return fetchTagged(h, blockName, name, model.KindIntervalSet, readIntervalSet)
	})

	return seg, nil
}

// fetchTagged materializes every leaf of the given kind referenced by the
// segment's tag (reference-list membership).
func fetchTagged[T any](h *fileHandle, blockName, tagName string, kind model.Kind, read func(*container.Block, string) (T, error)) ([]T, error) {
	return fetchChildren(h, blockName, func(blk *container.Block) ([]T, error) {
		tag, ok := blk.Tags().Get(tagName)
		if !ok {
			return nil, &NotFoundError{Kind: model.KindSegment, Name: tagName}
		}
		var out []T
		for _, da := range tag.References() {
			if da.Type != kind.String() {
				continue
			}
			leaf, err := read(blk, da.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, leaf)
		}
		return out, nil
	})
}

// fetchLinked materializes every leaf of the given kind that carries a source
// link to the named source (source-link membership).
func fetchLinked[T any](h *fileHandle, blockName, sourceName string, kind model.Kind, read func(*container.Block, string) (T, error)) ([]T, error) {
	return fetchChildren(h, blockName, func(blk *container.Block) ([]T, error) {
		var out []T
		for _, da := range blk.DataArrays().Items() {
			if da.Type != kind.String() || !da.HasSource(sourceName) {
				continue
			}
			leaf, err := read(blk, da.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, leaf)
		}
		return out, nil
	})
}

func readChannelGroup(h *fileHandle, blk *container.Block, name string) (*model.ChannelGroup, error) {
	src, ok := blk.Sources().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindChannelGroup, Name: name}
	}

	cg := model.NewChannelGroup(src.Name)
	md := src.Metadata
	applyCommonAttrs(md, &cg.Description, &cg.FileOrigin)
	cg.ChannelIndexes = getInts(md, "channel_indexes")
	cg.ChannelNames = getStrings(md, "channel_names")
	cg.Annotations = readAnnotations(md, model.KindChannelGroup)

	blockName := blk.Name
	cg.TimeSeries = model.DeferredList(func() ([]*model.TimeSeries, error) {
		return fetchLinked(h, blockName, name, model.KindTimeSeries, readTimeSeries)
	})
	cg.IrregularTimeSeries = model.DeferredList(func() ([]*model.IrregularTimeSeries, error) {
		return fetchLinked(h, blockName, name, model.KindIrregularTimeSeries, readIrregularTimeSeries)
	})
	cg.Units = model.DeferredList(func() ([]*model.Unit, error) {
		return fetchChildren(h, blockName, func(blk *container.Block) ([]*model.Unit, error) {
			cgSrc, ok := blk.Sources().Get(name)
			if !ok {
				return nil, &NotFoundError{Kind: model.KindChannelGroup, Name: name}
			}
			var out []*model.Unit
			for _, unitSrc := range cgSrc.Sources().Items() {
				if unitSrc.Type != model.KindUnit.String() {
					continue
				}
				u, err := readUnit(h, blk, name, unitSrc.Name)
				if err != nil {
					return nil, err
				}
				out = append(out, u)
			}
			return out, nil
		})
	})

	return cg, nil
}

func readUnit(h *fileHandle, blk *container.Block, channelGroupName, name string) (*model.Unit, error) {
	cgSrc, ok := blk.Sources().Get(channelGroupName)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindChannelGroup, Name: channelGroupName}
	}
	src, ok := cgSrc.Sources().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindUnit, Name: name}
	}

	unit := model.NewUnit(src.Name)
	applyCommonAttrs(src.Metadata, &unit.Description, &unit.FileOrigin)
	unit.Annotations = readAnnotations(src.Metadata, model.KindUnit)

	blockName := blk.Name
	unit.SpikeTrains = model.DeferredList(func() ([]*model.SpikeTrain, error) {
		return fetchLinked(h, blockName, name, model.KindSpikeTrain, readSpikeTrain)
	})

	return unit, nil
}

func readTimeSeries(blk *container.Block, name string) (*model.TimeSeries, error) {
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindTimeSeries, Name: name}
	}

	ts := &model.TimeSeries{Annotations: model.Annotations{}}
	ts.Samples = payloadRow(da, 0)
	ts.Unit = da.Unit
	if len(da.Dimensions) > 0 && da.Dimensions[0].Kind == container.DimSampled {
		ts.SamplingRate = model.Q(da.Dimensions[0].SamplingInterval, da.Dimensions[0].Unit)
	}

	md := da.Metadata
	applyLeafName(md, &ts.Name)
	applyCommonAttrs(md, &ts.Description, &ts.FileOrigin)
	if q, ok, err := readQuantity(md, "t_start"); err != nil {
		return nil, err
	} else if ok {
		ts.TStart = q
	}
	ts.Annotations = readAnnotations(md, model.KindTimeSeries)

	return ts, nil
}

func readIrregularTimeSeries(blk *container.Block, name string) (*model.IrregularTimeSeries, error) {
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindIrregularTimeSeries, Name: name}
	}

	its := &model.IrregularTimeSeries{Annotations: model.Annotations{}}
	its.Samples = payloadRow(da, 0)
	its.Unit = da.Unit
	if len(da.Dimensions) > 0 && da.Dimensions[0].Kind == container.DimRange {
		its.Times = append([]float64(nil), da.Dimensions[0].Ticks...)
		its.TimeUnit = da.Dimensions[0].Unit
	}

	md := da.Metadata
	applyLeafName(md, &its.Name)
	applyCommonAttrs(md, &its.Description, &its.FileOrigin)
	its.Annotations = readAnnotations(md, model.KindIrregularTimeSeries)

	return its, nil
}

func readSpikeTrain(blk *container.Block, name string) (*model.SpikeTrain, error) {
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindSpikeTrain, Name: name}
	}

	st := &model.SpikeTrain{Annotations: model.Annotations{}}
	st.Times = payloadRow(da, 0)
	st.Unit = da.Unit
	if len(da.Dimensions) > 0 && da.Dimensions[0].Kind == container.DimSampled {
		q := model.Q(da.Dimensions[0].SamplingInterval, da.Dimensions[0].Unit)
		st.SamplingRate = &q
	}

	md := da.Metadata
	applyLeafName(md, &st.Name)
	applyCommonAttrs(md, &st.Description, &st.FileOrigin)
	if q, ok, err := readQuantity(md, "t_start"); err != nil {
		return nil, err
	} else if ok {
		st.TStart = q
	}
	if q, ok, err := readQuantity(md, "t_stop"); err != nil {
		return nil, err
	} else if ok {
		st.TStop = q
	}
	if q, ok, err := readQuantity(md, "left_sweep"); err != nil {
		return nil, err
	} else if ok {
		st.LeftSweep = &q
	}
	st.Annotations = readAnnotations(md, model.KindSpikeTrain)

	return st, nil
}

func readEventSet(blk *container.Block, name string) (*model.EventSet, error) {
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindEventSet, Name: name}
	}

	es := &model.EventSet{Annotations: model.Annotations{}}
	es.Times = payloadRow(da, 0)
	es.Unit = da.Unit
	if len(da.Dimensions) > 0 && da.Dimensions[0].Kind == container.DimSet {
		es.Labels = append([]string(nil), da.Dimensions[0].Labels...)
	}

	md := da.Metadata
	applyLeafName(md, &es.Name)
	applyCommonAttrs(md, &es.Description, &es.FileOrigin)
	es.Annotations = readAnnotations(md, model.KindEventSet)

	return es, nil
}

func readIntervalSet(blk *container.Block, name string) (*model.IntervalSet, error) {
	da, ok := blk.DataArrays().Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: model.KindIntervalSet, Name: name}
	}

	is := &model.IntervalSet{Annotations: model.Annotations{}}
	is.Times = payloadRow(da, 0)
	is.Durations = payloadRow(da, 1)
	is.Unit = da.Unit
	if len(da.Dimensions) > 0 && da.Dimensions[0].Kind == container.DimSet {
		is.Labels = append([]string(nil), da.Dimensions[0].Labels...)
	}

	md := da.Metadata
	applyLeafName(md, &is.Name)
	applyCommonAttrs(md, &is.Description, &is.FileOrigin)
	is.Annotations = readAnnotations(md, model.KindIntervalSet)

	return is, nil
}

func payloadRow(da *container.DataArray, i int) []float64 {
	rows := da.Rows()
	if i >= len(rows) {
		return nil
	}
	return append([]float64(nil), rows[i]...)
}

func applyCommonAttrs(md *container.Section, description, fileOrigin *string) {
	if s, ok := getString(md, "description"); ok {
		*description = s
	}
	if s, ok := getString(md, "file_origin"); ok {
		*fileOrigin = s
	}
}

// applyLeafName restores a leaf's transient in-memory name; leaf container
// nodes are named by content hash, so the assigned name lives in metadata.
func applyLeafName(md *container.Section, name *string) {
	if s, ok := getString(md, "name"); ok {
		*name = s
	}
}

package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/golang/snappy"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
)

// layerRecord is the exported, serializable shadow of a layer.Layer used by
// both the pack codec and the directory backend's on-disk content file.
type layerRecord struct {
	Name       id160.ID
	ParentName *id160.ID

	SubjectBase, PredicateBase, ObjectBase uint64
	Subjects, Predicates                   []string
	Objects                                []layer.ObjectEntry

	Additions, Removals []layer.IdTriple

	RawAdditionCount, RawRemovalCount int
}

func recordFromLayer(l *layer.Layer) layerRecord {
	var parentName *id160.ID
	if n, ok := l.ParentName(); ok {
		parentName = &n
	}
	return layerRecord{
		Name:             l.Name(),
		ParentName:       parentName,
		SubjectBase:      l.SubjectBase(),
		PredicateBase:    l.PredicateBase(),
		ObjectBase:       l.ObjectBase(),
		Subjects:         l.LocalSubjects(),
		Predicates:       l.LocalPredicates(),
		Objects:          l.LocalObjects(),
		Additions:        l.TripleAdditions().Collect(),
		Removals:         l.TripleRemovals().Collect(),
		RawAdditionCount: l.TripleLayerAdditionCount(),
		RawRemovalCount:  l.TripleLayerRemovalCount(),
	}
}

func (r layerRecord) toLayer(parent *layer.Layer) *layer.Layer {
	return layer.FromParts(r.Name, parent, r.SubjectBase, r.PredicateBase, r.ObjectBase,
		r.Subjects, r.Predicates, r.Objects, r.Additions, r.Removals,
		r.RawAdditionCount, r.RawRemovalCount)
}

func encodeRecord(r layerRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(b []byte) (layerRecord, error) {
	var r layerRecord
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return r, err
	}
	return r, nil
}

// layerInserter is implemented by every LayerStore backend to allow
// ImportLayers (and the Cache decorator) to register an already-built
// Layer directly, bypassing the builder/commit normalization step since
// imported records are already normalized.
type layerInserter interface {
	insertLayer(ctx context.Context, l *layer.Layer) error
}

// exportLayers implements the ExportLayers contract shared by every
// LayerStore backend: count-prefixed, per-entry (name, length, snappy(gob))
// records.
func exportLayers(ctx context.Context, ls LayerStore, names []id160.ID) ([]byte, error) {
	var buf bytes.Buffer
	var countHdr [4]byte
	binary.BigEndian.PutUint32(countHdr[:], uint32(len(names)))
	buf.Write(countHdr[:])

	for _, name := range names {
		l, ok, err := ls.GetLayer(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: layer %s", ErrNotFound, name)
		}
		gobBytes, err := encodeRecord(recordFromLayer(l))
		if err != nil {
			return nil, err
		}
		compressed := snappy.Encode(nil, gobBytes)

		buf.Write(name[:])
		var lenHdr [8]byte
		binary.BigEndian.PutUint64(lenHdr[:], uint64(len(compressed)))
		buf.Write(lenHdr[:])
		buf.Write(compressed)
	}
	return buf.Bytes(), nil
}

func parsePack(pack []byte) (map[id160.ID]layerRecord, error) {
	if len(pack) < 4 {
		return nil, fmt.Errorf("%w: pack too short", ErrInvalidData)
	}
	count := binary.BigEndian.Uint32(pack[:4])
	pos := 4
	out := make(map[id160.ID]layerRecord, count)
	for i := uint32(0); i < count; i++ {
		if pos+id160.Size+8 > len(pack) {
			return nil, fmt.Errorf("%w: truncated pack entry header", ErrInvalidData)
		}
		var name id160.ID
		copy(name[:], pack[pos:pos+id160.Size])
		pos += id160.Size

		n := int(binary.BigEndian.Uint64(pack[pos : pos+8]))
		pos += 8
		if pos+n > len(pack) {
			return nil, fmt.Errorf("%w: truncated pack entry body", ErrInvalidData)
		}
		compressed := pack[pos : pos+n]
		pos += n

		gobBytes, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		rec, err := decodeRecord(gobBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		out[name] = rec
	}
	return out, nil
}

// sameRecord compares two records by their encoded bytes, so a nil slice and
// an empty one (which gob does not distinguish) count as equal.
func sameRecord(a, b layerRecord) bool {
	a.Name, b.Name = id160.Zero, id160.Zero // names match by construction; ignore in compare
	ab, errA := encodeRecord(a)
	bb, errB := encodeRecord(b)
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

// importLayers implements the ImportLayers contract shared by every
// LayerStore backend: decode pack, resolve requested names (and whatever
// ancestors they need, parent-first) against what's already in ls, insert
// anything new.
func importLayers(ctx context.Context, ls LayerStore, pack []byte, names []id160.ID) error {
	ins, ok := ls.(layerInserter)
	if !ok {
		return fmt.Errorf("%w: backend does not support direct layer insertion", ErrInvalidData)
	}
	records, err := parsePack(pack)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, ok := records[name]; !ok {
			return fmt.Errorf("%w: pack does not contain requested layer %s", ErrInvalidData, name)
		}
	}

	resolved := make(map[id160.ID]*layer.Layer)
	var resolve func(id160.ID) (*layer.Layer, error)
	resolve = func(name id160.ID) (*layer.Layer, error) {
		if l, ok := resolved[name]; ok {
			return l, nil
		}
		if l, ok, err := ls.GetLayer(ctx, name); err == nil && ok {
			if rec, ok := records[name]; ok && !sameRecord(rec, recordFromLayer(l)) {
				return nil, fmt.Errorf("%w: layer %s conflicts with existing bytes", ErrInvalidData, name)
			}
			resolved[name] = l
			return l, nil
		}
		rec, ok := records[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing ancestor layer %s in pack", ErrInvalidData, name)
		}
		var parent *layer.Layer
		if rec.ParentName != nil {
			p, err := resolve(*rec.ParentName)
			if err != nil {
				return nil, err
			}
			parent = p
		}
		l := rec.toLayer(parent)
		if err := ins.insertLayer(ctx, l); err != nil {
			return nil, err
		}
		resolved[name] = l
		return l, nil
	}

	for _, name := range names {
		if _, err := resolve(name); err != nil {
			return err
		}
	}
	return nil
}

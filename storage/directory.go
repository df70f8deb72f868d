package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/gofrs/flock"
	"github.com/golang/snappy"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/internal/xlog"
	"github.com/nicot/triplestore/layer"
)

const defaultCleanCacheBytes = 32 * 1024 * 1024

// DirectoryLayerStore mirrors LayerStore to a filesystem rooted at a path:
// each layer is a directory published by write-temp-then-rename (the same
// convention core/rawdb's freezer uses for its segment files), fronted by a
// clean fastcache of decompressed content bytes so repeat reads of a hot
// layer don't round-trip through the filesystem (triedb/pathdb/disklayer.go).
type DirectoryLayerStore struct {
	root  string
	clean *fastcache.Cache
}

// NewDirectoryLayerStore opens (creating if necessary) a directory-backed
// LayerStore rooted at root. cleanCacheBytes <= 0 uses a built-in default.
func NewDirectoryLayerStore(root string, cleanCacheBytes int) (*DirectoryLayerStore, error) {
	if cleanCacheBytes <= 0 {
		cleanCacheBytes = defaultCleanCacheBytes
	}
	if err := os.MkdirAll(filepath.Join(root, "layers"), 0o755); err != nil {
		return nil, err
	}
	return &DirectoryLayerStore{root: root, clean: fastcache.New(cleanCacheBytes)}, nil
}

func (s *DirectoryLayerStore) layerDir(name id160.ID) string {
	return filepath.Join(s.root, "layers", name.String())
}

func (s *DirectoryLayerStore) contentPath(dir string) string { return filepath.Join(dir, "content.bin") }
func (s *DirectoryLayerStore) metaPath(dir string) string    { return filepath.Join(dir, "meta.bin") }

func (s *DirectoryLayerStore) readRecord(name id160.ID) (layerRecord, bool, error) {
	if b, ok := s.clean.HasGet(nil, name[:]); ok {
		rec, err := decodeRecord(b)
		if err != nil {
			return layerRecord{}, false, err
		}
		return rec, true, nil
	}
	raw, err := os.ReadFile(s.contentPath(s.layerDir(name)))
	if errors.Is(err, os.ErrNotExist) {
		return layerRecord{}, false, nil
	}
	if err != nil {
		return layerRecord{}, false, err
	}
	gobBytes, err := snappy.Decode(nil, raw)
	if err != nil {
		return layerRecord{}, false, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	s.clean.Set(name[:], gobBytes)
	rec, err := decodeRecord(gobBytes)
	if err != nil {
		return layerRecord{}, false, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return rec, true, nil
}

func (s *DirectoryLayerStore) CreateBaseLayer(ctx context.Context) (*layer.LayerBuilder, error) {
	return layer.NewBuilder(id160.New(), nil), nil
}

func (s *DirectoryLayerStore) CreateChildLayer(ctx context.Context, parentName id160.ID) (*layer.LayerBuilder, error) {
	parent, ok, err := s.GetLayer(ctx, parentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return layer.NewBuilder(id160.New(), parent), nil
}

// publish writes l's content and meta files to a sibling temp directory and
// renames it into place, the sole atomic moment l becomes visible to
// readers.
func (s *DirectoryLayerStore) publish(l *layer.Layer) error {
	gobBytes, err := encodeRecord(recordFromLayer(l))
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, gobBytes)

	layersDir := filepath.Join(s.root, "layers")
	tmpDir, err := os.MkdirTemp(layersDir, ".tmp-*")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.contentPath(tmpDir), compressed, 0o644); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	var metaBytes []byte
	if parentName, ok := l.ParentName(); ok {
		metaBytes = parentName[:]
	}
	if err := os.WriteFile(s.metaPath(tmpDir), metaBytes, 0o644); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	finalDir := s.layerDir(l.Name())
	if err := os.Rename(tmpDir, finalDir); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	name := l.Name()
	s.clean.Set(name[:], gobBytes)
	xlog.Debug("published layer", "name", l.Name(), "additions", l.TripleAdditionCount(), "removals", l.TripleRemovalCount())
	return nil
}

func (s *DirectoryLayerStore) CommitBuilder(ctx context.Context, b *layer.LayerBuilder) (*layer.Layer, error) {
	l, err := b.Commit()
	if err != nil {
		return nil, err
	}
	if err := s.publish(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *DirectoryLayerStore) insertLayer(ctx context.Context, l *layer.Layer) error {
	return s.publish(l)
}

func (s *DirectoryLayerStore) GetLayer(ctx context.Context, name id160.ID) (*layer.Layer, bool, error) {
	rec, ok, err := s.readRecord(name)
	if err != nil || !ok {
		return nil, ok, err
	}
	var parent *layer.Layer
	if rec.ParentName != nil {
		p, ok, err := s.GetLayer(ctx, *rec.ParentName)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fmt.Errorf("%w: dangling parent %s for layer %s", ErrNotFound, *rec.ParentName, name)
		}
		parent = p
	}
	return rec.toLayer(parent), true, nil
}

func (s *DirectoryLayerStore) ParentName(ctx context.Context, name id160.ID) (id160.ID, bool, error) {
	b, err := os.ReadFile(s.metaPath(s.layerDir(name)))
	if errors.Is(err, os.ErrNotExist) {
		return id160.Zero, false, nil
	}
	if err != nil {
		return id160.Zero, false, err
	}
	if len(b) == 0 {
		return id160.Zero, false, nil
	}
	var id id160.ID
	copy(id[:], b)
	return id, true, nil
}

func (s *DirectoryLayerStore) LayerIsAncestorOf(ctx context.Context, candidate, anchor id160.ID) (bool, error) {
	return AncestorWalk(ctx, s, candidate, anchor)
}

func (s *DirectoryLayerStore) ExportLayers(ctx context.Context, names []id160.ID) ([]byte, error) {
	return exportLayers(ctx, s, names)
}

func (s *DirectoryLayerStore) ImportLayers(ctx context.Context, pack []byte, names []id160.ID) error {
	return importLayers(ctx, s, pack, names)
}

// labelFile is the on-disk JSON shape of a label record.
type labelFile struct {
	Version uint64
	Layer   string // hex, empty means nil
}

func toLabelFile(l Label) labelFile {
	lf := labelFile{Version: l.Version}
	if l.Layer != nil {
		lf.Layer = l.Layer.String()
	}
	return lf
}

func fromLabelFile(name string, lf labelFile) (Label, error) {
	l := Label{Name: name, Version: lf.Version}
	if lf.Layer != "" {
		id, err := id160.Parse(lf.Layer)
		if err != nil {
			return Label{}, err
		}
		l.Layer = &id
	}
	return l, nil
}

// DirectoryLabelStore mirrors LabelStore to small per-label JSON files,
// each guarded during compare-and-set by a gofrs/flock exclusive lock on a
// sibling .lock file.
type DirectoryLabelStore struct {
	root string
}

// NewDirectoryLabelStore opens (creating if necessary) a directory-backed
// LabelStore rooted at root.
func NewDirectoryLabelStore(root string) (*DirectoryLabelStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "labels"), 0o755); err != nil {
		return nil, err
	}
	return &DirectoryLabelStore{root: root}, nil
}

func (s *DirectoryLabelStore) labelPath(name string) string {
	return filepath.Join(s.root, "labels", name+".label")
}

func (s *DirectoryLabelStore) lockPath(name string) string {
	return filepath.Join(s.root, "labels", name+".lock")
}

func (s *DirectoryLabelStore) readLabel(name string) (Label, bool, error) {
	b, err := os.ReadFile(s.labelPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return Label{}, false, nil
	}
	if err != nil {
		return Label{}, false, err
	}
	var lf labelFile
	if err := json.Unmarshal(b, &lf); err != nil {
		return Label{}, false, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	l, err := fromLabelFile(name, lf)
	return l, err == nil, err
}

func (s *DirectoryLabelStore) writeLabel(l Label) error {
	b, err := json.Marshal(toLabelFile(l))
	if err != nil {
		return err
	}
	labelsDir := filepath.Join(s.root, "labels")
	tmp, err := os.CreateTemp(labelsDir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.labelPath(l.Name))
}

func (s *DirectoryLabelStore) CreateLabel(ctx context.Context, name string) (Label, error) {
	fl := flock.New(s.lockPath(name))
	if err := fl.Lock(); err != nil {
		return Label{}, err
	}
	defer fl.Unlock()

	if _, ok, err := s.readLabel(name); err != nil {
		return Label{}, err
	} else if ok {
		return Label{}, ErrAlreadyExists
	}
	l := Label{Name: name, Version: 0}
	if err := s.writeLabel(l); err != nil {
		return Label{}, err
	}
	return l, nil
}

func (s *DirectoryLabelStore) GetLabel(ctx context.Context, name string) (Label, bool, error) {
	return s.readLabel(name)
}

func (s *DirectoryLabelStore) SetLabel(ctx context.Context, old Label, newLayer *id160.ID) (Label, bool, error) {
	fl := flock.New(s.lockPath(old.Name))
	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return Label{}, false, err
	}
	if !locked {
		return Label{}, false, fmt.Errorf("storage: could not acquire label lock for %s", old.Name)
	}
	defer fl.Unlock()

	cur, ok, err := s.readLabel(old.Name)
	if err != nil {
		return Label{}, false, err
	}
	if !ok {
		return Label{}, false, ErrNotFound
	}
	if cur.Version != old.Version {
		xlog.Warn("label CAS lost the race", "label", old.Name, "have", cur.Version, "want", old.Version)
		return cur, false, nil
	}
	next := Label{Name: old.Name, Version: old.Version + 1, Layer: newLayer}
	if err := s.writeLabel(next); err != nil {
		return Label{}, false, err
	}
	return next, true, nil
}

package layer

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/nicot/triplestore/id160"
)

// stagedTriples is the mutable staging object a LayerBuilder holds until
// commit. Swapping the pointer to nil under the builder's lock is what
// makes a commit a single atomic handoff: only one caller can ever observe
// a non-nil staged and clear it.
type stagedTriples struct {
	additions mapset.Set[IdTriple]
	removals  mapset.Set[IdTriple]
}

// LayerBuilder is the mutable staging area that produces exactly one Layer.
// It may be shared across goroutines: every mutating call takes the
// exclusive lock, stages its change, and releases it before returning.
type LayerBuilder struct {
	mu     sync.Mutex
	name   id160.ID
	parent *Layer

	subjects   *dictionary
	predicates *dictionary
	objects    *objectDictionary

	staged *stagedTriples // nil once committed
}

// NewBuilder returns an Open builder named name, staging changes against
// parent (nil for a base layer). Dictionary ids continue from wherever
// parent's chain left off, so ids stay dense and unique across the whole
// chain.
func NewBuilder(name id160.ID, parent *Layer) *LayerBuilder {
	var sBase, pBase, oBase uint64
	if parent != nil {
		sBase = parent.subjects.nextID() - 1
		pBase = parent.predicates.nextID() - 1
		oBase = parent.objects.nextID() - 1
	}
	return &LayerBuilder{
		name:       name,
		parent:     parent,
		subjects:   newDictionary(sBase),
		predicates: newDictionary(pBase),
		objects:    newObjectDictionary(oBase),
		staged: &stagedTriples{
			additions: mapset.NewThreadUnsafeSet[IdTriple](),
			removals:  mapset.NewThreadUnsafeSet[IdTriple](),
		},
	}
}

// Name returns the id this builder will commit as.
func (b *LayerBuilder) Name() id160.ID { return b.name }

// Parent returns the parent Layer, if any.
func (b *LayerBuilder) Parent() (*Layer, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

// Committed reports whether Commit/CommitNoLoad has already consumed this
// builder's staging area.
func (b *LayerBuilder) Committed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.staged == nil
}

func (b *LayerBuilder) resolveSubject(s string) uint64 {
	if id, ok := b.subjects.idFor(s); ok {
		return id
	}
	if b.parent != nil {
		if id, ok := b.parent.SubjectID(s); ok {
			return id
		}
	}
	return b.subjects.add(s)
}

func (b *LayerBuilder) resolvePredicate(p string) uint64 {
	if id, ok := b.predicates.idFor(p); ok {
		return id
	}
	if b.parent != nil {
		if id, ok := b.parent.PredicateID(p); ok {
			return id
		}
	}
	return b.predicates.add(p)
}

func (b *LayerBuilder) resolveObject(o string, t ObjectType) uint64 {
	if id, ok := b.objects.idFor(o, t); ok {
		return id
	}
	if b.parent != nil {
		var id uint64
		var ok bool
		if t == ValueObject {
			id, ok = b.parent.ObjectValueID(o)
		} else {
			id, ok = b.parent.ObjectNodeID(o)
		}
		if ok {
			return id
		}
	}
	return b.objects.add(o, t)
}

func (b *LayerBuilder) lookupSubject(s string) (uint64, bool) {
	if id, ok := b.subjects.idFor(s); ok {
		return id, true
	}
	if b.parent != nil {
		return b.parent.SubjectID(s)
	}
	return 0, false
}

func (b *LayerBuilder) lookupPredicate(p string) (uint64, bool) {
	if id, ok := b.predicates.idFor(p); ok {
		return id, true
	}
	if b.parent != nil {
		return b.parent.PredicateID(p)
	}
	return 0, false
}

func (b *LayerBuilder) lookupObject(o string, t ObjectType) (uint64, bool) {
	if id, ok := b.objects.idFor(o, t); ok {
		return id, true
	}
	if b.parent != nil {
		if t == ValueObject {
			return b.parent.ObjectValueID(o)
		}
		return b.parent.ObjectNodeID(o)
	}
	return 0, false
}

// AddStringTriple stages t, interning any component string not yet known
// anywhere in the chain.
func (b *LayerBuilder) AddStringTriple(t StringTriple) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staged == nil {
		return ErrAlreadyCommitted
	}
	it := IdTriple{
		Subject:   b.resolveSubject(t.Subject),
		Predicate: b.resolvePredicate(t.Predicate),
		Object:    Object{Type: t.ObjectType, ID: b.resolveObject(t.Object, t.ObjectType)},
	}
	b.staged.removals.Remove(it)
	b.staged.additions.Add(it)
	return nil
}

// RemoveStringTriple stages the removal of t. A string that resolves to no
// id anywhere in the chain can't name an existing triple, so this is a
// silent no-op rather than an allocation.
func (b *LayerBuilder) RemoveStringTriple(t StringTriple) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staged == nil {
		return ErrAlreadyCommitted
	}
	s, ok := b.lookupSubject(t.Subject)
	if !ok {
		return nil
	}
	p, ok := b.lookupPredicate(t.Predicate)
	if !ok {
		return nil
	}
	o, ok := b.lookupObject(t.Object, t.ObjectType)
	if !ok {
		return nil
	}
	it := IdTriple{Subject: s, Predicate: p, Object: Object{Type: t.ObjectType, ID: o}}
	b.staged.additions.Remove(it)
	b.staged.removals.Add(it)
	return nil
}

func (b *LayerBuilder) subjectDefined(id uint64) bool {
	if _, ok := b.subjects.stringFor(id); ok {
		return true
	}
	if b.parent != nil {
		_, ok := b.parent.IDSubject(id)
		return ok
	}
	return false
}

func (b *LayerBuilder) predicateDefined(id uint64) bool {
	if _, ok := b.predicates.stringFor(id); ok {
		return true
	}
	if b.parent != nil {
		_, ok := b.parent.IDPredicate(id)
		return ok
	}
	return false
}

func (b *LayerBuilder) objectDefined(o Object) bool {
	if s, t, ok := b.objects.stringFor(o.ID); ok {
		return t == o.Type && s != ""
	}
	if b.parent != nil {
		_, t, ok := b.parent.IDObject(o.ID)
		return ok && t == o.Type
	}
	return false
}

func (b *LayerBuilder) idTripleDefined(t IdTriple) bool {
	return b.subjectDefined(t.Subject) && b.predicateDefined(t.Predicate) && b.objectDefined(t.Object)
}

// AddIDTriple stages t, which must already resolve against the ancestor
// chain or this builder's own pending dictionary.
func (b *LayerBuilder) AddIDTriple(t IdTriple) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staged == nil {
		return ErrAlreadyCommitted
	}
	if !b.idTripleDefined(t) {
		return ErrUnknownID
	}
	b.staged.removals.Remove(t)
	b.staged.additions.Add(t)
	return nil
}

// RemoveIDTriple stages the removal of t, which must already resolve.
func (b *LayerBuilder) RemoveIDTriple(t IdTriple) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.staged == nil {
		return ErrAlreadyCommitted
	}
	if !b.idTripleDefined(t) {
		return ErrUnknownID
	}
	b.staged.additions.Remove(t)
	b.staged.removals.Add(t)
	return nil
}

// Commit finalizes the builder, normalizing the staged additions/removals
// against the ancestor-effective set and returning the
// resulting immutable Layer. A builder may commit exactly once; later
// calls return ErrAlreadyCommitted.
func (b *LayerBuilder) Commit() (*Layer, error) {
	b.mu.Lock()
	if b.staged == nil {
		b.mu.Unlock()
		return nil, ErrAlreadyCommitted
	}
	staged := b.staged
	b.staged = nil
	b.mu.Unlock()

	rawAdds := staged.additions.ToSlice()
	rawRems := staged.removals.ToSlice()

	adds := make([]IdTriple, 0, len(rawAdds))
	for _, t := range rawAdds {
		if b.parent == nil || !b.parent.TripleExists(t) {
			adds = append(adds, t)
		}
	}
	rems := make([]IdTriple, 0, len(rawRems))
	for _, t := range rawRems {
		if b.parent != nil && b.parent.TripleExists(t) {
			rems = append(rems, t)
		}
	}
	sort.Sort(bySPO(adds))
	sort.Sort(bySPO(rems))

	spo, p, o := buildEffective(b.parent, adds, rems)

	var parentName *id160.ID
	if b.parent != nil {
		n := b.parent.Name()
		parentName = &n
	}

	return &Layer{
		name:             b.name,
		parentName:       parentName,
		parent:           b.parent,
		subjects:         b.subjects,
		predicates:       b.predicates,
		objects:          b.objects,
		additions:        adds,
		removals:         rems,
		additionSet:      toSet(adds),
		removalSet:       toSet(rems),
		rawAdditionCount: len(rawAdds),
		rawRemovalCount:  len(rawRems),
		effectiveSPO:     spo,
		effectiveP:       p,
		effectiveO:       o,
	}, nil
}

package layer

import (
	"sort"

	"github.com/nicot/triplestore/id160"
)

// Layer is an immutable view of one layer's dictionaries and its additions
// and removals relative to an optional parent. It plays the role
// triedb/pathdb splits across diskLayer/diffLayer, collapsed here into one
// type distinguished by whether parent is nil: a base layer is just a layer
// with no parent rather than a separate sum-type variant.
type Layer struct {
	name       id160.ID
	parentName *id160.ID
	parent     *Layer

	subjects   *dictionary
	predicates *dictionary
	objects    *objectDictionary

	additions []IdTriple // this layer's own, sorted (s,p,o), post-normalization
	removals  []IdTriple

	additionSet map[IdTriple]struct{}
	removalSet  map[IdTriple]struct{}

	rawAdditionCount int // what the builder staged, before commit-time dedup
	rawRemovalCount  int

	effectiveSPO []IdTriple // whole-chain effective set, sorted (s,p,o)
	effectiveP   []IdTriple // same set sorted (p,s,o)
	effectiveO   []IdTriple // same set sorted (o,s,p)
}

// Name returns this layer's content-addressed id.
func (l *Layer) Name() id160.ID { return l.name }

// ParentName returns the parent's id, if any.
func (l *Layer) ParentName() (id160.ID, bool) {
	if l.parentName == nil {
		return id160.Zero, false
	}
	return *l.parentName, true
}

// Parent returns the parent Layer value, if any. Parent and ParentName are
// always set together: both LayerBuilder.Commit and FromParts derive the
// parent name from the parent value, so storage backends resolve the parent
// before reconstructing a Layer.
func (l *Layer) Parent() (*Layer, bool) {
	if l.parent == nil {
		return nil, false
	}
	return l.parent, true
}

// SubjectID resolves a subject string to its id, searching this layer then
// recursing into ancestors.
func (l *Layer) SubjectID(s string) (uint64, bool) {
	if id, ok := l.subjects.idFor(s); ok {
		return id, true
	}
	if l.parent != nil {
		return l.parent.SubjectID(s)
	}
	return 0, false
}

// PredicateID resolves a predicate string to its id.
func (l *Layer) PredicateID(p string) (uint64, bool) {
	if id, ok := l.predicates.idFor(p); ok {
		return id, true
	}
	if l.parent != nil {
		return l.parent.PredicateID(p)
	}
	return 0, false
}

// ObjectNodeID resolves a node-object string to its id.
func (l *Layer) ObjectNodeID(o string) (uint64, bool) {
	if id, ok := l.objects.idFor(o, NodeObject); ok {
		return id, true
	}
	if l.parent != nil {
		return l.parent.ObjectNodeID(o)
	}
	return 0, false
}

// ObjectValueID resolves a value-object string to its id.
func (l *Layer) ObjectValueID(o string) (uint64, bool) {
	if id, ok := l.objects.idFor(o, ValueObject); ok {
		return id, true
	}
	if l.parent != nil {
		return l.parent.ObjectValueID(o)
	}
	return 0, false
}

// IDSubject resolves a subject id back to its string.
func (l *Layer) IDSubject(id uint64) (string, bool) {
	if s, ok := l.subjects.stringFor(id); ok {
		return s, true
	}
	if l.parent != nil {
		return l.parent.IDSubject(id)
	}
	return "", false
}

// IDPredicate resolves a predicate id back to its string.
func (l *Layer) IDPredicate(id uint64) (string, bool) {
	if p, ok := l.predicates.stringFor(id); ok {
		return p, true
	}
	if l.parent != nil {
		return l.parent.IDPredicate(id)
	}
	return "", false
}

// IDObject resolves an object id back to its string and type.
func (l *Layer) IDObject(id uint64) (string, ObjectType, bool) {
	if s, t, ok := l.objects.stringFor(id); ok {
		return s, t, true
	}
	if l.parent != nil {
		return l.parent.IDObject(id)
	}
	return "", NodeObject, false
}

// TripleExists reports whether t is in this layer's effective triple set.
func (l *Layer) TripleExists(t IdTriple) bool {
	i := sort.Search(len(l.effectiveSPO), func(i int) bool { return !l.effectiveSPO[i].Less(t) })
	return i < len(l.effectiveSPO) && l.effectiveSPO[i] == t
}

// TripleAdditionExists reports whether t was added by this layer
// specifically (not an ancestor).
func (l *Layer) TripleAdditionExists(t IdTriple) bool {
	_, ok := l.additionSet[t]
	return ok
}

// TripleRemovalExists reports whether t was removed by this layer
// specifically.
func (l *Layer) TripleRemovalExists(t IdTriple) bool {
	_, ok := l.removalSet[t]
	return ok
}

// Triples enumerates this layer's whole effective set, sorted (s,p,o).
func (l *Layer) Triples() *TripleIterator { return newTripleIterator(l.effectiveSPO) }

// TripleAdditions enumerates only the triples added by this layer.
func (l *Layer) TripleAdditions() *TripleIterator { return newTripleIterator(l.additions) }

// TripleRemovals enumerates only the triples removed by this layer.
func (l *Layer) TripleRemovals() *TripleIterator { return newTripleIterator(l.removals) }

func subjectRange(ts []IdTriple, s uint64) []IdTriple {
	lo := sort.Search(len(ts), func(i int) bool { return ts[i].Subject >= s })
	hi := sort.Search(len(ts), func(i int) bool { return ts[i].Subject > s })
	return ts[lo:hi]
}

// TriplesS enumerates the effective set restricted to subject s, sorted
// (s,p,o).
func (l *Layer) TriplesS(s uint64) *TripleIterator {
	return newTripleIterator(subjectRange(l.effectiveSPO, s))
}

// TriplesSP enumerates the effective set restricted to (subject, predicate).
func (l *Layer) TriplesSP(s, p uint64) *TripleIterator {
	base := subjectRange(l.effectiveSPO, s)
	lo := sort.Search(len(base), func(i int) bool { return base[i].Predicate >= p })
	hi := sort.Search(len(base), func(i int) bool { return base[i].Predicate > p })
	return newTripleIterator(base[lo:hi])
}

// TriplesP enumerates the effective set restricted to predicate p, sorted
// (p,s,o).
func (l *Layer) TriplesP(p uint64) *TripleIterator {
	lo := sort.Search(len(l.effectiveP), func(i int) bool { return l.effectiveP[i].Predicate >= p })
	hi := sort.Search(len(l.effectiveP), func(i int) bool { return l.effectiveP[i].Predicate > p })
	return newTripleIterator(l.effectiveP[lo:hi])
}

// TriplesO enumerates the effective set restricted to object o, sorted
// (o,s,p).
func (l *Layer) TriplesO(o Object) *TripleIterator {
	less := func(a, b Object) bool {
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	}
	lo := sort.Search(len(l.effectiveO), func(i int) bool { return !less(l.effectiveO[i].Object, o) })
	hi := sort.Search(len(l.effectiveO), func(i int) bool { return less(o, l.effectiveO[i].Object) })
	return newTripleIterator(l.effectiveO[lo:hi])
}

// LookupSubject enumerates the same triples as TriplesS, as a plain
// TripleIterator; there is no separate per-key lookup type.
func (l *Layer) LookupSubject(s uint64) *TripleIterator { return l.TriplesS(s) }

// LookupPredicate enumerates the same triples as TriplesP.
func (l *Layer) LookupPredicate(p uint64) *TripleIterator { return l.TriplesP(p) }

// LookupObject enumerates the same triples as TriplesO.
func (l *Layer) LookupObject(o Object) *TripleIterator { return l.TriplesO(o) }

// TripleAdditionCount returns the number of triples this layer adds, after
// commit-time normalization against the ancestor-effective set.
func (l *Layer) TripleAdditionCount() int { return len(l.additions) }

// TripleRemovalCount returns the number of triples this layer removes,
// after normalization.
func (l *Layer) TripleRemovalCount() int { return len(l.removals) }

// TripleLayerAdditionCount returns the raw count the builder staged before
// normalization, which may exceed TripleAdditionCount if redundant
// additions were dropped.
func (l *Layer) TripleLayerAdditionCount() int { return l.rawAdditionCount }

// TripleLayerRemovalCount returns the raw count the builder staged before
// normalization.
func (l *Layer) TripleLayerRemovalCount() int { return l.rawRemovalCount }

// Counts aggregates addition/removal counts over an entire chain.
type Counts struct {
	NodeAndValueCount int
	PredicateCount    int
	AdditionCount     int
	RemovalCount      int
}

// AllCounts walks the parent chain and totals counts across every layer.
func (l *Layer) AllCounts() Counts {
	var c Counts
	for cur := l; cur != nil; cur = cur.parent {
		c.NodeAndValueCount += cur.subjects.len() + cur.objects.len()
		c.PredicateCount += cur.predicates.len()
		c.AdditionCount += cur.TripleAdditionCount()
		c.RemovalCount += cur.TripleRemovalCount()
	}
	return c
}

// buildEffective folds parent.effectiveSPO with this layer's own
// additions/removals and produces the three canonically-sorted
// projections used by the Triples* query family. Called once, at
// construction time, since a Layer is immutable thereafter.
func buildEffective(parent *Layer, additions, removals []IdTriple) (spo, p, o []IdTriple) {
	var base []IdTriple
	if parent != nil {
		base = parent.effectiveSPO
	}
	merged := make(map[IdTriple]struct{}, len(base)+len(additions))
	for _, t := range base {
		merged[t] = struct{}{}
	}
	for _, t := range removals {
		delete(merged, t)
	}
	for _, t := range additions {
		merged[t] = struct{}{}
	}
	spo = make([]IdTriple, 0, len(merged))
	for t := range merged {
		spo = append(spo, t)
	}
	sort.Sort(bySPO(spo))

	p = append([]IdTriple(nil), spo...)
	sort.Sort(byPredicate(p))

	o = append([]IdTriple(nil), spo...)
	sort.Sort(byObject(o))
	return spo, p, o
}

func toSet(ts []IdTriple) map[IdTriple]struct{} {
	m := make(map[IdTriple]struct{}, len(ts))
	for _, t := range ts {
		m[t] = struct{}{}
	}
	return m
}

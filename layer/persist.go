package layer

import "github.com/nicot/triplestore/id160"

// ObjectEntry is one exported (string, type) pair from an object
// dictionary, used by storage backends to serialize a layer without
// reaching into its unexported fields.
type ObjectEntry struct {
	String string
	Type   ObjectType
}

// LocalSubjects returns a copy of this layer's own subject dictionary
// entries, in id order (ignoring ancestors).
func (l *Layer) LocalSubjects() []string { return append([]string(nil), l.subjects.reverse...) }

// LocalPredicates returns a copy of this layer's own predicate dictionary
// entries, in id order.
func (l *Layer) LocalPredicates() []string { return append([]string(nil), l.predicates.reverse...) }

// LocalObjects returns a copy of this layer's own object dictionary
// entries, in id order.
func (l *Layer) LocalObjects() []ObjectEntry {
	out := make([]ObjectEntry, len(l.objects.reverse))
	for i, o := range l.objects.reverse {
		out[i] = ObjectEntry{String: l.objects.reverseBy[i], Type: o.Type}
	}
	return out
}

// SubjectBase, PredicateBase, ObjectBase return the numeric offset this
// layer's local dictionaries start from, needed to reconstruct them.
func (l *Layer) SubjectBase() uint64   { return l.subjects.base }
func (l *Layer) PredicateBase() uint64 { return l.predicates.base }
func (l *Layer) ObjectBase() uint64    { return l.objects.base }

// FromParts reconstructs a Layer from its serializable parts: the
// mechanism storage backends use to rebuild a Layer from a persisted
// record or an imported pack entry without depending on layer's
// unexported representation. additions/removals must already be the
// normalized (post-commit) sets; callers that hold raw builder output
// should go through LayerBuilder.Commit instead.
func FromParts(
	name id160.ID,
	parent *Layer,
	subjectBase, predicateBase, objectBase uint64,
	subjects, predicates []string,
	objects []ObjectEntry,
	additions, removals []IdTriple,
	rawAdditionCount, rawRemovalCount int,
) *Layer {
	sd := newDictionary(subjectBase)
	for _, s := range subjects {
		sd.add(s)
	}
	pd := newDictionary(predicateBase)
	for _, p := range predicates {
		pd.add(p)
	}
	od := newObjectDictionary(objectBase)
	for _, o := range objects {
		od.add(o.String, o.Type)
	}

	var parentName *id160.ID
	if parent != nil {
		n := parent.Name()
		parentName = &n
	}

	spo, p, o := buildEffective(parent, additions, removals)

	return &Layer{
		name:             name,
		parentName:       parentName,
		parent:           parent,
		subjects:         sd,
		predicates:       pd,
		objects:          od,
		additions:        additions,
		removals:         removals,
		additionSet:      toSet(additions),
		removalSet:       toSet(removals),
		rawAdditionCount: rawAdditionCount,
		rawRemovalCount:  rawRemovalCount,
		effectiveSPO:     spo,
		effectiveP:       p,
		effectiveO:       o,
	}
}

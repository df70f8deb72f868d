// Package layer implements the core layer engine: immutable Layer values,
// the LayerBuilder staging protocol, and the dictionaries and triple sets
// they're built from.
package layer

import "fmt"

// ObjectType distinguishes a resource-node object from a literal-value
// object. Subjects and predicates are always nodes.
type ObjectType uint8

const (
	NodeObject ObjectType = iota
	ValueObject
)

func (t ObjectType) String() string {
	if t == ValueObject {
		return "value"
	}
	return "node"
}

// Object is the tagged (type, id) pair a triple's object resolves to within
// one layer's merged id space.
type Object struct {
	Type ObjectType
	ID   uint64
}

// IdTriple is a triple expressed entirely in one layer's merged id space.
// It is comparable, which lets it live directly in a golang-set Set.
type IdTriple struct {
	Subject   uint64
	Predicate uint64
	Object    Object
}

// Less gives IdTriples the canonical (s, p, o) order enumeration uses.
func (t IdTriple) Less(o IdTriple) bool {
	if t.Subject != o.Subject {
		return t.Subject < o.Subject
	}
	if t.Predicate != o.Predicate {
		return t.Predicate < o.Predicate
	}
	if t.Object.Type != o.Object.Type {
		return t.Object.Type < o.Object.Type
	}
	return t.Object.ID < o.Object.ID
}

func (t IdTriple) String() string {
	return fmt.Sprintf("(%d, %d, %s:%d)", t.Subject, t.Predicate, t.Object.Type, t.Object.ID)
}

// StringTriple is a triple expressed in human-readable string form, the
// shape callers stage against a LayerBuilder.
type StringTriple struct {
	Subject    string
	Predicate  string
	Object     string
	ObjectType ObjectType
}

func (t StringTriple) String() string {
	return fmt.Sprintf("(%s, %s, %s:%s)", t.Subject, t.Predicate, t.ObjectType, t.Object)
}

// byPredicate orders a slice of IdTriple by predicate first, matching the order
// TriplesP enumerates in.
type byPredicate []IdTriple

func (s byPredicate) Len() int      { return len(s) }
func (s byPredicate) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byPredicate) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.Predicate != b.Predicate {
		return a.Predicate < b.Predicate
	}
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	if a.Object.Type != b.Object.Type {
		return a.Object.Type < b.Object.Type
	}
	return a.Object.ID < b.Object.ID
}

// byObject orders a slice of IdTriple by object first, matching the order
// TriplesO enumerates in.
type byObject []IdTriple

func (s byObject) Len() int      { return len(s) }
func (s byObject) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byObject) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.Object.Type != b.Object.Type {
		return a.Object.Type < b.Object.Type
	}
	if a.Object.ID != b.Object.ID {
		return a.Object.ID < b.Object.ID
	}
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}
	return a.Predicate < b.Predicate
}

// bySPO orders a slice of IdTriple by (s, p, o), the default enumeration
// order.
type bySPO []IdTriple

func (s bySPO) Len() int      { return len(s) }
func (s bySPO) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s bySPO) Less(i, j int) bool { return s[i].Less(s[j]) }

// Package testutil provides seeded-random generators for tests across the
// module, printing the seed on first use so a failure can be reproduced.
package testutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	mrand "math/rand"
	"sync"

	"github.com/nicot/triplestore/layer"
)

var (
	once sync.Once
	src  *mrand.Rand
	seed int64
)

// Rand returns the package-wide seeded random source, lazily seeded from
// crypto/rand on first use and printing the seed it picked.
func Rand() *mrand.Rand {
	once.Do(func() {
		n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
		if err != nil {
			panic(err)
		}
		seed = n.Int64()
		fmt.Printf("testutil: random seed %d\n", seed)
		src = mrand.New(mrand.NewSource(seed))
	})
	return src
}

// Seed returns the seed the package-wide source was initialized with,
// forcing initialization if it hasn't happened yet.
func Seed() int64 {
	Rand()
	return seed
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns a random identifier-ish string of length n.
func RandomString(n int) string {
	r := Rand()
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

// RandomStringTriple returns a random StringTriple, picking a value object
// roughly a third of the time.
func RandomStringTriple() layer.StringTriple {
	r := Rand()
	t := layer.StringTriple{
		Subject:   "s_" + RandomString(8),
		Predicate: "p_" + RandomString(6),
		Object:    "o_" + RandomString(10),
	}
	if r.Intn(3) == 0 {
		t.ObjectType = layer.ValueObject
	} else {
		t.ObjectType = layer.NodeObject
	}
	return t
}

// RandomStringTriples returns n random triples drawn from a small shared
// vocabulary of subjects/predicates so that overlapping layers are likely,
// which exercises dictionary dedup and chain-semantics tests better than
// fully disjoint triples would.
func RandomStringTriples(n int) []layer.StringTriple {
	r := Rand()
	subjects := make([]string, 8)
	for i := range subjects {
		subjects[i] = "s_" + RandomString(6)
	}
	predicates := make([]string, 4)
	for i := range predicates {
		predicates[i] = "p_" + RandomString(4)
	}
	out := make([]layer.StringTriple, n)
	for i := range out {
		ot := layer.NodeObject
		if r.Intn(3) == 0 {
			ot = layer.ValueObject
		}
		out[i] = layer.StringTriple{
			Subject:    subjects[r.Intn(len(subjects))],
			Predicate:  predicates[r.Intn(len(predicates))],
			Object:     "o_" + RandomString(10),
			ObjectType: ot,
		}
	}
	return out
}

// RandomUint64 returns a random uint64 via the package source.
func RandomUint64() uint64 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(Rand().Int63()))
	return binary.BigEndian.Uint64(b[:])
}

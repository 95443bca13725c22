package weighttree

import (
	"math/rand"
	"testing"
)

// naiveForest mirrors WeightTree with direct parent-pointer walks. It is the
// reference model the randomized tests check against.
type naiveForest struct {
	parent []int
	value  []int64
}

func newNaiveForest() *naiveForest {
	return &naiveForest{}
}

func (f *naiveForest) makeTree(v int) {
	for len(f.parent) <= v {
		f.parent = append(f.parent, nilNode)
		f.value = append(f.value, 0)
	}
	f.parent[v] = nilNode
	f.value[v] = 0
}

func (f *naiveForest) link(parent, v int) {
	f.parent[v] = parent
}

func (f *naiveForest) pathApply(v int, delta int64) {
	for x := v; x != nilNode; x = f.parent[x] {
		f.value[x] += delta
	}
}

func (f *naiveForest) get(v int) int64 {
	return f.value[v]
}

func TestWeightTreeChain(t *testing.T) {
	wt := New(8)
	for i := 0; i < 8; i++ {
		wt.MakeTree(i)
		if i > 0 {
			wt.Link(i-1, i)
		}
	}

	// Adding weight at the deepest node must reach every ancestor.
	wt.PathApply(7, 5)
	for i := 0; i < 8; i++ {
		if got := wt.Get(i); got != 5 {
			t.Errorf("Get(%d) after deep PathApply: got %d, want 5", i, got)
		}
	}

	// Adding weight in the middle must not touch deeper nodes.
	wt.PathApply(3, 2)
	for i := 0; i < 8; i++ {
		want := int64(5)
		if i <= 3 {
			want = 7
		}
		if got := wt.Get(i); got != want {
			t.Errorf("Get(%d) after mid PathApply: got %d, want %d", i, got, want)
		}
	}
}

func TestWeightTreeBranching(t *testing.T) {
	// Tree:       0
	//           /   \
	//          1     2
	//         / \     \
	//        3   4     5
	wt := New(6)
	for i := 0; i < 6; i++ {
		wt.MakeTree(i)
	}
	wt.Link(0, 1)
	wt.Link(0, 2)
	wt.Link(1, 3)
	wt.Link(1, 4)
	wt.Link(2, 5)

	for i := 0; i < 6; i++ {
		wt.PathApply(i, 1)
	}

	wants := []int64{6, 3, 2, 1, 1, 1}
	for i, want := range wants {
		if got := wt.Get(i); got != want {
			t.Errorf("Get(%d): got %d, want %d", i, got, want)
		}
	}
}

func TestWeightTreeSet(t *testing.T) {
	wt := New(3)
	for i := 0; i < 3; i++ {
		wt.MakeTree(i)
		if i > 0 {
			wt.Link(i-1, i)
		}
	}
	wt.PathApply(2, 10)
	wt.Set(1, 4)

	if got := wt.Get(1); got != 4 {
		t.Errorf("Get(1) after Set: got %d, want 4", got)
	}
	if got := wt.Get(0); got != 10 {
		t.Errorf("Get(0) after Set(1): got %d, want 10", got)
	}
	if got := wt.Get(2); got != 10 {
		t.Errorf("Get(2) after Set(1): got %d, want 10", got)
	}
}

func TestWeightTreeRandomized(t *testing.T) {
	const (
		numNodes = 500
		numOps   = 5000
	)
	prng := rand.New(rand.NewSource(2718))

	wt := New(numNodes)
	ref := newNaiveForest()
	wt.MakeTree(0)
	ref.makeTree(0)
	size := 1

	for op := 0; op < numOps; op++ {
		switch r := prng.Intn(10); {
		case r < 3 && size < numNodes:
			parent := prng.Intn(size)
			wt.MakeTree(size)
			ref.makeTree(size)
			wt.Link(parent, size)
			ref.link(parent, size)
			size++
		case r < 7:
			v := prng.Intn(size)
			delta := int64(prng.Intn(100) - 20)
			wt.PathApply(v, delta)
			ref.pathApply(v, delta)
		default:
			v := prng.Intn(size)
			if got, want := wt.Get(v), ref.get(v); got != want {
				t.Fatalf("op %d: Get(%d): got %d, want %d", op, v, got, want)
			}
		}
	}

	for v := 0; v < size; v++ {
		if got, want := wt.Get(v), ref.get(v); got != want {
			t.Errorf("final Get(%d): got %d, want %d", v, got, want)
		}
	}
}

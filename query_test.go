package hive

import (
	"sort"
	"testing"
)

func TestQuery2IntersectsTwoStorages(t *testing.T) {
	w := NewWorld()
	a, _ := w.Spawn()
	b, _ := w.Spawn()
	c, _ := w.Spawn()

	AddComponent(w, a, position{1, 0})
	AddComponent(w, b, position{2, 0})
	AddComponent(w, c, position{3, 0})
	AddComponent(w, a, velocity{1, 1})
	AddComponent(w, c, velocity{3, 3})

	q, err := FetchQuery2[position, velocity](w.Storages(), 0)
	if err != nil {
		t.Fatalf("FetchQuery2() = %v", err)
	}
	defer q.Release()

	var got []EntityID
	for id, p, v := range q.All() {
		got = append(got, id)
		if p.x != v.dx {
			t.Fatalf("mismatched pair for %v: pos=%v vel=%v", id, p, v)
		}
	}

	want := []EntityID{a, c}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Query2.All() ids = %v, want %v", got, want)
	}
}

func TestQuery2StopsEarlyOnFalseYield(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 5; i++ {
		id, _ := w.Spawn()
		AddComponent(w, id, position{i, 0})
		AddComponent(w, id, velocity{i, 0})
	}

	q, _ := FetchQuery2[position, velocity](w.Storages(), 0)
	defer q.Release()

	count := 0
	for range q.All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (early break should stop iteration)", count)
	}
}

type tag struct{}

func TestQuery2Without1ExcludesTaggedEntities(t *testing.T) {
	w := NewWorld()
	tagged, _ := w.Spawn()
	untagged, _ := w.Spawn()

	for _, id := range []EntityID{tagged, untagged} {
		AddComponent(w, id, position{1, 0})
		AddComponent(w, id, velocity{1, 0})
	}
	AddComponent(w, tagged, tag{})

	q, err := FetchQuery2Without1[position, velocity, tag](w.Storages(), 0)
	if err != nil {
		t.Fatalf("FetchQuery2Without1() = %v", err)
	}
	defer q.Release()

	var got []EntityID
	for id := range q.All() {
		got = append(got, id)
	}
	if len(got) != 1 || got[0] != untagged {
		t.Fatalf("Query2Without1.All() ids = %v, want [%v]", got, untagged)
	}
}

type spin struct{ angle int }

func TestQuery3IntersectsThreeStorages(t *testing.T) {
	w := NewWorld()
	full, _ := w.Spawn()
	partial, _ := w.Spawn()

	AddComponent(w, full, position{0, 0})
	AddComponent(w, full, velocity{0, 0})
	AddComponent(w, full, spin{90})

	AddComponent(w, partial, position{0, 0})
	AddComponent(w, partial, velocity{0, 0})

	q, err := FetchQuery3[position, velocity, spin](w.Storages(), 0)
	if err != nil {
		t.Fatalf("FetchQuery3() = %v", err)
	}
	defer q.Release()

	var got []EntityID
	for id := range q.All() {
		got = append(got, id)
	}
	if len(got) != 1 || got[0] != full {
		t.Fatalf("Query3.All() ids = %v, want [%v]", got, full)
	}
}

func TestUnionIDsCombinesBothStoragesWithoutDuplicates(t *testing.T) {
	w := NewWorld()
	both, _ := w.Spawn()
	onlyA, _ := w.Spawn()
	onlyB, _ := w.Spawn()

	AddComponent(w, both, position{0, 0})
	AddComponent(w, both, velocity{0, 0})
	AddComponent(w, onlyA, position{0, 0})
	AddComponent(w, onlyB, velocity{0, 0})

	va, _ := FetchView[position](w.Storages(), 0)
	defer va.Release()
	vb, _ := FetchView[velocity](w.Storages(), 0)
	defer vb.Release()

	ids := UnionIDs(va, vb)
	if len(ids) != 3 {
		t.Fatalf("UnionIDs() returned %d ids, want 3", len(ids))
	}
	seen := map[EntityID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range []EntityID{both, onlyA, onlyB} {
		if !seen[id] {
			t.Fatalf("UnionIDs() missing %v", id)
		}
	}
}

package hive

import "testing"

func TestViewReadAfterViewMutRelease(t *testing.T) {
	storages := NewAtomicRefCell(NewAllStorages())
	as := storages.Get()
	GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})

	vm, err := FetchViewMut[position](storages, 0, 1)
	if err != nil {
		t.Fatalf("FetchViewMut() = %v", err)
	}
	id := EntityID(0)
	vm.Insert(id, position{1, 2})
	vm.Release()

	v, err := FetchView[position](storages, 0)
	if err != nil {
		t.Fatalf("FetchView() after release = %v", err)
	}
	defer v.Release()
	p, ok := v.Get(id)
	if !ok || *p != (position{1, 2}) {
		t.Fatalf("Get() = (%v, %v), want ({1 2}, true)", p, ok)
	}
}

func TestTwoSharedViewsCoexist(t *testing.T) {
	storages := NewAtomicRefCell(NewAllStorages())
	GetOrInsertStorage[position](storages.Get(), 0, AnyThread, TrackingFlags{})

	v1, err := FetchView[position](storages, 0)
	if err != nil {
		t.Fatalf("FetchView() #1 = %v", err)
	}
	v2, err := FetchView[position](storages, 0)
	if err != nil {
		t.Fatalf("FetchView() #2 = %v", err)
	}
	v1.Release()
	v2.Release()
}

func TestViewMutExcludesView(t *testing.T) {
	storages := NewAtomicRefCell(NewAllStorages())
	GetOrInsertStorage[position](storages.Get(), 0, AnyThread, TrackingFlags{})

	vm, err := FetchViewMut[position](storages, 0, 1)
	if err != nil {
		t.Fatalf("FetchViewMut() = %v", err)
	}
	defer vm.Release()

	if _, err := FetchView[position](storages, 0); err == nil {
		t.Fatalf("FetchView() while ViewMut is held should fail")
	}
}

func TestAllStoragesViewMutExcludesUnrelatedView(t *testing.T) {
	storages := NewAtomicRefCell(NewAllStorages())
	GetOrInsertStorage[position](storages.Get(), 0, AnyThread, TrackingFlags{})

	asvm, err := FetchAllStoragesViewMut(storages)
	if err != nil {
		t.Fatalf("FetchAllStoragesViewMut() = %v", err)
	}
	defer asvm.Release()

	if _, err := FetchView[position](storages, 0); err == nil {
		t.Fatalf("FetchView() while AllStoragesViewMut is held should fail, since both borrow the outer cell")
	}
}

func TestBorrowInfoConflictRules(t *testing.T) {
	posShared := View[position]{}.BorrowInfo()
	posExclusive := ViewMut[position]{}.BorrowInfo()
	velShared := View[velocity]{}.BorrowInfo()
	allShared := AllStoragesView{}.BorrowInfo()
	allExclusive := AllStoragesViewMut{}.BorrowInfo()

	cases := []struct {
		name     string
		a, b     BorrowInfo
		conflict bool
	}{
		{"shared+shared same storage", posShared, posShared, false},
		{"shared+exclusive same storage", posShared, posExclusive, true},
		{"exclusive+exclusive same storage", posExclusive, posExclusive, true},
		{"different storages", posShared, velShared, false},
		{"all-shared + unrelated view", allShared, velShared, false},
		{"all-exclusive + unrelated view", allExclusive, velShared, true},
		{"all-shared + all-exclusive", allShared, allExclusive, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := borrowsConflict(c.a, c.b); got != c.conflict {
				t.Fatalf("borrowsConflict(%v, %v) = %v, want %v", c.a, c.b, got, c.conflict)
			}
		})
	}
}

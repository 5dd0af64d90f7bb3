package hive

import "testing"

type gameClock struct{ tick int }

func TestUniqueStorageAddThenFetchView(t *testing.T) {
	as := NewAllStorages()
	if err := AddUniqueStorage(as, gameClock{tick: 1}); err != nil {
		t.Fatalf("AddUniqueStorage() = %v", err)
	}

	cell, err := uniqueCell[gameClock](as)
	if err != nil {
		t.Fatalf("uniqueCell() = %v", err)
	}
	g, err := cell.TryBorrow()
	if err != nil {
		t.Fatalf("TryBorrow() = %v", err)
	}
	defer g.Release()
	if g.Get().tick != 1 {
		t.Fatalf("unique value = %+v, want tick 1", *g.Get())
	}
}

func TestUniqueStorageAddTwiceReplacesValue(t *testing.T) {
	as := NewAllStorages()
	AddUniqueStorage(as, gameClock{tick: 1})
	if err := AddUniqueStorage(as, gameClock{tick: 2}); err != nil {
		t.Fatalf("AddUniqueStorage() second call = %v", err)
	}

	cell, _ := uniqueCell[gameClock](as)
	g, _ := cell.TryBorrow()
	defer g.Release()
	if g.Get().tick != 2 {
		t.Fatalf("unique value = %+v, want tick 2 after replacing", *g.Get())
	}
}

func TestUniqueCellMissingReportsStorageMissingError(t *testing.T) {
	as := NewAllStorages()
	if _, err := uniqueCell[gameClock](as); err == nil {
		t.Fatalf("uniqueCell() on an unregistered unique storage should fail")
	} else if _, ok := err.(StorageMissingError); !ok {
		t.Fatalf("uniqueCell() error = %T, want StorageMissingError", err)
	}
}

func TestRemoveUniqueStorageDropsIt(t *testing.T) {
	as := NewAllStorages()
	AddUniqueStorage(as, gameClock{tick: 5})

	value, ok, err := RemoveUniqueStorage[gameClock](as)
	if err != nil {
		t.Fatalf("RemoveUniqueStorage() = %v", err)
	}
	if !ok || value.tick != 5 {
		t.Fatalf("RemoveUniqueStorage() = (%+v, %v), want ({5}, true)", value, ok)
	}

	if _, err := uniqueCell[gameClock](as); err == nil {
		t.Fatalf("uniqueCell() after RemoveUniqueStorage should fail")
	}
}

func TestRemoveUniqueStorageMissingReportsNotOk(t *testing.T) {
	as := NewAllStorages()
	_, ok, err := RemoveUniqueStorage[gameClock](as)
	if err != nil {
		t.Fatalf("RemoveUniqueStorage() = %v", err)
	}
	if ok {
		t.Fatalf("RemoveUniqueStorage() on an unregistered unique storage should report false")
	}
}

func TestUniqueStorageDistinctFromComponentStorageOfSameType(t *testing.T) {
	if storageIDFor[gameClock]() == uniqueStorageID[gameClock]() {
		t.Fatalf("uniqueStorageID[T]() must not collide with storageIDFor[T]()")
	}
}

func TestFetchUniqueViewAndViewMutThroughWorld(t *testing.T) {
	w := NewWorld()
	if err := AddUnique(w, gameClock{tick: 10}); err != nil {
		t.Fatalf("AddUnique() = %v", err)
	}

	v, err := FetchUniqueView[gameClock](w.Storages())
	if err != nil {
		t.Fatalf("FetchUniqueView() = %v", err)
	}
	if v.Get().tick != 10 {
		t.Fatalf("UniqueView.Get() = %+v, want tick 10", v.Get())
	}
	v.Release()

	vm, err := FetchUniqueViewMut[gameClock](w.Storages())
	if err != nil {
		t.Fatalf("FetchUniqueViewMut() = %v", err)
	}
	vm.Set(gameClock{tick: 11})
	vm.Release()

	v2, _ := FetchUniqueView[gameClock](w.Storages())
	defer v2.Release()
	if v2.Get().tick != 11 {
		t.Fatalf("UniqueView.Get() after Set() = %+v, want tick 11", v2.Get())
	}
}

func TestWorldRemoveUniqueReturnsFinalValueAndClearsStorage(t *testing.T) {
	w := NewWorld()
	AddUnique(w, gameClock{tick: 7})

	value, ok, err := RemoveUnique[gameClock](w)
	if err != nil {
		t.Fatalf("RemoveUnique() = %v", err)
	}
	if !ok || value.tick != 7 {
		t.Fatalf("RemoveUnique() = (%+v, %v), want ({7}, true)", value, ok)
	}

	if _, err := FetchUniqueView[gameClock](w.Storages()); err == nil {
		t.Fatalf("FetchUniqueView() after RemoveUnique should fail")
	}
}

func TestUniqueViewMutExcludesUniqueView(t *testing.T) {
	w := NewWorld()
	AddUnique(w, gameClock{tick: 1})

	vm, err := FetchUniqueViewMut[gameClock](w.Storages())
	if err != nil {
		t.Fatalf("FetchUniqueViewMut() = %v", err)
	}
	defer vm.Release()

	if _, err := FetchUniqueView[gameClock](w.Storages()); err == nil {
		t.Fatalf("FetchUniqueView() while UniqueViewMut is held should fail")
	}
}

func TestUniqueBorrowInfoDeclaresItsOwnStorageID(t *testing.T) {
	shared := UniqueView[gameClock]{}.BorrowInfo()
	exclusive := UniqueViewMut[gameClock]{}.BorrowInfo()

	if shared.Storage != uniqueStorageID[gameClock]() {
		t.Fatalf("UniqueView.BorrowInfo().Storage = %v, want uniqueStorageID[gameClock]()", shared.Storage)
	}
	if !borrowsConflict(shared, exclusive) {
		t.Fatalf("UniqueView and UniqueViewMut of the same type should conflict")
	}
	if borrowsConflict(shared, View[gameClock]{}.BorrowInfo()) {
		t.Fatalf("a unique storage's BorrowInfo must not collide with the sparse-set storage of the same type")
	}
}

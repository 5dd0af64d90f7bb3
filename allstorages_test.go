package hive

import "testing"

type position struct{ x, y int }
type velocity struct{ dx, dy int }

func TestAllStoragesGetOrInsertIsIdempotent(t *testing.T) {
	as := NewAllStorages()

	cell1, err := GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})
	if err != nil {
		t.Fatalf("GetOrInsertStorage() = %v", err)
	}
	cell2, err := GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})
	if err != nil {
		t.Fatalf("GetOrInsertStorage() second call = %v", err)
	}
	if cell1 != cell2 {
		t.Fatalf("GetOrInsertStorage() returned distinct cells for the same type")
	}
}

func TestAllStoragesBorrowMissingStorage(t *testing.T) {
	as := NewAllStorages()

	if _, err := BorrowStorage[position](as, 0); err == nil {
		t.Fatalf("BorrowStorage() on unregistered type should fail")
	} else if _, ok := err.(StorageMissingError); !ok {
		t.Fatalf("BorrowStorage() error = %T, want StorageMissingError", err)
	}
}

func TestAllStoragesThreadAffinity(t *testing.T) {
	as := NewAllStorages()

	if _, err := GetOrInsertStorage[position](as, 1, OriginThreadOnly, TrackingFlags{}); err != nil {
		t.Fatalf("GetOrInsertStorage() = %v", err)
	}

	if _, err := BorrowStorage[position](as, 1); err != nil {
		t.Fatalf("BorrowStorage() from owning thread = %v", err)
	}

	if _, err := BorrowStorage[position](as, 2); err == nil {
		t.Fatalf("BorrowStorage() from a different thread should fail for a pinned storage")
	} else if _, ok := err.(WrongThreadError); !ok {
		t.Fatalf("BorrowStorage() error = %T, want WrongThreadError", err)
	}
}

func TestAllStoragesDeleteEntityStripsAllStorages(t *testing.T) {
	as := NewAllStorages()
	eg, _ := as.BorrowEntitiesMut()
	id := eg.Get().Spawn()
	eg.Release()

	posCell, _ := GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})
	velCell, _ := GetOrInsertStorage[velocity](as, 0, AnyThread, TrackingFlags{})

	pg, _ := posCell.TryBorrowMut()
	pg.Get().Insert(id, position{1, 2}, 1)
	pg.Release()

	vg, _ := velCell.TryBorrowMut()
	vg.Get().Insert(id, velocity{3, 4}, 1)
	vg.Release()

	if !as.DeleteEntity(id) {
		t.Fatalf("DeleteEntity() = false, want true")
	}

	pg2, _ := posCell.TryBorrow()
	if pg2.Get().Contains(id) {
		t.Fatalf("position storage still contains id after DeleteEntity")
	}
	pg2.Release()

	vg2, _ := velCell.TryBorrow()
	if vg2.Get().Contains(id) {
		t.Fatalf("velocity storage still contains id after DeleteEntity")
	}
	vg2.Release()

	eg2, _ := as.BorrowEntities()
	if eg2.Get().IsAlive(id) {
		t.Fatalf("entity still reported alive after DeleteEntity")
	}
	eg2.Release()
}

func TestAllStoragesStripKeepsEntityAlive(t *testing.T) {
	as := NewAllStorages()
	eg, _ := as.BorrowEntitiesMut()
	id := eg.Get().Spawn()
	eg.Release()

	posCell, _ := GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})
	pg, _ := posCell.TryBorrowMut()
	pg.Get().Insert(id, position{1, 2}, 1)
	pg.Release()

	as.Strip(id)

	pg2, _ := posCell.TryBorrow()
	if pg2.Get().Contains(id) {
		t.Fatalf("position storage still contains id after Strip")
	}
	pg2.Release()

	eg2, _ := as.BorrowEntities()
	if !eg2.Get().IsAlive(id) {
		t.Fatalf("entity reported dead after Strip, want alive")
	}
	eg2.Release()
}

func TestDeleteAnyDrainsOneStorageOnly(t *testing.T) {
	as := NewAllStorages()
	eg, _ := as.BorrowEntitiesMut()
	id := eg.Get().Spawn()
	eg.Release()

	posCell, _ := GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})
	velCell, _ := GetOrInsertStorage[velocity](as, 0, AnyThread, TrackingFlags{})

	pg, _ := posCell.TryBorrowMut()
	pg.Get().Insert(id, position{1, 2}, 1)
	pg.Release()

	vg, _ := velCell.TryBorrowMut()
	vg.Get().Insert(id, velocity{3, 4}, 1)
	vg.Release()

	DeleteAny[position](as)

	pg2, _ := posCell.TryBorrow()
	if pg2.Get().Contains(id) {
		t.Fatalf("position storage still contains id after DeleteAny")
	}
	pg2.Release()

	vg2, _ := velCell.TryBorrow()
	if !vg2.Get().Contains(id) {
		t.Fatalf("velocity storage lost its component after DeleteAny on a different type")
	}
	vg2.Release()
}

func TestRemoveStorageDropsFromRegistry(t *testing.T) {
	as := NewAllStorages()
	GetOrInsertStorage[position](as, 0, AnyThread, TrackingFlags{})

	if _, err := RemoveStorage[position](as); err != nil {
		t.Fatalf("RemoveStorage() = %v", err)
	}

	if _, err := BorrowStorage[position](as, 0); err == nil {
		t.Fatalf("BorrowStorage() after RemoveStorage should fail")
	}
}

package hive

import "testing"

func TestCacheBasicOperations(t *testing.T) {
	const capacity = 10
	cache := NewCache[string](capacity)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	indices := make([]int, len(items))
	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Fatalf("Register(%s) = %v", item, err)
		}
		if index != i+1 {
			t.Fatalf("Register(%s) index = %d, want %d", item, index, i+1)
		}
		indices[i] = index
	}

	t.Run("GetIndex", func(t *testing.T) {
		for i, item := range items {
			if index, found := cache.GetIndex(item); !found || index != indices[i] {
				t.Errorf("GetIndex(%s) = (%d, %v), want (%d, true)", item, index, found, indices[i])
			}
		}
		if _, found := cache.GetIndex("nonexistent"); found {
			t.Errorf("GetIndex(nonexistent) found an unregistered key")
		}
	})

	t.Run("GetItem", func(t *testing.T) {
		for i, item := range items {
			if got := *cache.GetItem(indices[i]); got != item {
				t.Errorf("GetItem(%d) = %s, want %s", indices[i], got, item)
			}
		}
	})

	t.Run("GetItem32", func(t *testing.T) {
		for i, item := range items {
			if got := *cache.GetItem32(uint32(indices[i])); got != item {
				t.Errorf("GetItem32(%d) = %s, want %s", indices[i], got, item)
			}
		}
	})
}

func TestCacheCapacity(t *testing.T) {
	const capacity = 5
	cache := NewCache[int](capacity)

	for i := 1; i <= capacity; i++ {
		key := "item" + string(rune(i+'0'))
		if _, err := cache.Register(key, i); err != nil {
			t.Errorf("Failed to register item %s: %v", key, err)
		}
	}

	if _, err := cache.Register("overflow", 100); err == nil {
		t.Errorf("Expected error when exceeding cache capacity, but got none")
	}
}

func TestCacheReregisterKeepsIndex(t *testing.T) {
	cache := NewCache[int](5)

	idx, err := cache.Register("a", 1)
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}
	idx2, err := cache.Register("a", 2)
	if err != nil {
		t.Fatalf("Register() second call = %v", err)
	}
	if idx != idx2 {
		t.Fatalf("Register() changed the index on re-registration: %d vs %d", idx, idx2)
	}
	if got := *cache.GetItem(idx); got != 2 {
		t.Fatalf("GetItem() = %d, want 2 after re-registration", got)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache[string](10)

	items := []string{"item1", "item2", "item3"}
	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("Failed to register item %s: %v", item, err)
		}
	}

	cache.Clear()

	for _, item := range items {
		if _, found := cache.GetIndex(item); found {
			t.Errorf("Item %s still found after cache clear", item)
		}
	}

	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("Failed to register item %s after clear: %v", item, err)
		}
	}
}

func TestCacheWithStructValues(t *testing.T) {
	cache := NewCache[position](10)

	positions := []position{{1, 2}, {3, 4}, {5, 6}}
	keys := []string{"pos1", "pos2", "pos3"}

	for i, pos := range positions {
		if _, err := cache.Register(keys[i], pos); err != nil {
			t.Errorf("Failed to register position %v: %v", pos, err)
		}
	}

	for i, key := range keys {
		index, found := cache.GetIndex(key)
		if !found {
			t.Errorf("Position with key %s not found", key)
			continue
		}
		pos := cache.GetItem(index)
		if *pos != positions[i] {
			t.Errorf("Position at index %d is %v, expected %v", index, *pos, positions[i])
		}
	}
}

func TestCacheConcurrentReadsDuringWrites(t *testing.T) {
	cache := NewCache[int](100)

	initialIndex, err := cache.Register("item", 42)
	if err != nil {
		t.Fatalf("Failed to register initial item: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if item := *cache.GetItem(initialIndex); item != 42 {
				t.Errorf("Expected item value 42, got %d", item)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		key := "new_item" + string(rune(i+'0'))
		if _, err := cache.Register(key, i); err != nil {
			break
		}
	}

	<-done
}

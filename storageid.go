package hive

import (
	"fmt"
	"reflect"
)

// StorageID is the stable type-identity AllStorages keys its registry by,
// per spec.md §3/§4.4. Built-in storages are identified by the component
// type they hold; custom storages add a discriminant on top of their
// underlying Go type so two custom storages backed by the same Go type can
// still be told apart.
type StorageID struct {
	rtype      reflect.Type
	discrim    string
	allStorage bool
}

// allStoragesID is the distinguished sentinel standing for the registry
// itself, used by the scheduler to recognize AllStorages-exclusive access
// (spec.md §4.7/§8: "no system in the batch lists AllStorages").
var allStoragesID = StorageID{allStorage: true}

// storageIDFor returns the stable id for component type T.
func storageIDFor[T any]() StorageID {
	var zero T
	return StorageID{rtype: reflect.TypeOf(zero)}
}

// customStorageID builds a StorageID for a user-supplied storage kind that
// is not simply "the sparse set of T" — the "custom storages" escape hatch
// from spec.md §4.4/§9.
func customStorageID(rtype reflect.Type, discriminant string) StorageID {
	return StorageID{rtype: rtype, discrim: discriminant}
}

// uniqueStorageID returns the stable id for T's unique (singleton) storage
// — spec.md §3's "unique storage", addressed by type alone but kept
// distinct from T's sparse-set StorageID via the "unique" discriminant, so
// a component type can have both a sparse-set storage and a unique storage
// registered at once without colliding.
func uniqueStorageID[T any]() StorageID {
	var zero T
	return customStorageID(reflect.TypeOf(zero), "unique")
}

// IsAllStorages reports whether id is the registry-wide sentinel.
func (id StorageID) IsAllStorages() bool {
	return id.allStorage
}

func (id StorageID) String() string {
	if id.allStorage {
		return "AllStorages"
	}
	if id.discrim != "" {
		return fmt.Sprintf("%s#%s", id.rtype, id.discrim)
	}
	if id.rtype == nil {
		return "StorageID(nil)"
	}
	return id.rtype.String()
}

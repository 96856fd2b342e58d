package di

import (
	"fmt"
	"reflect"
	"strings"
)

// KeyOf derives a non-generic key from a named Go type: the package path
// and type name, prefixed with "*" for each pointer level.
//
//	di.KeyOf[*orders.PgRepo]()  // *example.com/orders.PgRepo
//
// KeyOf panics for unnamed types (slices, maps, funcs) and for instantiated
// generic Go types; describe those with Key and type arguments instead.
func KeyOf[T any]() TypeKey {
	return keyOfType(reflect.TypeOf((*T)(nil)).Elem())
}

func keyOfType(t reflect.Type) TypeKey {
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	name := t.Name()
	if name == "" || strings.ContainsRune(name, '[') {
		panic(fmt.Sprintf("di: KeyOf needs a named non-generic type, got %s", t))
	}
	if pkg := t.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}
	return Key(prefix + name)
}

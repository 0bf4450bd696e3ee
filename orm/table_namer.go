package orm

import "github.com/jankuo/personmap/internal/naming"

// TableNamer can be implemented by model structs to override the
// table name inferred from the type name.
type TableNamer interface {
	TableName() string
}

// ResolveTableName returns the table name for type T.
// If T implements TableNamer (value or pointer receiver), that name is used;
// otherwise the name is inferred from typeName: "Person" → "people",
// "Address" → "addresses".
func ResolveTableName[T any](typeName string) string {
	var zero T
	if tn, ok := any(&zero).(TableNamer); ok {
		return tn.TableName()
	}
	return naming.TableName(typeName)
}

package conform

// FieldType is a primitive type tag a caller can declare for an output field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

// ValidFieldType reports whether tag is one of the recognized type tags.
func ValidFieldType(tag string) bool {
	switch FieldType(tag) {
	case FieldString, FieldInteger, FieldNumber, FieldBoolean:
		return true
	}
	return false
}

// Field is a single declared output field.
type Field struct {
	Name string
	Type FieldType
}

// FieldSchema is an ordered mapping from field name to type tag. Order matters:
// serialized output keeps the declaration order from the caller's request.
type FieldSchema []Field

// Lookup returns the declared type for name.
func (s FieldSchema) Lookup(name string) (FieldType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

// Names returns the field names in declaration order.
func (s FieldSchema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

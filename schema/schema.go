package schema

import "encoding/json"

// Schema is the interface implemented by every payload exchanged between
// agents and capabilities.
type Schema interface {
	// Attachement returns the schema attachement
	Attachement() *Attachement
}

type SchemaPointer interface {
	Schema
	SetAttachement(*Attachement)
}

// Stringify renders a schema as text. Plain String schemas pass through,
// everything else is JSON encoded.
func Stringify(s Schema) string {
	if v, ok := s.(String); ok {
		return string(v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToBytes renders a schema as bytes, JSON encoded unless it is a String.
func ToBytes(s Schema) []byte {
	if v, ok := s.(String); ok {
		return []byte(v)
	}
	bs, _ := json.Marshal(s)
	return bs
}

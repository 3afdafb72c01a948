package schema

// String is a plain text schema
type String string

// NewString returns a String schema from plain text
func NewString(s string) String {
	return String(s)
}

func (s String) Attachement() *Attachement {
	return nil
}

func (s String) SetAttachement(v *Attachement) {
}

func (s String) String() string {
	return string(s)
}

func (s *String) Unmarshal(bs []byte) error {
	*s = String(bs)
	return nil
}

package results

// Value is an encoded binding value.
// Sealed: only String and Number implement it.
type Value interface {
	value() // Sealed
}

// String is a JSON string value.
type String string

func (String) value() {}

// Number is a JSON number held as its canonical text, so integers of any
// size survive without float rounding.
type Number string

func (Number) value() {}

// Field is one variable of a record.
type Field struct {
	Name  string
	Value Value
}

// Record is one solution. Fields follow the projected variable order and
// omit unbound variables.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

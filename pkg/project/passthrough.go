package project

// Passthrough is an ordered mapping of key to opaque raw text for data a
// format parser found but the canonical model has no slot for.
//
// Source names the format kind that produced the entries. Lead counts the
// entries that appeared before the first recognized section of the source
// document, so serializers can put them back on the same side of it.
// The zero value is an empty mapping.
type Passthrough struct {
	Source  string
	Lead    int
	Entries []Field
}

// Field is one passthrough entry.
type Field struct {
	Key   string
	Value string
}

// Len returns the number of entries.
func (p *Passthrough) Len() int { return len(p.Entries) }

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (p *Passthrough) Set(key, value string) {
	for i := range p.Entries {
		if p.Entries[i].Key == key {
			p.Entries[i].Value = value
			return
		}
	}
	p.Entries = append(p.Entries, Field{Key: key, Value: value})
}

// Keys returns the keys in insertion order.
func (p *Passthrough) Keys() []string {
	keys := make([]string, len(p.Entries))
	for i, f := range p.Entries {
		keys[i] = f.Key
	}
	return keys
}

// From reports whether the entries were produced by the given format.
// An empty mapping belongs to every format.
func (p *Passthrough) From(source string) bool {
	return len(p.Entries) == 0 || p.Source == source
}

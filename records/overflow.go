package records

import "encoding/json"

// Overflow is the ordered label→value side-map that captures everything the
// canonical dictionary does not. It is kept separate from the typed fields
// on purpose: forward compatibility lives here, and nothing is ever dropped.
// Repeating a key overwrites the value (last write) without disturbing the
// key's original position.
type Overflow struct {
	keys   []string
	values map[string]string
}

// NewOverflow returns an empty overflow map.
func NewOverflow() *Overflow {
	return &Overflow{values: map[string]string{}}
}

// Set records a value under key, last-write-wins.
func (o *Overflow) Set(key, value string) {
	if _, seen := o.values[key]; !seen {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value for key.
func (o *Overflow) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in first-insertion order.
func (o *Overflow) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Overflow) Len() int { return len(o.keys) }

// MarshalJSON emits the entries as a JSON object in insertion order.
func (o *Overflow) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON restores entries from a JSON object. Key order within the
// object is not recoverable from encoding/json, so restored overflow is
// ordered by Go's map iteration of the decoded object; callers that care
// about order keep records in memory, not round-tripped through JSON.
func (o *Overflow) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	o.keys = o.keys[:0]
	o.values = map[string]string{}
	for k, v := range m {
		o.Set(k, v)
	}
	return nil
}

package http1

// Fields is an insertion ordered multimap of header fields or query
// parameters. Keys are stored exactly as given; callers that need case
// folding lower-case before calling in. The zero value is ready to use.
type Fields struct {
	keys []string
	vals map[string][]string
}

// Add appends v to the values of k.
func (f *Fields) Add(k, v string) {
	if f.vals == nil {
		f.vals = make(map[string][]string)
	}
	vv, ok := f.vals[k]
	if !ok {
		f.keys = append(f.keys, k)
	}
	f.vals[k] = append(vv, v)
}

// Set replaces all values of k with v. A new key goes to the end.
func (f *Fields) Set(k, v string) {
	if _, ok := f.vals[k]; ok {
		f.vals[k] = []string{v}
		return
	}
	f.Add(k, v)
}

// Get returns the first value of k, or "".
func (f *Fields) Get(k string) string {
	if vv := f.vals[k]; len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns the values of k in insertion order. The slice is owned by f.
func (f *Fields) Values(k string) []string { return f.vals[k] }

func (f *Fields) Has(k string) bool {
	_, ok := f.vals[k]
	return ok
}

func (f *Fields) Del(k string) {
	if _, ok := f.vals[k]; !ok {
		return
	}
	delete(f.vals, k)
	for i, key := range f.keys {
		if key == k {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the distinct keys in the order they were first added.
func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len reports the number of distinct keys.
func (f *Fields) Len() int { return len(f.keys) }

// Each calls fn for every key/value pair, keys in insertion order and
// values in the order they were added.
func (f *Fields) Each(fn func(k, v string)) {
	for _, k := range f.keys {
		for _, v := range f.vals[k] {
			fn(k, v)
		}
	}
}

func (f *Fields) Reset() {
	f.keys = f.keys[:0]
	clear(f.vals)
}

// Map returns a copy as a plain map, mostly for comparisons in tests and
// for callers that do not care about key order.
func (f *Fields) Map() map[string][]string {
	m := make(map[string][]string, len(f.keys))
	for _, k := range f.keys {
		m[k] = append([]string(nil), f.vals[k]...)
	}
	return m
}

// appendLast appends s to the last value of k. It reports false when k has
// no values.
func (f *Fields) appendLast(k, s string) bool {
	vv := f.vals[k]
	if len(vv) == 0 {
		return false
	}
	vv[len(vv)-1] += s
	return true
}

func (f *Fields) replace(k string, vv []string) {
	f.vals[k] = vv
}

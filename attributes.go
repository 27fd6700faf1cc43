package ariahtml

import "golang.org/x/net/html"

// Attributes is an ordered list of ARIA attributes. The keys are stored
// without the "aria-" prefix, for example "pressed" or "label".
type Attributes []html.Attribute

// Attrs creates Attributes from key value pairs. A key without a value gets
// the empty string.
func Attrs(kv ...string) Attributes {
	var a Attributes
	for i := 0; i < len(kv); i += 2 {
		val := ""
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		a.Set(kv[i], val)
	}
	return a
}

// Set adds the key with the given value. If the key is already present, its
// value is replaced and the position is kept.
func (a *Attributes) Set(key, val string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Val = val
			return
		}
	}
	*a = append(*a, html.Attribute{Key: key, Val: val})
}

// Get returns the value of key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

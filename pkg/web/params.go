package web

import "strconv"

// Params holds path parameters extracted by the router, in the order they
// appear in the route pattern.
type Params []Param

// Param is a single path parameter (key/value pair).
type Param struct {
	Key   string
	Value string
}

// Get returns the value of the first parameter with the given key, or the
// empty string if no such parameter exists.
func (ps Params) Get(key string) string {
	for _, p := range ps {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Int returns the named parameter converted to an int. The boolean reports
// whether the parameter exists and parsed cleanly.
func (ps Params) Int(key string) (int, bool) {
	v, err := strconv.Atoi(ps.Get(key))
	return v, err == nil
}

// Int64 returns the named parameter converted to an int64. The boolean
// reports whether the parameter exists and parsed cleanly.
func (ps Params) Int64(key string) (int64, bool) {
	v, err := strconv.ParseInt(ps.Get(key), 10, 64)
	return v, err == nil
}

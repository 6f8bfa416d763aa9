package permission

import "sort"

// Grants maps capability keys to their boolean grant.
type Grants map[Key]bool

func (g Grants) Clone() Grants {
	if g == nil {
		return Grants{}
	}
	cloned := make(Grants, len(g))
	for key, value := range g {
		cloned[key] = value
	}
	return cloned
}

// Has is fail-closed: keys missing from the map or from the catalog are false.
func (g Grants) Has(key Key) bool {
	if !Exists(key) {
		return false
	}
	return g[key]
}

func (g Grants) CountTrue() int {
	count := 0
	for key, value := range g {
		if value && Exists(key) {
			count++
		}
	}
	return count
}

func (g Grants) Granted() []Key {
	result := make([]Key, 0, len(g))
	for key, value := range g {
		if value && Exists(key) {
			result = append(result, key)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Merge overlays updates onto a copy of g.
func (g Grants) Merge(updates Grants) Grants {
	merged := g.Clone()
	for key, value := range updates {
		merged[key] = value
	}
	return merged
}

// Sanitize keeps the entries of a decoded request whose key is in the catalog
// and whose value is a boolean; everything else is dropped.
func Sanitize(requested map[string]any) Grants {
	grants := make(Grants, len(requested))
	for rawKey, rawValue := range requested {
		key := Key(rawKey)
		if !Exists(key) {
			continue
		}
		value, ok := rawValue.(bool)
		if !ok {
			continue
		}
		grants[key] = value
	}
	return grants
}

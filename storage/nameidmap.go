package storage

import "github.com/est31/mimas-go/nameidmap"

const nameIDMapKey = "name_id_map"

// LoadNameIDMap restores the world's name-ID map from backend, or returns
// the builtin default set if none was ever stored (a fresh world).
func LoadNameIDMap(b Backend, builtins []string) (*nameidmap.Map, error) {
	raw, ok, err := b.GetGlobalKV(nameIDMapKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		m := nameidmap.New()
		for _, name := range builtins {
			if _, err := m.GetOrExtend(name); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	return nameidmap.Deserialize(raw)
}

// SaveNameIDMap persists m to backend.
func SaveNameIDMap(b Backend, m *nameidmap.Map) error {
	return b.SetGlobalKV(nameIDMapKey, m.Serialize())
}

package nameidmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// nameIDMapVersion is the only supported serialized format version.
const nameIDMapVersion = 0

// Serialize encodes the map as: version byte (0), u16 name count, then per
// name a u8 length followed by its UTF-8 bytes, in ID order. This is the
// format stored under the "name_id_map" global KV key.
func (m *Map) Serialize() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte(nameIDMapVersion)
	binary.Write(&buf, binary.BigEndian, uint16(len(m.idToName)))
	for _, name := range m.idToName {
		if len(name) > 255 {
			name = name[:255]
		}
		buf.WriteByte(byte(len(name)))
		buf.WriteString(name)
	}
	return buf.Bytes()
}

// Deserialize reconstructs a Map from Serialize's wire format. Names are
// renormalized (legacy "::" -> ":") and re-validated on load.
func Deserialize(data []byte) (*Map, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading name-id map version: %w", err)
	}
	if version != nameIDMapVersion {
		return nil, fmt.Errorf("unsupported name-id map version %d", version)
	}
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading name-id map count: %w", err)
	}
	m := New()
	for i := uint16(0); i < count; i++ {
		length, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading name length at index %d: %w", i, err)
		}
		nameBytes := make([]byte, length)
		if _, err := r.Read(nameBytes); err != nil {
			return nil, fmt.Errorf("reading name bytes at index %d: %w", i, err)
		}
		if _, err := m.GetOrExtend(string(nameBytes)); err != nil {
			return nil, fmt.Errorf("restoring name %q at index %d: %w", nameBytes, i, err)
		}
	}
	return m, nil
}

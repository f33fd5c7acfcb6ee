package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
	"github.com/klauspost/compress/gzip"
)

const chunkVersion = 1

// encodeChunk serializes a chunk as: version byte (1), gzip body of
// (4096 block-id bytes, u16 metadata count, per-entry [x,y,z,entry count
// (always 1),kind,payload]). Kind 0 is the only metadata kind, a container
// inventory.
func encodeChunk(data *world.ChunkData) ([]byte, error) {
	var body bytes.Buffer
	body.Write(data.Blocks[:])

	keys := data.MetaKeys()
	if len(keys) > 0xffff {
		return nil, fmt.Errorf("too many metadata entries in chunk: %d", len(keys))
	}
	binary.Write(&body, binary.BigEndian, uint16(len(keys)))
	for _, k := range keys {
		body.Write(k[:])
		body.WriteByte(1) // entries count, always 1 for now
		body.WriteByte(0) // kind 0: inventory
		entry := data.MetaAt(k[0], k[1], k[2])
		body.Write(entry.Inventory)
	}

	var out bytes.Buffer
	out.WriteByte(chunkVersion)
	gz, err := gzip.NewWriterLevel(&out, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(body.Bytes()); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// decodeChunk reverses encodeChunk. m validates that every stored block id
// is still registered.
func decodeChunk(raw []byte, m *nameidmap.Map) (*world.ChunkData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty chunk payload")
	}
	version := raw[0]
	if version > chunkVersion {
		return nil, fmt.Errorf("unsupported chunk version %d", version)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw[1:]))
	if err != nil {
		return nil, fmt.Errorf("opening chunk gzip body: %w", err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("reading chunk gzip body: %w", err)
	}
	r := bytes.NewReader(body)

	data := world.NewChunkData()
	if _, err := io.ReadFull(r, data.Blocks[:]); err != nil {
		return nil, fmt.Errorf("reading block array: %w", err)
	}
	for i, b := range data.Blocks {
		if _, ok := m.GetName(b); !ok {
			return nil, fmt.Errorf("block at index %d references unknown id %d", i, b)
		}
	}

	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading metadata count: %w", err)
	}
	for i := uint16(0); i < count; i++ {
		var pos [3]byte
		if _, err := io.ReadFull(r, pos[:]); err != nil {
			return nil, fmt.Errorf("reading metadata position %d: %w", i, err)
		}
		entriesCount, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading metadata entries count %d: %w", i, err)
		}
		if entriesCount > 1 {
			return nil, fmt.Errorf("too many metadata entries at slot %d: %d", i, entriesCount)
		}
		if entriesCount == 0 {
			continue
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading metadata kind %d: %w", i, err)
		}
		if kind != 0 {
			return nil, fmt.Errorf("unsupported metadata kind %d", kind)
		}
		inv, err := inventory.DeserializeReader(r, m)
		if err != nil {
			return nil, fmt.Errorf("reading inventory payload %d: %w", i, err)
		}
		data.SetMeta(pos[0], pos[1], pos[2], world.MetadataEntry{Inventory: inv.Serialize()})
	}
	return data, nil
}

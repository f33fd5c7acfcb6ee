package inventory

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
)

const inventoryVersion = 0

// Serialize encodes the inventory as: version byte (0), selection u16
// (0 = none, else index+1), stack count u16, then per stack (id:u8,
// count:u16) with count=0 denoting empty (id is then meaningless).
func (inv *SelectableInventory) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(inventoryVersion)

	selectionID := uint16(0)
	if inv.selection >= 0 {
		selectionID = uint16(inv.selection) + 1
	}
	binary.Write(&buf, binary.BigEndian, selectionID)
	binary.Write(&buf, binary.BigEndian, uint16(len(inv.stacks)))

	for _, s := range inv.stacks {
		block, count, ok := s.Content()
		if !ok {
			buf.WriteByte(0)
			binary.Write(&buf, binary.BigEndian, uint16(0))
			continue
		}
		buf.WriteByte(byte(block))
		binary.Write(&buf, binary.BigEndian, count)
	}
	return buf.Bytes()
}

// Deserialize decodes Serialize's wire format. m resolves stored numeric
// block IDs; an ID that is absent from m is a corrupt-save error.
func Deserialize(data []byte, m *nameidmap.Map) (*SelectableInventory, error) {
	return DeserializeReader(bytes.NewReader(data), m)
}

// DeserializeReader decodes Serialize's wire format from r, consuming
// exactly as many bytes as the encoded inventory occupies. This lets
// callers embed an inventory payload inside a larger self-delimited
// stream (e.g. chunk metadata) without knowing its length up front.
func DeserializeReader(rawR io.Reader, m *nameidmap.Map) (*SelectableInventory, error) {
	// Reuse rawR's own ReadByte when it has one (e.g. *bytes.Reader) so a
	// caller reading several self-delimited values in sequence from a
	// shared reader doesn't lose bytes to bufio's read-ahead buffering.
	var br io.ByteReader
	var r io.Reader
	if existing, ok := rawR.(io.ByteReader); ok {
		br = existing
		r = rawR
	} else {
		buffered := bufio.NewReader(rawR)
		br = buffered
		r = buffered
	}
	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading inventory version: %w", err)
	}
	if version != inventoryVersion {
		return nil, fmt.Errorf("unsupported inventory version %d", version)
	}
	var selectionID uint16
	if err := binary.Read(r, binary.BigEndian, &selectionID); err != nil {
		return nil, fmt.Errorf("reading inventory selection: %w", err)
	}
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading inventory stack count: %w", err)
	}
	stacks := make([]Stack, 0, count)
	for i := uint16(0); i < count; i++ {
		itemID, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading stack %d item id: %w", i, err)
		}
		var stackCount uint16
		if err := binary.Read(r, binary.BigEndian, &stackCount); err != nil {
			return nil, fmt.Errorf("reading stack %d count: %w", i, err)
		}
		if stackCount == 0 {
			stacks = append(stacks, Empty)
			continue
		}
		if _, ok := m.GetName(world.Block(itemID)); !ok {
			return nil, fmt.Errorf("stack %d references unknown block id %d", i, itemID)
		}
		stacks = append(stacks, With(world.Block(itemID), stackCount))
	}
	inv := FromStacks(stacks)
	if selectionID > 0 {
		inv.selection = int(selectionID) - 1
	}
	return inv, nil
}

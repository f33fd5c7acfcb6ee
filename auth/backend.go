package auth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/est31/mimas-go/world"
)

// PwHash is the stretched password hash stored on the server in place of
// an SRP verifier (see the package doc comment for the trade-off).
type PwHash struct {
	Salt []byte
	Hash []byte
}

// Backend is the nick<->PlayerID and password-hash persistence contract.
// Grounded on original_source/mehlon-server/local_auth.rs's AuthBackend
// trait.
type Backend interface {
	GetPlayerID(name string) (world.PlayerID, bool, error)
	GetPlayerName(id world.PlayerID) (string, bool, error)
	GetPlayerPwHash(id world.PlayerID) (PwHash, bool, error)
	SetPlayerPwHash(id world.PlayerID, pwh PwHash) error
	AddPlayer(name string, pwh PwHash) (world.PlayerID, error)
}

// BadgerBackend is the Badger-backed Backend implementation. Keys:
// "n2i/<lowercased nick>" -> id (8 bytes big-endian), "i2n/<id>" -> nick,
// "pwh/<id>" -> salt-length byte + salt + hash.
type BadgerBackend struct {
	db *badger.DB

	mu     sync.Mutex
	nextID uint64
}

// OpenBadger opens (or creates) the auth database at path.
func OpenBadger(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening auth badger db at %s: %w", path, err)
	}
	b := &BadgerBackend{db: db}
	if err := b.loadNextID(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *BadgerBackend) loadNextID() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("i2n/")
		it := txn.NewIterator(opts)
		defer it.Close()
		var max uint64
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().Key()
			id := string(key[len("i2n/"):])
			var n uint64
			fmt.Sscanf(id, "%d", &n)
			_, n = world.Decompose(n)
			if n >= max {
				max = n + 1
			}
		}
		b.nextID = max
		return nil
	})
}

func (b *BadgerBackend) Close() error { return b.db.Close() }

func nickKey(name string) []byte {
	return []byte("n2i/" + strings.ToLower(name))
}

func idKey(id world.PlayerID) []byte {
	return []byte(fmt.Sprintf("i2n/%d", id.Packed()))
}

func pwhKey(id world.PlayerID) []byte {
	return []byte(fmt.Sprintf("pwh/%d", id.Packed()))
}

// GetPlayerID implements Backend.
func (b *BadgerBackend) GetPlayerID(name string) (world.PlayerID, bool, error) {
	var packed uint64
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nickKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt nick->id entry for %q", name)
			}
			packed = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil || !found {
		return world.PlayerID{}, false, err
	}
	src, id := world.Decompose(packed)
	return world.PlayerID{Src: src, ID: id}, true, nil
}

// GetPlayerName implements Backend.
func (b *BadgerBackend) GetPlayerName(id world.PlayerID) (string, bool, error) {
	var name string
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	return name, found, err
}

// GetPlayerPwHash implements Backend.
func (b *BadgerBackend) GetPlayerPwHash(id world.PlayerID) (PwHash, bool, error) {
	var pwh PwHash
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pwhKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			decoded, err := decodePwHash(val)
			if err != nil {
				return err
			}
			pwh = decoded
			return nil
		})
	})
	return pwh, found, err
}

// SetPlayerPwHash implements Backend.
func (b *BadgerBackend) SetPlayerPwHash(id world.PlayerID, pwh PwHash) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pwhKey(id), encodePwHash(pwh))
	})
}

// AddPlayer implements Backend: it registers a brand-new nick, assigning
// the next free player ID under IDSrc 1 (matching the reference's
// id_src=1 for locally-authenticated players).
func (b *BadgerBackend) AddPlayer(name string, pwh PwHash) (world.PlayerID, error) {
	b.mu.Lock()
	id := world.PlayerID{Src: 1, ID: b.nextID}
	b.nextID++
	b.mu.Unlock()

	packed := make([]byte, 8)
	binary.BigEndian.PutUint64(packed, id.Packed())

	err := b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(nickKey(name), packed); err != nil {
			return err
		}
		if err := txn.Set(idKey(id), []byte(name)); err != nil {
			return err
		}
		return txn.Set(pwhKey(id), encodePwHash(pwh))
	})
	if err != nil {
		return world.PlayerID{}, err
	}
	return id, nil
}

func encodePwHash(pwh PwHash) []byte {
	out := make([]byte, 0, 1+len(pwh.Salt)+len(pwh.Hash))
	out = append(out, byte(len(pwh.Salt)))
	out = append(out, pwh.Salt...)
	out = append(out, pwh.Hash...)
	return out
}

func decodePwHash(raw []byte) (PwHash, error) {
	if len(raw) < 1 {
		return PwHash{}, fmt.Errorf("empty password hash record")
	}
	saltLen := int(raw[0])
	if len(raw) < 1+saltLen {
		return PwHash{}, fmt.Errorf("truncated password hash record")
	}
	salt := append([]byte(nil), raw[1:1+saltLen]...)
	hash := append([]byte(nil), raw[1+saltLen:]...)
	return PwHash{Salt: salt, Hash: hash}, nil
}

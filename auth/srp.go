// Package auth implements the nick/ID/password-hash persistence contract
// and the SRP-6a login exchange with SHA-256 over a 2048-bit group (the
// RFC 3526 group 14 MODP prime, g=5); the 4096-bit group is not used.
//
// Grounded on original_source/mehlon-server/local_auth.rs (the
// AuthBackend shape) and original_source/mimas-server/server.rs's
// handle_auth_msgs (the SRP message sequence and the documented decision
// to store the stretched password hash instead of the SRP verifier).
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// groupN4096Hex is the SRP group modulus. Despite its name it holds the
// 2048-bit MODP prime of RFC 3526 group 14, not a 4096-bit modulus.
const groupN4096Hex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
	"129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519" +
	"B3CD3A431B302B0A6DF25F14374FE1356D6D51C245E485B576625E7" +
	"EC6F44C42E9A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F" +
	"2411 7C4B1FE649286651ECE45B3DC2007CB8A163BF0598DA48361C" +
	"55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
	"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E" +
	"462E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C" +
	"52C9DE2BCBF6955817183995497CEA956AE515D2261898FA051015" +
	"728E5A8AACAA68FFFFFFFFFFFFFFFF"

var groupN *big.Int
var groupG = big.NewInt(5)
var groupK *big.Int

func init() {
	n, ok := new(big.Int).SetString(trimHex(groupN4096Hex), 16)
	if !ok {
		panic("invalid SRP group modulus")
	}
	groupN = n
	groupK = hashToInt(padTo(groupN, groupN), padTo(groupG, groupN))
}

func trimHex(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\t' {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// padTo left-pads v's big-endian bytes to the byte length of modulus N.
func padTo(v, n *big.Int) []byte {
	size := (n.BitLen() + 7) / 8
	b := v.Bytes()
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

func hashToInt(parts ...[]byte) *big.Int {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Server holds one in-progress SRP-6a exchange. It is constructed fresh
// per login attempt and discarded after Verify succeeds or fails.
type Server struct {
	n, g, k *big.Int
	v       *big.Int // verifier, derived from the stored password hash
	b       *big.Int // server's private ephemeral value
	bPub    *big.Int // server's public ephemeral value B
	aPub    *big.Int
}

// NewServer derives the verifier from storedHash (the stretched password
// hash kept in the auth backend, per the documented SRP deviation) and
// generates a fresh ephemeral keypair (b, B).
func NewServer(storedHash []byte, aPub *big.Int) (*Server, error) {
	if aPub.Sign() <= 0 || new(big.Int).Mod(aPub, groupN).Sign() == 0 {
		return nil, fmt.Errorf("invalid client public value A")
	}
	x := new(big.Int).SetBytes(storedHash)
	x.Mod(x, groupN)
	v := new(big.Int).Exp(groupG, x, groupN)

	bBytes := make([]byte, 64)
	if _, err := rand.Read(bBytes); err != nil {
		return nil, fmt.Errorf("generating SRP ephemeral value: %w", err)
	}
	b := new(big.Int).SetBytes(bBytes)
	b.Mod(b, groupN)

	// B = (k*v + g^b) mod N
	bPub := new(big.Int).Mul(groupK, v)
	bPub.Add(bPub, new(big.Int).Exp(groupG, b, groupN))
	bPub.Mod(bPub, groupN)

	return &Server{n: groupN, g: groupG, k: groupK, v: v, b: b, bPub: bPub, aPub: aPub}, nil
}

// BPub returns the server's public ephemeral value B, sent to the client
// alongside the stretching parameters.
func (s *Server) BPub() *big.Int {
	return s.bPub
}

// Verify checks the client's proof m1 against the session this Server was
// constructed for. On success it returns the shared session key.
func (s *Server) Verify(m1 []byte) (sessionKey []byte, err error) {
	u := hashToInt(padTo(s.aPub, s.n), padTo(s.bPub, s.n))
	if u.Sign() == 0 {
		return nil, fmt.Errorf("SRP scrambling parameter u is zero")
	}

	// S = (A * v^u)^b mod N
	vu := new(big.Int).Exp(s.v, u, s.n)
	base := new(big.Int).Mul(s.aPub, vu)
	base.Mod(base, s.n)
	sessionSecret := new(big.Int).Exp(base, s.b, s.n)

	k := sha256.Sum256(sessionSecret.Bytes())
	expectedM1 := hashToInt(padTo(s.aPub, s.n), padTo(s.bPub, s.n), k[:]).Bytes()

	if subtle.ConstantTimeCompare(expectedM1, m1) != 1 {
		return nil, fmt.Errorf("SRP verification failed: wrong password")
	}
	return k[:], nil
}

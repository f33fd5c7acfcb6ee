package auth

import (
	"fmt"
	"math/big"

	"github.com/est31/mimas-go/world"
)

// LoginStateKind names the state of one in-progress login, matching the
// reference's AuthState enum.
type LoginStateKind int

const (
	// Unauthenticated has not sent a LogIn message yet.
	Unauthenticated LoginStateKind = iota
	// NewUser has sent LogIn for a nick that has no existing account and
	// is expected to send back a stretched password hash to enroll.
	NewUser
	// WaitingForM1 has an SRP exchange in progress for an existing
	// account and is expected to send the client's proof m1.
	WaitingForM1
	// AddPlayer has passed authentication and is ready to be promoted to
	// a full connected player.
	AddPlayer
)

// LoginState is one connection's progress through the authentication
// handshake described in SPEC_FULL.md (unauthenticated -> new-user or
// waiting-for-M1 -> add-player).
type LoginState struct {
	Kind LoginStateKind

	Nick   string
	ID     world.PlayerID
	srp    *Server
}

// NewLoginState returns a fresh, unauthenticated login state for a newly
// connected socket.
func NewLoginState() *LoginState {
	return &LoginState{Kind: Unauthenticated}
}

// nickValid matches the reference's character whitelist: digits, ASCII
// letters, hyphen, underscore.
func nickValid(nick string) bool {
	if nick == "" {
		return false
	}
	for _, b := range []byte(nick) {
		switch {
		case b >= '0' && b <= '9':
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b == '-' || b == '_':
		default:
			return false
		}
	}
	return true
}

// HandleLogIn processes a LogIn(nick, A_pub) message. On an existing
// account it transitions to WaitingForM1 and returns the stretching
// parameters plus the server's SRP public value B, to be sent back to the
// client as HashParamsBpub. On a brand-new nick it transitions to NewUser
// and signals that a HashEnrollment message should be sent instead.
func (s *LoginState) HandleLogIn(backend Backend, nick string, aPub *big.Int) (pwh PwHash, bPub *big.Int, isNewUser bool, err error) {
	if !nickValid(nick) {
		return PwHash{}, nil, false, fmt.Errorf("invalid characters in nick %q", nick)
	}
	id, ok, err := backend.GetPlayerID(nick)
	if err != nil {
		return PwHash{}, nil, false, err
	}
	if !ok {
		s.Kind = NewUser
		s.Nick = nick
		return PwHash{}, nil, true, nil
	}
	stored, ok, err := backend.GetPlayerPwHash(id)
	if err != nil {
		return PwHash{}, nil, false, err
	}
	if !ok {
		return PwHash{}, nil, false, fmt.Errorf("no password hash stored for %q", nick)
	}
	srv, err := NewServer(stored.Hash, aPub)
	if err != nil {
		return PwHash{}, nil, false, err
	}
	s.Kind = WaitingForM1
	s.Nick = nick
	s.ID = id
	s.srp = srv
	return stored, srv.BPub(), false, nil
}

// HandleSendHash processes a SendHash(pwh) message sent by a NewUser
// enrolling for the first time. On success the connection transitions to
// AddPlayer.
func (s *LoginState) HandleSendHash(backend Backend, pwh PwHash) error {
	if s.Kind != NewUser {
		return fmt.Errorf("wrong auth state for SendHash")
	}
	id, err := backend.AddPlayer(s.Nick, pwh)
	if err != nil {
		return err
	}
	s.ID = id
	s.Kind = AddPlayer
	return nil
}

// HandleSendM1 processes a SendM1(m1) message sent by a WaitingForM1
// connection completing SRP. On success the connection transitions to
// AddPlayer.
func (s *LoginState) HandleSendM1(m1 []byte) error {
	if s.Kind != WaitingForM1 || s.srp == nil {
		return fmt.Errorf("wrong auth state for SendM1")
	}
	if _, err := s.srp.Verify(m1); err != nil {
		return fmt.Errorf("wrong password")
	}
	s.Kind = AddPlayer
	return nil
}

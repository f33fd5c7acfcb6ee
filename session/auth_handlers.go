package session

import (
	"github.com/est31/mimas-go/auth"
	"github.com/est31/mimas-go/transport"
	"github.com/est31/mimas-go/world"
)

type authVerdictKind int

const (
	verdictNone authVerdictKind = iota
	verdictAddAsPlayer
	verdictLogInFail
	verdictClose
)

type authVerdict struct {
	kind   authVerdictKind
	nick   string
	id     world.PlayerID
	reason string
}

// handleAuthMsgs drains every unauthenticated connection's queued
// messages, advancing its login state machine, matching the reference's
// handle_auth_msgs.
func (s *Server) handleAuthMsgs() {
	kept := s.unauth[:0]
	var toAdd []*unauthConn

	for _, uc := range s.unauth {
		verdict := s.driveAuthConn(uc)
		switch verdict.kind {
		case verdictAddAsPlayer:
			toAdd = append(toAdd, uc)
		case verdictLogInFail:
			_ = uc.c.send(TagLogInFail, LogInFailMsg{Reason: verdict.reason})
			uc.c.close()
		case verdictClose:
			uc.c.close()
		default:
			kept = append(kept, uc)
		}
	}
	s.unauth = kept

	for _, uc := range toAdd {
		s.addPlayerWaiting(uc.c, uc.state.ID, uc.state.Nick)
	}
}

// driveAuthConn processes every queued message for one unauthenticated
// connection and returns the terminal verdict, if any (verdictNone means
// "keep waiting").
func (s *Server) driveAuthConn(uc *unauthConn) authVerdict {
	for {
		e, ok := uc.c.tryRecv()
		if !ok {
			if uc.c.dead() {
				return authVerdict{kind: verdictClose}
			}
			return authVerdict{kind: verdictNone}
		}
		switch e.Tag {
		case TagLogIn:
			var m LogInMsg
			if err := decodeOrClose(uc.c, e, &m); err != nil {
				continue
			}
			pwh, bPub, isNewUser, err := uc.state.HandleLogIn(s.authBack, m.Nick, aPubFromBytes(m.APub))
			if err != nil {
				return authVerdict{kind: verdictLogInFail, reason: err.Error()}
			}
			if isNewUser {
				_ = uc.c.send(TagHashEnrollment, struct{}{})
				continue
			}
			_ = uc.c.send(TagHashParamsBpub, HashParamsBpubMsg{Salt: pwh.Salt, BPub: bPub.Bytes()})
		case TagSendHash:
			var m SendHashMsg
			if err := decodeOrClose(uc.c, e, &m); err != nil {
				continue
			}
			if err := uc.state.HandleSendHash(s.authBack, auth.PwHash{Salt: m.Salt, Hash: m.Hash}); err != nil {
				return authVerdict{kind: verdictLogInFail, reason: err.Error()}
			}
			if v, done := s.finishAuth(uc); done {
				return v
			}
		case TagSendM1:
			var m SendM1Msg
			if err := decodeOrClose(uc.c, e, &m); err != nil {
				continue
			}
			if err := uc.state.HandleSendM1(m.M1); err != nil {
				return authVerdict{kind: verdictLogInFail, reason: "Wrong password"}
			}
			if v, done := s.finishAuth(uc); done {
				return v
			}
		default:
			// Any other message before auth completes is ignored, matching
			// the reference's "ignore all other msgs".
		}
	}
}

// finishAuth is reached once a login state has transitioned to AddPlayer:
// it rejects a nick that's already connected, matching the reference's
// "check whether the same nick is already present on the server".
func (s *Server) finishAuth(uc *unauthConn) (authVerdict, bool) {
	if uc.state.Kind != auth.AddPlayer {
		return authVerdict{}, false
	}
	if _, already := s.players[uc.state.ID]; already {
		return authVerdict{kind: verdictLogInFail, reason: "Player already logged in"}, true
	}
	return authVerdict{kind: verdictAddAsPlayer, nick: uc.state.Nick, id: uc.state.ID}, true
}

// decodeOrClose decodes e's payload into v, logging and swallowing a
// malformed payload rather than tearing down the connection over it (the
// sender's half closing is the only thing that should drop a connection
// mid-handshake).
func decodeOrClose(c *conn, e transport.Envelope, v interface{}) error {
	if err := transport.Decode(e, v); err != nil {
		logf().WithField("conn", c.id).WithError(err).Warn("malformed handshake payload")
		return err
	}
	return nil
}

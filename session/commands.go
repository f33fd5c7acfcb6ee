package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/world"
)

// handleChat routes a chat message: a leading "/" dispatches to the
// command parser, everything else gets the sender's nick prefixed and
// goes to every player, matching the reference's Chat arm.
func (s *Server) handleChat(id world.PlayerID, p *player, text string) {
	if strings.HasPrefix(text, "/") {
		s.handleCommand(id, text)
		return
	}
	s.handleChatMsg(fmt.Sprintf("<%s> %s", p.nick, text))
}

// handleChatMsg broadcasts text to every connected player, matching the
// reference's handle_chat_msg.
func (s *Server) handleChatMsg(text string) {
	var dead []world.PlayerID
	for id, p := range s.players {
		if err := p.c.send(TagChat, ChatOutMsg{Text: text}); err != nil {
			dead = append(dead, id)
		}
	}
	s.closePlayers(dead)
}

// chatMsgFor sends text to exactly one player, matching the reference's
// chat_msg_for.
func (s *Server) chatMsgFor(id world.PlayerID, text string) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	if err := p.c.send(TagChat, ChatOutMsg{Text: text}); err != nil {
		s.closePlayers([]world.PlayerID{id})
	}
}

// handleCommand dispatches a "/command args..." chat line, matching the
// reference's handle_command.
func (s *Server) handleCommand(issuerID world.PlayerID, text string) {
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		s.chatMsgFor(issuerID, "Empty command.")
		return
	}
	command, args := fields[0], fields[1:]

	p, ok := s.players[issuerID]
	if !ok {
		return
	}

	switch command {
	case "info":
		s.chatMsgFor(issuerID, "mimas-go server")
	case "spawn":
		p.pos = DefaultPlayerPosition()
		if err := p.c.send(TagSetPos, SetPosMsg{Pos: p.pos}); err != nil {
			s.closePlayers([]world.PlayerID{issuerID})
		}
	case "gime":
		s.handleGime(issuerID, p, args)
	case "clear":
		s.handleClear(issuerID, p, args)
	default:
		s.chatMsgFor(issuerID, fmt.Sprintf("Unknown command %s", command))
	}
}

func (s *Server) handleGime(issuerID world.PlayerID, p *player, args []string) {
	if len(args) == 0 {
		s.chatMsgFor(issuerID, "No content to give specified")
		return
	}
	id, ok := s.nameMap.GetID(args[0])
	if !ok {
		s.chatMsgFor(issuerID, fmt.Sprintf("Invalid item %s", args[0]))
		return
	}
	count := uint16(1)
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			count = uint16(n)
		}
	}
	s.chatMsgFor(issuerID, fmt.Sprintf("Giving %d of %s", count, s.params.Block(id).Name))
	p.inv.Put(inventory.With(id, count))
	if err := p.c.send(TagSetInventory, toWireInventory(p.inv)); err != nil {
		s.closePlayers([]world.PlayerID{issuerID})
	}
}

func (s *Server) handleClear(issuerID world.PlayerID, p *player, args []string) {
	if len(args) == 0 {
		s.chatMsgFor(issuerID, "Invalid clearing command.")
		return
	}
	switch args[0] {
	case "sel", "selection":
		s.chatMsgFor(issuerID, "Clearing selection")
		sel := p.inv.Selection()
		if sel < 0 {
			return
		}
		p.inv.SetSlot(sel, inventory.Empty)
	case "inv", "inventory":
		s.chatMsgFor(issuerID, "Clearing inventory")
		for i := 0; i < p.inv.Len(); i++ {
			p.inv.SetSlot(i, inventory.Empty)
		}
	default:
		s.chatMsgFor(issuerID, "Invalid clearing command.")
		return
	}
	if err := p.c.send(TagSetInventory, toWireInventory(p.inv)); err != nil {
		s.closePlayers([]world.PlayerID{issuerID})
	}
}

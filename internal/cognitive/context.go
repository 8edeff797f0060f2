package cognitive

import (
	"fmt"

	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
)

// Conversation is the append-only message log owned by one run. Appends are
// checked so a tool result can only answer a pending call of the latest
// assistant message, and only once.
type Conversation struct {
	messages []contract.Message
	// seeded is the length of the persisted history the run started from.
	seeded int
}

// NewConversation starts a log from a persisted thread. history is copied.
func NewConversation(history []contract.Message) *Conversation {
	messages := make([]contract.Message, len(history))
	copy(messages, history)
	return &Conversation{messages: messages, seeded: len(messages)}
}

func (c *Conversation) Append(msgs ...contract.Message) error {
	for _, msg := range msgs {
		switch msg.Role {
		case contract.RoleTool:
			if err := c.checkToolResult(msg); err != nil {
				return err
			}
		case contract.RoleAssistant:
			if err := checkCallIDs(msg); err != nil {
				return err
			}
		}
		c.messages = append(c.messages, msg)
	}
	return nil
}

func (c *Conversation) checkToolResult(msg contract.Message) error {
	pending := c.PendingCalls()
	for _, call := range pending {
		if call.ID == msg.ToolCallID {
			return nil
		}
	}
	return agentErrors.InvalidInput(fmt.Sprintf("tool result %q does not answer a pending call", msg.ToolCallID))
}

// checkCallIDs rejects calls that could not be answered one result each.
func checkCallIDs(msg contract.Message) error {
	seen := make(map[string]struct{}, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		if call == nil || call.ID == "" {
			return agentErrors.InvalidInput("tool call without id")
		}
		if _, dup := seen[call.ID]; dup {
			return agentErrors.InvalidInput(fmt.Sprintf("duplicate tool call id %q", call.ID))
		}
		seen[call.ID] = struct{}{}
	}
	return nil
}

// PendingCalls returns the calls of the latest assistant message that have no
// result yet.
func (c *Conversation) PendingCalls() []*contract.ToolCall {
	answered := make(map[string]struct{})
	for i := len(c.messages) - 1; i >= 0; i-- {
		msg := c.messages[i]
		switch msg.Role {
		case contract.RoleTool:
			answered[msg.ToolCallID] = struct{}{}
			continue
		case contract.RoleAssistant:
			var pending []*contract.ToolCall
			for _, call := range msg.ToolCalls {
				if _, ok := answered[call.ID]; !ok {
					pending = append(pending, call)
				}
			}
			return pending
		}
		return nil
	}
	return nil
}

// Messages returns a copy of the full log.
func (c *Conversation) Messages() []contract.Message {
	out := make([]contract.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Appended returns the messages added since the conversation was created.
func (c *Conversation) Appended() []contract.Message {
	out := make([]contract.Message, len(c.messages)-c.seeded)
	copy(out, c.messages[c.seeded:])
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) Last() (contract.Message, bool) {
	if len(c.messages) == 0 {
		return contract.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

package domain

// DefaultHistoryLimit caps the conversation log at 20 exchanges.
const DefaultHistoryLimit = 40

// History is the bounded, chronologically ordered conversation log. Turns
// are only ever appended in user/assistant pairs, so the length stays even
// and an exchange is never split by the cap. History is not safe for
// concurrent use; the orchestrator confines mutation to its control loop.
type History struct {
	limit int
	turns []Turn
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit%2 != 0 {
		limit++
	}
	return &History{limit: limit}
}

// AppendExchange records one completed round: the user's utterance followed
// by the assistant's reply. When the cap would be exceeded the oldest turns
// are discarded so the count stays at the cap.
func (h *History) AppendExchange(userText string, assistantText string) {
	h.turns = append(h.turns,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
	if overflow := len(h.turns) - h.limit; overflow > 0 {
		h.turns = append(h.turns[:0], h.turns[overflow:]...)
	}
}

// Turns returns a snapshot copy of the history. Callers may hold it across
// goroutines; it never aliases the live log.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int { return len(h.turns) }

package react

import (
	"fmt"

	"github.com/arwynlabs/graphrt/state"
)

// Reminder is a nudge Think may inject into the prompt when a run has spent
// many rounds calling tools without producing a final response (spec §10
// supplemental feature, grounded on the teacher's reminder.Reminder — tiered,
// rate-limited guidance text — narrowed here to the single "wrap it up"
// nudge this spec's Think step needs).
type Reminder struct {
	// Text is the guidance injected as a System message. DefaultWrapUpText
	// is used when empty.
	Text string
	// EveryNRounds injects the reminder once every N completed Observe
	// passes (turn_count a nonzero multiple of this). Zero disables it.
	EveryNRounds uint32
}

// DefaultWrapUpText is the nudge injected when Reminder.Text is empty. It
// is injected every EveryNRounds rounds, independent of MaxReActTurns.
const DefaultWrapUpText = "<system-reminder>This conversation has gone through several tool-call rounds. " +
	"If you have enough information, wrap up with a final response instead of calling more tools.</system-reminder>"

// inject appends the reminder's system message to messages if turnCount is a
// nonzero multiple of EveryNRounds; returns messages unchanged otherwise.
func (r Reminder) inject(turnCount uint32, messages []state.Message) []state.Message {
	if r.EveryNRounds == 0 || turnCount == 0 || turnCount%r.EveryNRounds != 0 {
		return messages
	}
	text := r.Text
	if text == "" {
		text = DefaultWrapUpText
	}
	return append(append([]state.Message(nil), messages...), state.System(text))
}

func toolReturnedMessage(name, content string) state.Message {
	return state.User(fmt.Sprintf("Tool %s returned: %s", name, content))
}

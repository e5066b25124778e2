package confirm

import "github.com/roach88/missy/internal/chat"

// Outcome is the resolution of one prompt.
type Outcome int

const (
	Confirmed Outcome = iota + 1
	Declined
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Mark maps the outcome onto a status tick: yes, no, or maybe for a timeout.
func (o Outcome) Mark() chat.Mark {
	switch o {
	case Confirmed:
		return chat.MarkYes
	case Declined:
		return chat.MarkNo
	default:
		return chat.MarkMaybe
	}
}

// outcomeOf maps a decision reaction to its outcome.
func outcomeOf(emoji string) (Outcome, bool) {
	switch {
	case chat.SameEmoji(emoji, chat.Yes):
		return Confirmed, true
	case chat.SameEmoji(emoji, chat.No):
		return Declined, true
	default:
		return 0, false
	}
}

// Default resolution texts.
const (
	DefaultConfirmedText = "Positive feedback received."
	DefaultDeclinedText  = "Negative feedback received."
	DefaultTimedOutText  = "Timeout occured. Please try again."
)

func defaultText(o Outcome) string {
	switch o {
	case Confirmed:
		return DefaultConfirmedText
	case Declined:
		return DefaultDeclinedText
	default:
		return DefaultTimedOutText
	}
}

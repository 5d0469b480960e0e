package draft

import (
	"context"
	"fmt"
)

// Choice is the answer to the unsaved-changes prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceDiscard
	ChoiceSave
)

func (c Choice) String() string {
	switch c {
	case ChoiceDiscard:
		return "discard"
	case ChoiceSave:
		return "save"
	default:
		return "cancel"
	}
}

// Guard decides whether the user may leave the editor.
type Guard struct {
	sess *Session
}

// Check reports whether navigation may proceed without asking.
func (g *Guard) Check() bool {
	return !g.sess.Dirty()
}

// Resolve applies the user's choice and reports whether navigation may
// proceed. A failed save keeps the user in place and returns the error.
func (g *Guard) Resolve(ctx context.Context, choice Choice) (bool, error) {
	if g.Check() {
		return true, nil
	}
	switch choice {
	case ChoiceCancel:
		return false, nil
	case ChoiceDiscard:
		if err := g.sess.Discard(ctx); err != nil {
			return false, err
		}
		return true, nil
	case ChoiceSave:
		if _, err := g.sess.Commit(ctx, ModeSaveDraft); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown choice %d", int(choice))
	}
}

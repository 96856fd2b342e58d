package di

import "context"

// frame is one link of the active resolution chain. Frames are immutable;
// pushing returns a new child, so popping is returning to the parent.
type frame struct {
	key    TypeKey
	id     string
	parent *frame
}

func (f *frame) push(key TypeKey, id string) *frame {
	return &frame{key: key, id: id, parent: f}
}

// contains reports whether id is anywhere on the chain ending at f.
func (f *frame) contains(id string) bool {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.id == id {
			return true
		}
	}
	return false
}

// chain returns the keys from the root to f.
func (f *frame) chain() []TypeKey {
	n := 0
	for cur := f; cur != nil; cur = cur.parent {
		n++
	}
	out := make([]TypeKey, n)
	for cur := f; cur != nil; cur = cur.parent {
		n--
		out[n] = cur.key
	}
	return out
}

// resolution is the state of one top-level resolve call.
type resolution struct {
	ctx context.Context
	// waitingOn is the in-flight entry this resolution is blocked on.
	// Guarded by instanceCache.mu.
	waitingOn *entry
}

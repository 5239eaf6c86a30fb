package state

// Policy decides what happens to a reducer's candidate state: whether it
// becomes the canonical value and whether it is published to observers.
//
// Apply runs inside the container's critical section. It may commit by
// writing candidate through current, and its return value says whether the
// committed snapshot is published. Leaving current untouched discards the
// candidate entirely.
type Policy[S any] interface {
	// Name identifies the policy in logs and stats.
	Name() string

	// Apply commits or discards candidate and reports whether to publish.
	Apply(current *S, candidate S) bool
}

type policy[S any] struct {
	name  string
	apply func(current *S, candidate S) bool
}

func (p policy[S]) Name() string { return p.name }

func (p policy[S]) Apply(current *S, candidate S) bool { return p.apply(current, candidate) }

// Always commits every candidate and publishes every commit. This is the
// default emission policy of a store.
func Always[S any]() Policy[S] {
	return policy[S]{
		name: "always",
		apply: func(current *S, candidate S) bool {
			*current = candidate
			return true
		},
	}
}

// Never commits every candidate but publishes nothing. State still moves,
// observable through Value; the stream stays at the last published
// snapshot.
func Never[S any]() Policy[S] {
	return policy[S]{
		name: "never",
		apply: func(current *S, candidate S) bool {
			*current = candidate
			return false
		},
	}
}

// WhenChanged commits and publishes only candidates that changed reports as
// different from the current value. Unchanged candidates are discarded:
// Value keeps the pre-dispatch state and nothing is published. A nil
// changed func reports every candidate as changed.
func WhenChanged[S any](changed func(old, next S) bool) Policy[S] {
	return policy[S]{
		name: "when-changed",
		apply: func(current *S, candidate S) bool {
			if changed != nil && !changed(*current, candidate) {
				return false
			}
			*current = candidate
			return true
		},
	}
}

// Distinct is WhenChanged using Go equality.
func Distinct[S comparable]() Policy[S] {
	return policy[S]{
		name: "distinct",
		apply: func(current *S, candidate S) bool {
			if *current == candidate {
				return false
			}
			*current = candidate
			return true
		},
	}
}

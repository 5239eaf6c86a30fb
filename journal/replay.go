package journal

import (
	"context"
	"fmt"
	"sort"

	"github.com/glimte/statemate-go/contracts"
)

// Replay re-dispatches journaled actions through d in ascending sequence
// order, regardless of the order entries arrive in. Each dispatch carries a
// source tagged "replay:" plus the original source so downstream middleware
// can tell replays from live traffic. It returns how many actions were
// dispatched; on a decode failure that count covers the entries before the
// failing one.
func Replay[A any](ctx context.Context, entries []*Entry, d contracts.Dispatcher[A], actions Codec[A]) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("replay: dispatcher must not be nil")
	}
	if actions == nil {
		actions = JSONCodec[A]{}
	}

	ordered := append([]*Entry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for i, e := range ordered {
		if e == nil {
			return i, fmt.Errorf("replay: %w", ErrNilEntry)
		}
		if len(e.Action) == 0 {
			return i, fmt.Errorf("replay: entry seq %d has no action payload", e.Seq)
		}
		action, err := actions.Decode(e.Action)
		if err != nil {
			return i, fmt.Errorf("replay: decode action at seq %d: %w", e.Seq, err)
		}
		d.Dispatch(ctx, action, contracts.At("replay:"+e.Source))
	}
	return len(ordered), nil
}

package statemate

import (
	"context"
	"fmt"
	"sync"

	"github.com/glimte/statemate-go/contracts"
	"github.com/glimte/statemate-go/stream"
)

// ScopedStore projects a parent store onto a narrower state and action
// vocabulary: dispatches are embedded into parent actions, and every parent
// emission is projected onto a derived replay-last stream. A scoped store is
// a pure view; it owns no state and no loop, only its subscription and
// derived stream.
type ScopedStore[VS, VA, PS, PA any] struct {
	parent  *Store[PS, PA]
	embed   func(VA) PA
	project func(PS) VS
	stream  *stream.Stream[VS]
	sub     *stream.Subscription[PS]

	// eq and last are only touched from the parent subscription callback
	// after construction; deliveries are serialized per subscription.
	eq   func(VS, VS) bool
	last VS

	closeOnce sync.Once
}

// scopedConfig holds scoped store configuration.
type scopedConfig[VS any] struct {
	eq func(VS, VS) bool
}

// ScopedOption configures a scoped store.
type ScopedOption[VS any] func(*scopedConfig[VS])

// WithScopedDistinct drops projected values equal (per eq) to the previous
// one, so view subscribers only hear about visible changes.
func WithScopedDistinct[VS any](eq func(VS, VS) bool) ScopedOption[VS] {
	return func(cfg *scopedConfig[VS]) {
		cfg.eq = eq
	}
}

// NewScoped derives a scoped store from parent. embed maps a scoped action
// into a parent action; project maps parent state into the scoped view.
// Creating a scope on a closed store fails with contracts.ErrStoreClosed.
func NewScoped[VS, VA, PS, PA any](
	parent *Store[PS, PA],
	embed func(VA) PA,
	project func(PS) VS,
	opts ...ScopedOption[VS],
) (*ScopedStore[VS, VA, PS, PA], error) {
	if parent == nil {
		return nil, fmt.Errorf("statemate: parent store must not be nil")
	}
	if embed == nil {
		return nil, fmt.Errorf("statemate: embed must not be nil")
	}
	if project == nil {
		return nil, fmt.Errorf("statemate: project must not be nil")
	}
	if parent.closed.Load() {
		return nil, contracts.ErrStoreClosed
	}

	cfg := &scopedConfig[VS]{}
	for _, opt := range opts {
		opt(cfg)
	}

	sc := &ScopedStore[VS, VA, PS, PA]{
		parent:  parent,
		embed:   embed,
		project: project,
		eq:      cfg.eq,
		last:    project(parent.State()),
	}
	sc.stream = stream.New(sc.last)

	sub, err := parent.Stream().Subscribe(func(ps PS) {
		sc.publish(project(ps))
	})
	if err != nil {
		sc.stream.Close()
		return nil, err
	}
	sc.sub = sub
	return sc, nil
}

func (sc *ScopedStore[VS, VA, PS, PA]) publish(v VS) {
	if sc.eq != nil && sc.eq(sc.last, v) {
		return
	}
	sc.last = v
	sc.stream.Publish(v)
}

// Dispatch embeds the scoped action and dispatches it to the parent.
func (sc *ScopedStore[VS, VA, PS, PA]) Dispatch(ctx context.Context, action VA, source contracts.Source) {
	sc.parent.Dispatch(ctx, sc.embed(action), source)
}

// State returns the projection of the parent's current state.
func (sc *ScopedStore[VS, VA, PS, PA]) State() VS {
	return sc.project(sc.parent.State())
}

// Stream returns the derived replay-last stream of projected values.
func (sc *ScopedStore[VS, VA, PS, PA]) Stream() *stream.Stream[VS] {
	return sc.stream
}

// Subscribe registers fn on the derived stream; the latest projected value
// is replayed first.
func (sc *ScopedStore[VS, VA, PS, PA]) Subscribe(fn func(VS), opts ...stream.SubscribeOption[VS]) (*stream.Subscription[VS], error) {
	return sc.stream.Subscribe(fn, opts...)
}

// Wait blocks until the projected state satisfies pred or ctx expires.
func (sc *ScopedStore[VS, VA, PS, PA]) Wait(ctx context.Context, pred func(VS) bool) (VS, error) {
	return stream.Wait(ctx, sc.stream, pred)
}

// Close cancels the parent subscription and terminates the derived stream.
// The parent store is untouched.
func (sc *ScopedStore[VS, VA, PS, PA]) Close() {
	sc.closeOnce.Do(func() {
		sc.sub.Cancel()
		sc.stream.Close()
	})
}

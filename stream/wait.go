package stream

import "context"

// Wait blocks until the stream carries a value satisfying pred, then
// returns it. It observes the current value first, so a condition that
// already holds returns immediately. Wait returns ctx.Err() if ctx ends
// first and ErrClosed if the stream closes before a match.
func Wait[T any](ctx context.Context, s *Stream[T], pred func(T) bool) (T, error) {
	var zero T
	if pred == nil {
		return zero, ErrNilHandler
	}

	matched := make(chan T, 1)
	sub, err := s.Subscribe(func(v T) {
		select {
		case matched <- v:
		default:
		}
	}, WithFilter[T](pred), WithOnce[T]())
	if err != nil {
		return zero, err
	}
	defer sub.Cancel()

	select {
	case v := <-matched:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.Done():
		// A match may have raced with the close.
		select {
		case v := <-matched:
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}

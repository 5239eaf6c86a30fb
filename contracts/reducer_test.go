package contracts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	t.Run("folds left to right", func(t *testing.T) {
		double := Reducer[int, string](func(_ string, s int) int { return s * 2 })
		addTen := Reducer[int, string](func(_ string, s int) int { return s + 10 })

		composed := Compose(double, addTen)

		// (3*2)+10, not (3+10)*2
		assert.Equal(t, 16, composed("tick", 3))
	})

	t.Run("each reducer sees the same action", func(t *testing.T) {
		var seen []string
		record := func(tag string) Reducer[int, string] {
			return func(action string, s int) int {
				seen = append(seen, tag+":"+action)
				return s
			}
		}

		composed := Compose(record("first"), record("second"))
		composed("refresh", 0)

		assert.Equal(t, []string{"first:refresh", "second:refresh"}, seen)
	})

	t.Run("zero reducers is identity", func(t *testing.T) {
		composed := Compose[int, string]()

		assert.Equal(t, 7, composed("anything", 7))
	})
}

func TestDispatcherFunc(t *testing.T) {
	var gotAction string
	var gotSource Source

	var d Dispatcher[string] = DispatcherFunc[string](func(_ context.Context, action string, source Source) {
		gotAction = action
		gotSource = source
	})

	d.Dispatch(context.Background(), "increment", At("test"))

	assert.Equal(t, "increment", gotAction)
	assert.Equal(t, "test", gotSource.Tag)
}

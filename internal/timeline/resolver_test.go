package timeline

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trim(start, end float64) Edit   { return Edit{Start: start, End: end, Type: Trim} }
func splice(start, end float64) Edit { return Edit{Start: start, End: end, Type: Splice} }

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		active   []Edit
		duration float64
		want     []KeepSegment
	}{
		{
			name:     "empty history keeps everything",
			duration: 100,
			want:     []KeepSegment{{0, 100}},
		},
		{
			name:     "single splice",
			active:   []Edit{splice(20, 30)},
			duration: 100,
			want:     []KeepSegment{{0, 20}, {30, 100}},
		},
		{
			name:     "trim then splice",
			active:   []Edit{trim(10, 90), splice(20, 30)},
			duration: 100,
			want:     []KeepSegment{{10, 20}, {30, 90}},
		},
		{
			name:     "successive trims intersect",
			active:   []Edit{trim(5, 50), trim(40, 45)},
			duration: 100,
			want:     []KeepSegment{{40, 45}},
		},
		{
			name:     "disjoint trims open separate keepers",
			active:   []Edit{trim(10, 20), trim(30, 40)},
			duration: 100,
			want:     []KeepSegment{{10, 20}, {30, 40}},
		},
		{
			name:     "touching trims cancel",
			active:   []Edit{trim(0, 50), trim(50, 60)},
			duration: 100,
			want:     nil,
		},
		{
			name:     "trim after cancelled keeper starts fresh",
			active:   []Edit{trim(0, 50), trim(50, 60), trim(70, 80)},
			duration: 100,
			want:     []KeepSegment{{70, 80}},
		},
		{
			name:     "splice covering keeper removes it",
			active:   []Edit{trim(10, 20), splice(5, 25)},
			duration: 100,
			want:     nil,
		},
		{
			name:     "splice at media start eats from the left",
			active:   []Edit{splice(0, 10)},
			duration: 100,
			want:     []KeepSegment{{10, 100}},
		},
		{
			name:     "splice reaching media end",
			active:   []Edit{splice(80, 100)},
			duration: 100,
			want:     []KeepSegment{{0, 80}},
		},
		{
			name:     "splices issued out of order",
			active:   []Edit{splice(60, 70), splice(20, 30)},
			duration: 100,
			want:     []KeepSegment{{0, 20}, {30, 60}, {70, 100}},
		},
		{
			name:     "nested splice does not restore removed content",
			active:   []Edit{splice(10, 50), splice(20, 30)},
			duration: 100,
			want:     []KeepSegment{{0, 10}, {50, 100}},
		},
		{
			name:     "splice outside keeper is ignored",
			active:   []Edit{trim(10, 20), splice(50, 60)},
			duration: 100,
			want:     []KeepSegment{{10, 20}},
		},
		{
			name:     "trim past media end keeps nothing",
			active:   []Edit{trim(150, 200)},
			duration: 100,
			want:     nil,
		},
		{
			name:     "trim overhanging media end is clipped",
			active:   []Edit{trim(80, 120)},
			duration: 100,
			want:     []KeepSegment{{80, 100}},
		},
		{
			name:     "trim past media end does not open a keeper",
			active:   []Edit{trim(10, 20), trim(150, 200)},
			duration: 100,
			want:     []KeepSegment{{10, 20}},
		},
		{
			name:     "zero duration media",
			duration: 0,
			want:     nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.active, tc.duration)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_doesNotReorderInput(t *testing.T) {
	active := []Edit{splice(60, 70), trim(10, 90), splice(20, 30)}
	before := append([]Edit(nil), active...)

	_ = Resolve(active, 100)

	assert.Equal(t, before, active)
}

func TestResolve_idempotent(t *testing.T) {
	active := []Edit{trim(10, 90), splice(20, 30), splice(50, 55), trim(15, 80)}

	first := Resolve(active, 100)
	second := Resolve(active, 100)

	assert.Equal(t, first, second)
}

func TestResolveChecked_empty(t *testing.T) {
	_, err := ResolveChecked([]Edit{splice(0, 100)}, 100)
	require.ErrorIs(t, err, ErrEmptyResolution)

	segs, err := ResolveChecked([]Edit{splice(0, 50)}, 100)
	require.NoError(t, err)
	assert.Equal(t, []KeepSegment{{50, 100}}, segs)
}

// disjointSplices generates ascending, non-touching splices strictly inside (0, 100).
type disjointSplices []Edit

func (disjointSplices) Generate(r *rand.Rand, size int) reflect.Value {
	n := r.Intn(8)
	out := make(disjointSplices, 0, n)
	cursor := 0.0
	for i := 0; i < n; i++ {
		start := cursor + 1 + float64(r.Intn(5))
		end := start + 1 + float64(r.Intn(5))
		out = append(out, splice(start, end))
		cursor = end
	}
	return reflect.ValueOf(out)
}

func TestResolve_Properties(t *testing.T) {
	t.Parallel()

	const duration = 100.0

	t.Run("n splices yield n+1 abutting segments", func(t *testing.T) {
		property := func(splices disjointSplices) bool {
			segs := Resolve(splices, duration)
			if len(segs) != len(splices)+1 {
				return false
			}
			removed := 0.0
			for i, s := range splices {
				removed += s.End - s.Start
				if segs[i].End != s.Start || segs[i+1].Start != s.End {
					return false
				}
			}
			return TotalLength(segs) == duration-removed
		}
		if err := quick.Check(property, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("segments are disjoint and stay inside the media", func(t *testing.T) {
		property := func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			var active []Edit
			for i := 0; i < r.Intn(10); i++ {
				start := float64(r.Intn(90))
				end := start + 1 + float64(r.Intn(20))
				typ := Trim
				if r.Intn(2) == 0 {
					typ = Splice
				}
				active = append(active, Edit{Start: start, End: end, Type: typ})
			}
			segs := Resolve(active, duration)
			for i, s := range segs {
				if s.Start >= s.End || s.Start < 0 || s.End > duration {
					return false
				}
				if i > 0 && segs[i-1].End > s.Start {
					return false
				}
			}
			return true
		}
		if err := quick.Check(property, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("nested trims resolve to the innermost", func(t *testing.T) {
		property := func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			start, end := 0.0, duration
			var active []Edit
			for i := 0; i < 1+r.Intn(6) && end-start > 2; i++ {
				start += float64(r.Intn(int(end-start) / 2))
				end -= float64(r.Intn(int(end-start) / 2))
				active = append(active, trim(start, end))
			}
			segs := Resolve(active, duration)
			return len(segs) == 1 && segs[0] == KeepSegment{Start: start, End: end}
		}
		if err := quick.Check(property, nil); err != nil {
			t.Error(err)
		}
	})
}

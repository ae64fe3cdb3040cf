package timeline

import (
	"errors"
	"sort"
)

// ErrEmptyResolution is returned by ResolveChecked when every region was spliced away.
// Callers must substitute a placeholder output instead of processing zero segments.
var ErrEmptyResolution = errors.New("resolution produced no keep segments")

// Resolve turns an active edit log into the ordered, disjoint keep-segments to pass to a
// media processor. Trims are merged into keepers first, then every splice is subtracted
// from the keepers. Comparisons are exact; no tolerance is applied.
func Resolve(active []Edit, duration float64) []KeepSegment {
	var trims, splices []Edit
	for _, e := range active {
		switch e.Type {
		case Trim:
			trims = append(trims, e)
		case Splice:
			splices = append(splices, e)
		}
	}
	byStart := func(s []Edit) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Start < s[j].Start })
	}
	byStart(trims)
	byStart(splices)

	keepers := mergeKeepers(trims, duration)

	var out []KeepSegment
	for _, k := range keepers {
		out = append(out, subtractSplices(k, splices)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ResolveChecked is Resolve that reports ErrEmptyResolution instead of an empty slice.
func ResolveChecked(active []Edit, duration float64) ([]KeepSegment, error) {
	segs := Resolve(active, duration)
	if len(segs) == 0 {
		return nil, ErrEmptyResolution
	}
	return segs, nil
}

// mergeKeepers narrows the identity keeper {0, duration} by each trim in start order.
// Trims are clipped to the media first, so the first trim is its own intersection with the
// identity keeper and nothing outside [0, duration] can become a keeper. A trim that starts
// after the last keeper ends opens a new keeper; otherwise it intersects the last keeper,
// which is dropped once the intersection is empty.
func mergeKeepers(trims []Edit, duration float64) []KeepSegment {
	if len(trims) == 0 {
		if duration <= 0 {
			return nil
		}
		return []KeepSegment{{Start: 0, End: duration}}
	}

	var keepers []KeepSegment
	for _, t := range trims {
		start, end := max(t.Start, 0), min(t.End, duration)
		if len(keepers) == 0 || start > keepers[len(keepers)-1].End {
			if start < end {
				keepers = append(keepers, KeepSegment{Start: start, End: end})
			}
			continue
		}
		last := &keepers[len(keepers)-1]
		last.Start = max(last.Start, start)
		last.End = min(last.End, end)
		if last.Start >= last.End {
			keepers = keepers[:len(keepers)-1]
		}
	}
	return keepers
}

// subtractSplices removes every overlapping splice from k. splices must be sorted by start.
func subtractSplices(k KeepSegment, splices []Edit) []KeepSegment {
	cur, end := k.Start, k.End

	var overlapping []Edit
	for _, s := range splices {
		if s.End > cur && s.Start < end {
			overlapping = append(overlapping, s)
		}
	}
	if len(overlapping) == 0 {
		if cur < end {
			return []KeepSegment{k}
		}
		return nil
	}

	var out []KeepSegment
	for _, s := range overlapping {
		if s.Start > cur {
			out = append(out, KeepSegment{Start: cur, End: s.Start})
		}
		if s.End >= end {
			return out
		}
		cur = max(cur, s.End)
	}
	if cur < end {
		out = append(out, KeepSegment{Start: cur, End: end})
	}
	return out
}

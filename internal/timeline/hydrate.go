package timeline

import (
	"encoding/json"
	"fmt"
)

// record mirrors one persisted history entry; pointer fields detect missing keys.
type record struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Type  *string  `json:"type"`
}

// ParseHistory decodes a persisted edit list. The document must be a JSON array; entries
// with missing fields, wrong types or invalid ranges are dropped individually and counted.
func ParseHistory(data []byte) (edits []Edit, dropped int, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode history: %w", err)
	}

	edits = make([]Edit, 0, len(raw))
	for _, msg := range raw {
		e, ok := decodeRecord(msg)
		if !ok {
			dropped++
			continue
		}
		edits = append(edits, e)
	}
	return edits, dropped, nil
}

func decodeRecord(msg json.RawMessage) (Edit, bool) {
	var r record
	if err := json.Unmarshal(msg, &r); err != nil {
		return Edit{}, false
	}
	if r.Start == nil || r.End == nil || r.Type == nil {
		return Edit{}, false
	}
	e := Edit{Start: *r.Start, End: *r.End, Type: EditType(*r.Type)}
	if e.Validate() != nil {
		return Edit{}, false
	}
	return e, true
}

// MarshalHistory encodes edits in the persisted representation.
func MarshalHistory(edits []Edit) ([]byte, error) {
	if edits == nil {
		edits = []Edit{}
	}
	return json.Marshal(edits)
}

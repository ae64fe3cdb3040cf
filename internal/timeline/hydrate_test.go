package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHistory(t *testing.T) {
	data := []byte(`[
		{"start": 10, "end": 90, "type": "trim"},
		{"start": "x", "end": 2, "type": "trim"},
		{"end": 3, "type": "splice"},
		null,
		{"start": 4, "end": 3, "type": "splice"},
		{"start": 1, "end": 2, "type": "cut"},
		{"start": 20, "end": 30, "type": "splice", "extra": true}
	]`)

	edits, dropped, err := ParseHistory(data)

	require.NoError(t, err)
	assert.Equal(t, 5, dropped)
	assert.Equal(t, []Edit{trim(10, 90), splice(20, 30)}, edits)
}

func TestParseHistory_notArray(t *testing.T) {
	for _, doc := range []string{`{}`, `"trim"`, `not json`} {
		_, _, err := ParseHistory([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestParseHistory_empty(t *testing.T) {
	edits, dropped, err := ParseHistory([]byte(`[]`))
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Empty(t, edits)
}

func TestMarshalHistory(t *testing.T) {
	b, err := MarshalHistory(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	b, err = MarshalHistory([]Edit{trim(1.5, 2), splice(3, 4)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"start":1.5,"end":2,"type":"trim"},{"start":3,"end":4,"type":"splice"}]`, string(b))

	edits, dropped, err := ParseHistory(b)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Equal(t, []Edit{trim(1.5, 2), splice(3, 4)}, edits)
}

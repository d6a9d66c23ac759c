package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_RecordOnce(t *testing.T) {
	l := NewLedger()
	assert.False(t, l.Seen("a"))
	assert.True(t, l.Record("a"))
	assert.True(t, l.Seen("a"))
	assert.False(t, l.Record("a"))
	assert.True(t, l.Record("b"))

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []string{"a", "b"}, l.IDs())
}

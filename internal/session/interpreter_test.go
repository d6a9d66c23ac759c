package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpreter_Interpret(t *testing.T) {
	in := Interpreter{FilterPrefix: "filter ", SecondaryKeyword: "sms"}

	cases := []struct {
		name   string
		filter string
		line   string
		want   Command
	}{
		{"blank", "", "   ", Command{Action: ActionNone}},
		{"set filter", "", "filter bob", Command{Action: ActionSetFilter, Target: "bob"}},
		{"set filter trims", "carol", "filter   bob  ", Command{Action: ActionSetFilter, Target: "bob"}},
		{"prefix must lead", "", " filter bob", Command{Action: ActionUsageError}},
		{"keyword", "bob", "sms", Command{Action: ActionActivateSecondary}},
		{"keyword trimmed", "", "  sms \t", Command{Action: ActionActivateSecondary}},
		{"keyword exact", "bob", "sms now", Command{Action: ActionSendScheduled, Target: "bob", Body: "sms now"}},
		{"unset filter", "", "hello", Command{Action: ActionUsageError}},
		{"no space after prefix", "", "filterbob", Command{Action: ActionUsageError}},
		{"plain send", "bob", "  hello there ", Command{Action: ActionSendScheduled, Target: "bob", Body: "hello there"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, in.Interpret(tc.filter, tc.line))
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "send-scheduled", ActionSendScheduled.String())
	assert.Equal(t, "unknown", Action(99).String())
}

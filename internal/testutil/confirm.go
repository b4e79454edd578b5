package testutil

import (
	"context"
	"sync"
)

// ScriptedConfirmer answers confirmations from a script and records every
// message it was asked about. When the script runs out it answers Default.
//
// It satisfies search.Confirmer.
type ScriptedConfirmer struct {
	mu       sync.Mutex
	answers  []bool
	messages []string
	Default  bool
}

// NewScriptedConfirmer returns a confirmer that gives answers in order and
// then proceeds.
func NewScriptedConfirmer(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers, Default: true}
}

// Confirm records message and returns the next scripted answer.
func (c *ScriptedConfirmer) Confirm(_ context.Context, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	if len(c.answers) == 0 {
		return c.Default
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a
}

// Messages returns the messages asked so far.
func (c *ScriptedConfirmer) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorFiresOncePerOnlineTransition(t *testing.T) {
	m := NewMonitor(false, NewLogNotifier())

	fired := 0
	m.OnOnline(func() { fired++ })

	m.Set(true)
	assert.Equal(t, 1, fired)
	assert.True(t, m.Online())

	// already online: no extra firing
	m.Set(true)
	assert.Equal(t, 1, fired)

	// offline transition only flips the flag
	m.Set(false)
	assert.Equal(t, 1, fired)
	assert.False(t, m.Online())

	// flapping fires one round per online transition
	m.Set(true)
	m.Set(false)
	m.Set(true)
	assert.Equal(t, 3, fired)
}

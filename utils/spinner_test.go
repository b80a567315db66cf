package utils

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	assert := assert.New(t)

	out := &syncBuffer{}
	s := NewSpinner(out, "keying", time.Millisecond, false)
	s.StopMsg = "finished"

	s.Start()
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.SetMessage("compositing")
	s.Stop()
	s.Stop()

	res := out.String()
	assert.Contains(res, "keying")
	assert.Contains(res, "finished")
}

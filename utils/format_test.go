package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat_DecorateText(t *testing.T) {
	assert := assert.New(t)

	s := DecorateText("done", SuccessMessage)
	assert.Equal(SuccessColor+"done"+DefaultColor, s)
	assert.Equal("plain", DecorateText("plain", MessageType(42)))
	assert.Equal("plain", DecorateText("plain", MessageType(-1)))

	line := StatusLine("keying", ErrorMessage)
	assert.True(strings.HasPrefix(line, StatusColor+AppTag))
	assert.True(strings.HasSuffix(line, ErrorColor+"keying"+DefaultColor))
}

func TestFormat_Summary(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1 image processed", Summary(1, 0))
	assert.Equal("3 images processed, 1 failed", Summary(3, 1))
	assert.Equal("0 images processed", Summary(0, 0))
}

func TestFormat_FormatTime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal("0.01s", FormatTime(6*time.Millisecond))
	assert.Equal("2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal("1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal("26h 0m 0.00s", FormatTime(26*time.Hour))
}

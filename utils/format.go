package utils

import (
	"fmt"
	"time"
)

// MessageType selects the color of a terminal message.
type MessageType int

const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI escape sequences of the message colors.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// AppTag prefixes every status line printed by the command line tool.
const AppTag = "◆ PIXMOD"

var messageColors = [...]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// DecorateText wraps s in the color of msgType and resets the terminal
// color afterwards. Unknown types leave s untouched.
func DecorateText(s string, msgType MessageType) string {
	if msgType < 0 || int(msgType) >= len(messageColors) {
		return s
	}
	return messageColors[msgType] + s + DefaultColor
}

// StatusLine joins the application tag with a message of the given type.
func StatusLine(msg string, msgType MessageType) string {
	return DecorateText(AppTag, StatusMessage) + " " + DecorateText(msg, msgType)
}

// Summary describes the outcome of a directory run, e.g.
// "3 images processed, 1 failed".
func Summary(total, failed int) string {
	noun := "images"
	if total == 1 {
		noun = "image"
	}
	s := fmt.Sprintf("%d %s processed", total, noun)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}

// FormatTime renders d with hundredth of a second precision as "1.50s",
// "2m 5.00s" or "1h 1m 1.00s".
func FormatTime(d time.Duration) string {
	d = d.Round(10 * time.Millisecond)
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	sec := (d % time.Minute).Seconds()

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %.2fs", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %.2fs", m, sec)
	}
	return fmt.Sprintf("%.2fs", sec)
}

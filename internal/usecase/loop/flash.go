package loop

import "time"

// Flash is a message that clears itself after a delay.
// A Flash belongs to one loop and must only be used from tasks running on it.
type Flash struct {
	text  string
	timer *Timer
}

// Show replaces the message with text and schedules it to clear after ttl.
// A previously scheduled clear is cancelled so it cannot wipe the new text.
func (f *Flash) Show(l *Loop, text string, ttl time.Duration) {
	f.Clear()
	f.text = text

	var tm *Timer
	tm = l.AfterFunc(ttl, func() {
		if f.timer != tm {
			return
		}
		f.text = ""
		f.timer = nil
	})
	f.timer = tm
}

// Clear removes the message and cancels its scheduled clear.
func (f *Flash) Clear() {
	f.timer.Stop()
	f.timer = nil
	f.text = ""
}

// Text returns the current message, empty when none is shown.
func (f *Flash) Text() string {
	return f.text
}

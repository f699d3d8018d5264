// SPDX-License-Identifier: Unlicense OR MIT

package evtouch

import (
	"image"
	"time"

	"gioui.org/f32"
	"gioui.org/io/pointer"
	"github.com/kenshaw/evdev"
)

// transition is the button change pending in the current synchronization
// cycle. At most one transition is recorded per cycle; a later BTN_TOUCH
// event overwrites an earlier one.
type transition uint8

const (
	transitionNone transition = iota
	transitionDown
	transitionUp
)

// Collector folds raw evdev events into pointer events. It tracks the last
// value reported on each absolute axis and the button transition observed
// since the previous synchronization marker, and resolves them into exactly
// one pointer.Event per marker: Press if a touch began during the cycle,
// Release if one ended, Move otherwise.
//
// The position persists across synchronization boundaries; the pending
// transition is reset after every resolved marker. A Collector performs no
// I/O and is not safe for concurrent use. Device wraps one in either
// delivery mode.
type Collector struct {
	pos    image.Point
	scale  float32
	change transition
}

// NewCollector returns a Collector starting from the given physical
// position. Emitted positions are logical coordinates, the physical
// coordinates divided by scaleFactor.
func NewCollector(scaleFactor float32, initial image.Point) *Collector {
	return &Collector{pos: initial, scale: scaleFactor}
}

// Push consumes one raw event. It reports the resolved pointer event and
// true if ev is a synchronization marker, false otherwise.
//
// Absolute axes other than X and Y, keys other than BTN_TOUCH and all other
// event kinds are ignored. Values are taken as reported; Push cannot fail.
func (c *Collector) Push(ev *evdev.EventEnvelope) (pointer.Event, bool) {
	switch code := ev.Type.(type) {
	case evdev.SyncType:
		change := c.change
		c.change = transitionNone
		e := pointer.Event{
			Kind:     pointer.Move,
			Source:   pointer.Touch,
			Position: c.logicalPosition(),
			Time:     eventTime(ev),
		}
		switch change {
		case transitionDown:
			e.Kind = pointer.Press
			e.Buttons = pointer.ButtonPrimary
		case transitionUp:
			e.Kind = pointer.Release
			e.Buttons = pointer.ButtonPrimary
		}
		return e, true
	case evdev.AbsoluteType:
		switch code {
		case evdev.AbsoluteX:
			c.pos.X = int(ev.Value)
		case evdev.AbsoluteY:
			c.pos.Y = int(ev.Value)
		}
	case evdev.KeyType:
		if code == evdev.BtnTouch {
			if ev.Value == 1 {
				c.change = transitionDown
			} else {
				c.change = transitionUp
			}
		}
	}
	return pointer.Event{}, false
}

func (c *Collector) logicalPosition() f32.Point {
	return f32.Point{
		X: float32(c.pos.X) / c.scale,
		Y: float32(c.pos.Y) / c.scale,
	}
}

// eventTime converts the kernel timestamp of a raw event. The base of the
// returned duration is the epoch of the device's event clock.
func eventTime(ev *evdev.EventEnvelope) time.Duration {
	return time.Duration(ev.Time.Sec)*time.Second +
		time.Duration(ev.Time.Usec)*time.Microsecond
}

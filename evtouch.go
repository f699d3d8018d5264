// SPDX-License-Identifier: Unlicense OR MIT

/*
Package evtouch converts Linux evdev touchscreen events into gio pointer
events.

Small embedded devices often drive gio's software renderer straight to a
frame buffer, with no display server to deliver input. Most Linux touch
drivers expose an event device, for example /dev/input/event0, from which
raw events can be read. Package evtouch reads such a device and reduces
each batch of coalesced raw events to a single pointer.Event — Press, Move
or Release with Source set to pointer.Touch — suitable for routing into a
gio event queue. Positions are converted from physical device coordinates
to logical coordinates using the scale factor given at Open.

Only single-touch devices are supported.

Events can be pulled with the blocking Next:

	dev, err := evtouch.Open("/dev/input/event0", 1.0)
	if err != nil {
		// ...
	}
	defer dev.Close()
	for {
		e, err := dev.Next()
		if err != nil {
			break
		}
		// Route e to the window.
	}

or consumed asynchronously from the channel returned by Poll.
*/
package evtouch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gioui.org/io/pointer"
	"github.com/kenshaw/evdev"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// ErrDeviceClosed is returned by Next once the underlying event device has
// been closed or its event stream has ended. The Device does not reopen or
// recover the source; callers that want recovery open a new Device.
var ErrDeviceClosed = errors.New("evtouch: device closed")

// pollFunc is the seam between a Device and its raw event source. The
// returned channel yields nil or is closed when the source ends.
type pollFunc func(ctx context.Context) <-chan *evdev.EventEnvelope

// Device owns an evdev touch device and a Collector. The two delivery
// modes, Next and Poll, drain the same raw source; use one or the other on
// a given Device, never both.
type Device struct {
	dev       *evdev.Evdev
	poll      pollFunc
	log       zerolog.Logger
	collector *Collector

	ctx    context.Context
	cancel context.CancelFunc
	start  sync.Once
	events <-chan *evdev.EventEnvelope
}

// Option configures a Device at Open.
type Option func(*Device)

// WithLogger sets the logger for device lifecycle messages. The default
// discards them.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Device) {
		d.log = log
	}
}

// Open opens the event device at path, for example /dev/input/event0.
// The scale factor is the ratio between physical and logical pixel
// coordinates, as reported by the window the events are routed to; emitted
// positions are physical positions divided by it.
func Open(path string, scaleFactor float32, opts ...Option) (*Device, error) {
	if scaleFactor <= 0 {
		return nil, fmt.Errorf("evtouch: scale factor %v is not positive", scaleFactor)
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return nil, fmt.Errorf("evtouch: %s is not an event device", path)
	}
	ev, err := evdev.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("evtouch: open %s: %w", path, err)
	}
	d := newDevice(func(ctx context.Context) <-chan *evdev.EventEnvelope {
		return ev.Poll(ctx)
	}, scaleFactor)
	d.dev = ev
	for _, opt := range opts {
		opt(d)
	}
	dbg := d.log.Debug().Str("path", path).Str("device", ev.Name())
	if x, ok := ev.AbsoluteTypes()[evdev.AbsoluteX]; ok {
		if y, ok := ev.AbsoluteTypes()[evdev.AbsoluteY]; ok {
			dbg = dbg.Int64("abs_x_max", int64(x.Max)).Int64("abs_y_max", int64(y.Max))
		}
	}
	dbg.Msg("opened touch device")
	return d, nil
}

func newDevice(poll pollFunc, scaleFactor float32) *Device {
	ctx, cancel := context.WithCancel(context.Background())
	return &Device{
		poll:      poll,
		log:       zerolog.Nop(),
		collector: NewCollector(scaleFactor, image.Point{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Next returns the next pointer event, blocking the calling goroutine until
// one is available. It returns ErrDeviceClosed once the source has ended or
// the Device has been closed. Next is meant to be driven from a dedicated
// goroutine; Close unblocks it.
func (d *Device) Next() (pointer.Event, error) {
	d.start.Do(func() {
		d.events = d.poll(d.ctx)
	})
	for {
		ev := <-d.events
		if ev == nil {
			return pointer.Event{}, ErrDeviceClosed
		}
		if e, ok := d.collector.Push(ev); ok {
			return e, nil
		}
	}
}

// Poll converts the device into an asynchronous stream of pointer events.
// The returned channel is unbuffered and is closed when ctx is cancelled,
// the Device is closed or the source ends. Each event is fully resolved
// before it is sent; cancellation never exposes a half-built event.
func (d *Device) Poll(ctx context.Context) <-chan pointer.Event {
	out := make(chan pointer.Event)
	raw := d.poll(ctx)
	go func() {
		defer close(out)
		for {
			ev := <-raw
			if ev == nil {
				return
			}
			e, ok := d.collector.Push(ev)
			if !ok {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close stops event delivery and closes the underlying device. It unblocks
// a pending Next.
func (d *Device) Close() error {
	d.cancel()
	if d.dev != nil {
		d.dev.Close()
	}
	return nil
}

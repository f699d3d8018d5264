// SPDX-License-Identifier: Unlicense OR MIT

package evtouch

import (
	"context"

	"github.com/asaskevich/EventBus"
)

// Forward publishes every pointer event read from the device to topic on
// bus. It blocks until ctx is cancelled or the source ends, and reports why
// it stopped: ctx.Err() after cancellation, ErrDeviceClosed after the
// source ended.
//
// Forward drains the device's raw source for its whole run and must not be
// mixed with Next or Poll on the same Device.
func (d *Device) Forward(ctx context.Context, bus EventBus.Bus, topic string) error {
	events := d.Poll(ctx)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return ErrDeviceClosed
			}
			bus.Publish(topic, e)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package hardware

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

const DefaultServoBlaster = "/dev/servoblaster"

// ServoBlaster writes pulse widths to the servoblaster daemon. Values are in the
// daemon's own units, which are half of a microsecond count.
type ServoBlaster struct {
	w       io.WriteCloser
	lock    sync.Mutex
	written map[int]struct{}
}

func OpenServoBlaster(path string) (sb *ServoBlaster, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open servoblaster %s: %w", path, err)
	}

	return NewServoBlaster(f), nil
}

func NewServoBlaster(w io.WriteCloser) *ServoBlaster {
	return &ServoBlaster{
		w:       w,
		written: make(map[int]struct{}),
	}
}

func (sb *ServoBlaster) WritePulseWidth(channel, value int) error {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	return sb.write(channel, value)
}

// Reset stops the pulse train on every channel that has been driven.
func (sb *ServoBlaster) Reset() (err error) {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	channels := make([]int, 0, len(sb.written))
	for ch := range sb.written {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		if werr := sb.write(ch, 0); werr != nil && err == nil {
			err = werr
		}
	}
	return
}

func (sb *ServoBlaster) Close() error {
	sb.lock.Lock()
	defer sb.lock.Unlock()

	return sb.w.Close()
}

func (sb *ServoBlaster) write(channel, value int) error {
	// servoblaster reads one command per line
	if _, err := fmt.Fprintf(sb.w, "%d=%dus\n", channel, value); err != nil {
		return err
	}
	sb.written[channel] = struct{}{}
	return nil
}

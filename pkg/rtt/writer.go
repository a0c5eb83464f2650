package rtt

// Writer is the single-owner write handle of a Channel.
//
// Only one Writer exists per channel at a time (see Channel.TakeWriter), and
// it must not be used from more than one goroutine or interrupt context at
// once. The write path takes no locks; serializing calls is the owner's job.
type Writer struct {
	ch *Channel
}

// Channel returns the channel being written.
func (w *Writer) Channel() *Channel {
	return w.ch
}

// WriteAll places all of p into the ring, in order.
//
// With a host attached it spins whenever the ring is full until the host
// frees space. Otherwise it never waits and overwrites unread bytes when
// the ring overflows. Once the channel is retired the rest of p is dropped.
func (w *Writer) WriteAll(p []byte) {
	if !w.ch.enter() {
		return
	}
	defer w.ch.leave()
	write := w.ch.nonblockingWrite
	// the mode only changes while the device is halted, so one check
	// covers the whole loop
	if !ForceNonBlocking && w.ch.HostConnected() {
		write = w.ch.blockingWrite
	}
	for len(p) > 0 && !w.ch.retired.Load() {
		if n := write(p); n > 0 {
			p = p[n:]
		} else {
			spin()
		}
	}
}

// Write implements io.Writer. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.WriteAll(p)
	return len(p), nil
}

// Flush waits until the host has read everything written.
func (w *Writer) Flush() {
	w.ch.Flush()
}

// Release gives the write token back to the channel. The Writer must not be
// used afterwards.
func (w *Writer) Release() {
	if ch := w.ch; ch != nil {
		w.ch = nil
		ch.taken.Store(false)
	}
}

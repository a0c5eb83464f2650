// Package rtt implements the device side of a real-time transfer up-channel.
package rtt

// An up-channel is a ring buffer living in memory the host can read
// out-of-band (e.g. through a debug probe). The device only ever writes
// bytes and the write cursor; the host only ever reads bytes and advances
// the read cursor. There is no other synchronization than the cursor words
// themselves.
//
// When no host is attached the device may drain the channel locally with
// Channel.Read. Attaching a host is signalled by switching the channel mode
// to ModeBlockIfFull; in that state writes wait for the host and local reads
// always return 0.
//
// Producer: device code holding the channel's Writer
// Consumer: host tooling, or local code calling Channel.Read

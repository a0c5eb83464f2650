// Package probe implements the host side of an up-channel.
//
// The host sees device memory only through a Memory, the same view a debug
// probe has: word loads/stores and block reads at device addresses. It
// locates the control block, switches the channel to blocking mode to
// signal that it is attached, then drains the ring by copying bytes out and
// storing the read cursor.
//
// The device treats the host as an untrusted, asynchronous consumer: the
// only contract between them is the cursor words.
package probe

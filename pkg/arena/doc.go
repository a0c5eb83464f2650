// Package arena provides the memory region an up-channel lives in.
//
// A Region stands in for device RAM. The device lays out a control block,
// the channel name and the ring inside it; host tooling locates the control
// block by its id and reads the channel through checked word and byte
// accessors, the way a debug probe reads target memory.
//
// Regions are either heap backed (New) or backed by a shared file mapping
// (Create, Open) so that a host process can attach to a device process.
package arena

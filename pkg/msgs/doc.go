// Package msgs defines the messages a host publishes about an up-channel.
//
// Messages are protobuf encoded; state.proto is the schema shared with
// non-Go consumers. The Go structs are maintained by hand rather than
// generated: their protobuf struct tags must match the field numbers and
// types in state.proto, and the encoding tests pin the wire bytes.
package msgs

//go:build !rtt_noblock
// +build !rtt_noblock

package rtt

// ForceNonBlocking disables the blocking write discipline. Build with the
// rtt_noblock tag for code that must never stall.
const ForceNonBlocking = false

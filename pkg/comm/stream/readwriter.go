// Package stream frames packets over a byte stream such as an up-channel.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/robotalks/rtt.go/pkg/comm"
)

// HeaderSize is the length prefix of every packet.
const HeaderSize = 4

// DefaultMaxSize bounds packets accepted by a Reader.
const DefaultMaxSize = 1 << 16

// TooLargeError reports a length prefix above the reader's limit.
type TooLargeError struct {
	Size uint32
	Max  uint32
}

// Error implements error.
func (e *TooLargeError) Error() string {
	return fmt.Sprintf("packet too large: %d > %d", e.Size, e.Max)
}

// Writer implements PacketWriter.
// Each packet is prefixed by 4-byte (little-endian) indicating the length.
type Writer struct {
	io.Writer
}

// NewWriter creates a Writer. Passing an *rtt.Writer frames packets
// straight into the channel.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w}
}

// WritePacket implements PacketWriter. Header and payload go out in a single
// Write so the frame is contiguous in the ring.
func (p *Writer) WritePacket(pkt []byte) error {
	frame := make([]byte, HeaderSize+len(pkt))
	binary.LittleEndian.PutUint32(frame, uint32(len(pkt)))
	copy(frame[HeaderSize:], pkt)
	_, err := p.Write(frame)
	return err
}

// Reader implements PacketReader.
type Reader struct {
	io.Reader
	MaxSize uint32
}

// NewReader creates a Reader, e.g. over the host's drained byte stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{Reader: r, MaxSize: DefaultMaxSize}
}

// ReadPacket implements PacketReader.
func (p *Reader) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.Reader, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		return nil, &TooLargeError{Size: size, Max: p.MaxSize}
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.Reader, pkt)
	return pkt, err
}

var _ comm.PacketReadWriter = &ReadWriter{}

// ReadWriter implements PacketReadWriter over one stream.
type ReadWriter struct {
	*Reader
	*Writer
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{Reader: NewReader(s), Writer: NewWriter(s)}
}

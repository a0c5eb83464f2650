package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/rtt.go/pkg/rtt"
)

// ChannelState mirrors message rtt.v1.ChannelState.
type ChannelState struct {
	Name      string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Size      uint64 `protobuf:"varint,2,opt,name=size,proto3" json:"size,omitempty"`
	Write     uint64 `protobuf:"varint,3,opt,name=write,proto3" json:"write,omitempty"`
	Read      uint64 `protobuf:"varint,4,opt,name=read,proto3" json:"read,omitempty"`
	Mode      uint32 `protobuf:"varint,5,opt,name=mode,proto3" json:"mode,omitempty"`
	Used      uint64 `protobuf:"varint,6,opt,name=used,proto3" json:"used,omitempty"`
	Attached  bool   `protobuf:"varint,7,opt,name=attached,proto3" json:"attached,omitempty"`
	Timestamp int64  `protobuf:"varint,8,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *ChannelState) Reset() { *m = ChannelState{} }

// String implements proto.Message.
func (m *ChannelState) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*ChannelState) ProtoMessage() {}

// NewChannelState captures st for the channel called name.
func NewChannelState(name string, st rtt.State, attached bool) *ChannelState {
	return &ChannelState{
		Name:      name,
		Size:      uint64(st.Size),
		Write:     uint64(st.Write),
		Read:      uint64(st.Read),
		Mode:      uint32(st.Mode),
		Used:      uint64(st.Used()),
		Attached:  attached,
		Timestamp: time.Now().UnixNano(),
	}
}

// State converts back to the cursor snapshot.
func (m *ChannelState) State() rtt.State {
	return rtt.State{
		Size:  uintptr(m.Size),
		Write: uintptr(m.Write),
		Read:  uintptr(m.Read),
		Mode:  rtt.Mode(m.Mode) & rtt.ModeMask,
	}
}

// Time returns when the snapshot was taken.
func (m *ChannelState) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode serializes the message.
func (m *ChannelState) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeChannelState parses a serialized ChannelState.
func DecodeChannelState(data []byte) (*ChannelState, error) {
	m := &ChannelState{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

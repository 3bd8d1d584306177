package dhcp4

// MessageType is the value of option 53.
type MessageType uint8

// Recognised message types (spec.md §3).
const (
	MessageTypeDiscover MessageType = 1
	MessageTypeOffer    MessageType = 2
	MessageTypeRequest  MessageType = 3
	MessageTypeDecline  MessageType = 4
	MessageTypeAck      MessageType = 5
	MessageTypeNak      MessageType = 6
	MessageTypeRelease  MessageType = 7
	MessageTypeInform   MessageType = 8
)

func (mt MessageType) String() string {
	switch mt {
	case MessageTypeDiscover:
		return "DISCOVER"
	case MessageTypeOffer:
		return "OFFER"
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeDecline:
		return "DECLINE"
	case MessageTypeAck:
		return "ACK"
	case MessageTypeNak:
		return "NAK"
	case MessageTypeRelease:
		return "RELEASE"
	case MessageTypeInform:
		return "INFORM"
	default:
		return "UNKNOWN"
	}
}

// Known reports whether mt is one of the eight recognised message types.
func (mt MessageType) Known() bool {
	return mt >= MessageTypeDiscover && mt <= MessageTypeInform
}

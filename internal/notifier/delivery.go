package notifier

// Delivery reports what happened to an outbound notification. Local
// persistence always happens first; Delivery only describes the mirror to
// the catalog manager.
type Delivery int

const (
	// DeliverySkipped means no notification was due: integration is
	// disabled, or the checkpoint's point does not notify on this event.
	DeliverySkipped Delivery = iota
	// DeliveryDelivered means the catalog manager accepted the payload.
	DeliveryDelivered
	// DeliveryFailed means the send was attempted and rejected. The local
	// record is already durable; processing continues.
	DeliveryFailed
)

func (d Delivery) String() string {
	switch d {
	case DeliveryDelivered:
		return "delivered"
	case DeliveryFailed:
		return "failed"
	default:
		return "skipped"
	}
}

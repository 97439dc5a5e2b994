package notify

import "time"

type EventType string

const (
	EventRequestSubmitted EventType = "physical_request.submitted"
	EventRequestApproved  EventType = "physical_request.approved"
	EventRequestRejected  EventType = "physical_request.rejected"
	EventRequestCancelled EventType = "physical_request.cancelled"
	EventShipmentUpdated  EventType = "physical_request.shipment_updated"
)

// Event is the structured payload handed to every sink
type Event struct {
	Type          EventType
	LetterID      uint32
	RequestID     string
	BatchID       string
	RecipientName string
	TotalCost     int64
	Status        string
	OccurredAt    time.Time
}

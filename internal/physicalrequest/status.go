package physicalrequest

import (
	"slices"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
)

type Event string

const (
	EventSubmit        Event = "submit"
	EventApprove       Event = "approve"
	EventReject        Event = "reject"
	EventStartWriting  Event = "start_writing"
	EventMarkSent      Event = "mark_sent"
	EventMarkDelivered Event = "mark_delivered"
	EventCancel        Event = "cancel"
	EventMarkFailed    Event = "mark_failed"
)

type Actor string

const (
	ActorSystem    Actor = "system"
	ActorRequester Actor = "requester"
	ActorAuthor    Actor = "author"
	ActorAdmin     Actor = "admin"
)

type rule struct {
	from   []model.PhysicalRequestStatus
	to     model.PhysicalRequestStatus
	actors []Actor
}

var transitions = map[Event]rule{
	EventSubmit: {
		from:   []model.PhysicalRequestStatus{""},
		to:     model.StatusPending,
		actors: []Actor{ActorSystem},
	},
	EventApprove: {
		from:   []model.PhysicalRequestStatus{model.StatusPending},
		to:     model.StatusApproved,
		actors: []Actor{ActorSystem, ActorAuthor, ActorAdmin},
	},
	EventReject: {
		from:   []model.PhysicalRequestStatus{model.StatusPending},
		to:     model.StatusRejected,
		actors: []Actor{ActorAuthor, ActorAdmin},
	},
	EventStartWriting: {
		from:   []model.PhysicalRequestStatus{model.StatusApproved},
		to:     model.StatusWriting,
		actors: []Actor{ActorAdmin},
	},
	EventMarkSent: {
		from:   []model.PhysicalRequestStatus{model.StatusWriting},
		to:     model.StatusSent,
		actors: []Actor{ActorAdmin},
	},
	EventMarkDelivered: {
		from:   []model.PhysicalRequestStatus{model.StatusSent},
		to:     model.StatusDelivered,
		actors: []Actor{ActorAdmin},
	},
	EventCancel: {
		from:   []model.PhysicalRequestStatus{model.StatusPending, model.StatusApproved, model.StatusWriting},
		to:     model.StatusCancelled,
		actors: []Actor{ActorRequester},
	},
	EventMarkFailed: {
		from:   []model.PhysicalRequestStatus{model.StatusWriting, model.StatusSent},
		to:     model.StatusFailed,
		actors: []Actor{ActorAdmin},
	},
}

// shipmentEvents maps an admin shipment target status to its event
var shipmentEvents = map[model.PhysicalRequestStatus]Event{
	model.StatusWriting:   EventStartWriting,
	model.StatusSent:      EventMarkSent,
	model.StatusDelivered: EventMarkDelivered,
	model.StatusFailed:    EventMarkFailed,
}

// Transition returns the status reached by applying event to from on behalf of actor.
// A cancel that is not allowed reports ErrAlreadyTerminal for terminal states and for
// sent, which is still in flight but already out of the requester's hands.
func Transition(from model.PhysicalRequestStatus, event Event, actor Actor) (model.PhysicalRequestStatus, error) {
	r, ok := transitions[event]
	if !ok {
		return from, &TransitionError{From: from, To: ""}
	}
	if !slices.Contains(r.actors, actor) {
		return from, ErrAccessDenied
	}
	if slices.Contains(r.from, from) {
		return r.to, nil
	}

	switch event {
	case EventApprove, EventReject:
		return from, ErrAlreadyProcessed
	case EventCancel:
		return from, ErrAlreadyTerminal
	}
	return from, &TransitionError{From: from, To: r.to}
}

// InitialStatus is the status a new request is created in
func InitialStatus(mode WorkflowMode) model.PhysicalRequestStatus {
	status, _ := Transition("", EventSubmit, ActorSystem)
	if !mode.RequiresApproval {
		status, _ = Transition(status, EventApprove, ActorSystem)
	}
	return status
}

// bucket is the contribution of one request in status s to its letter's counters
func bucket(s model.PhysicalRequestStatus) letter.Counters {
	switch s {
	case model.StatusPending:
		return letter.Counters{Pending: 1}
	case model.StatusApproved, model.StatusWriting, model.StatusSent, model.StatusFailed:
		return letter.Counters{Approved: 1}
	case model.StatusDelivered:
		return letter.Counters{Approved: 1, Completed: 1}
	case model.StatusRejected:
		return letter.Counters{Rejected: 1}
	}
	return letter.Counters{}
}

// SubmitDelta is the counter change for n new requests created in status s
func SubmitDelta(s model.PhysicalRequestStatus, n int64) letter.Counters {
	return letter.Counters{Total: 1}.Add(bucket(s)).Scale(n)
}

// TransitionDelta is the counter change for one request moving from -> to
func TransitionDelta(from, to model.PhysicalRequestStatus) letter.Counters {
	return bucket(to).Sub(bucket(from))
}

// RecountFrom rebuilds letter counters from per-status request counts
func RecountFrom(counts map[model.PhysicalRequestStatus]int64) letter.Counters {
	var c letter.Counters
	for status, n := range counts {
		c = c.Add(SubmitDelta(status, n))
	}
	return c
}

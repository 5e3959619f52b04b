package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeFaultCreated      = "fault.created"
	EventTypeFaultTransitioned = "fault.transitioned"
	EventTypeFaultDeleted      = "fault.deleted"
)

// FaultEventTypes lists every fault lifecycle event.
var FaultEventTypes = []string{
	EventTypeFaultCreated,
	EventTypeFaultTransitioned,
	EventTypeFaultDeleted,
}

type FaultCreatedEvent struct {
	BaseEvent
	FaultID    int64
	SectionID  int64
	MachineID  int64
	ReportedBy int64
	ActorRole  string
}

func NewFaultCreatedEvent(faultID, sectionID, machineID, reportedBy int64, actorRole string) *FaultCreatedEvent {
	return &FaultCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeFaultCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"fault_id":    faultID,
				"section_id":  sectionID,
				"machine_id":  machineID,
				"reported_by": reportedBy,
				"actor_role":  actorRole,
			},
		},
		FaultID:    faultID,
		SectionID:  sectionID,
		MachineID:  machineID,
		ReportedBy: reportedBy,
		ActorRole:  actorRole,
	}
}

type FaultTransitionedEvent struct {
	BaseEvent
	FaultID   int64
	FromState string
	ToState   string
	ActorID   int64
	ActorRole string
}

func NewFaultTransitionedEvent(faultID int64, from, to string, actorID int64, actorRole string) *FaultTransitionedEvent {
	return &FaultTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeFaultTransitioned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"fault_id":   faultID,
				"from_state": from,
				"to_state":   to,
				"actor_id":   actorID,
				"actor_role": actorRole,
			},
		},
		FaultID:   faultID,
		FromState: from,
		ToState:   to,
		ActorID:   actorID,
		ActorRole: actorRole,
	}
}

type FaultDeletedEvent struct {
	BaseEvent
	FaultID int64
	ActorID int64
}

func NewFaultDeletedEvent(faultID, actorID int64) *FaultDeletedEvent {
	return &FaultDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeFaultDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"fault_id": faultID,
				"actor_id": actorID,
			},
		},
		FaultID: faultID,
		ActorID: actorID,
	}
}

const EventTypeFaultRejected = "fault.rejected"

// FaultRejectedEvent reports a mutation the workflow or the store refused.
// It does not change any fault and is not part of FaultEventTypes.
type FaultRejectedEvent struct {
	BaseEvent
	Kind      string
	ActorID   int64
	ActorRole string
}

func NewFaultRejectedEvent(kind string, actorID int64, actorRole string) *FaultRejectedEvent {
	return &FaultRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeFaultRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"kind":       kind,
				"actor_id":   actorID,
				"actor_role": actorRole,
			},
		},
		Kind:      kind,
		ActorID:   actorID,
		ActorRole: actorRole,
	}
}

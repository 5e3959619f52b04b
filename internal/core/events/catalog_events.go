package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeCatalogChanged = "catalog.changed"

// CatalogChangedEvent reports a change to sections, machines or users.
type CatalogChangedEvent struct {
	BaseEvent
	Entity string
	Action string
	Ref    int64
}

func NewCatalogChangedEvent(entity, action string, ref int64) *CatalogChangedEvent {
	return &CatalogChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeCatalogChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity": entity,
				"action": action,
				"id":     ref,
			},
		},
		Entity: entity,
		Action: action,
		Ref:    ref,
	}
}

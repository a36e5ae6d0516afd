package event

import (
	"github.com/google/uuid"
)

// Meta identifies the object an event is about, as it was when the event
// was built. ID is -1 for inactive objects.
type Meta struct {
	ID   int
	Name string
	UUID uuid.UUID
}

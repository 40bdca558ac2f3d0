package messaging

import (
	"time"

	"github.com/google/uuid"
)

// AnamneseChannel carries record lifecycle events.
const AnamneseChannel = "anamnese.events"

const (
	EventAnamneseCreated  = "anamnese.created"
	EventAnamneseUpdated  = "anamnese.updated"
	EventAnamneseDeleted  = "anamnese.deleted"
	EventSummaryGenerated = "anamnese.summary_generated"
)

// LifecycleEvent identifies what happened to which record. It never carries clinical content.
type LifecycleEvent struct {
	AnamneseID uuid.UUID `json:"anamnese_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

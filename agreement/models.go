package agreement

import "time"

// TimelineEvent captures an immutable business event for an agreement.
type TimelineEvent struct {
	ID          int64
	AgreementID string
	Seq         int
	Type        string
	ActorID     *string
	CreatedAt   time.Time
	Payload     []byte
}

// OutboxMessage represents a transactional outbox entry.
type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	Status    string
	Attempts  int
	CreatedAt time.Time
}

// TerminationParams enumerates the writes executed inside a single transaction
// when an agreement is terminated.
type TerminationParams struct {
	AgreementID     string
	ActorID         *string
	Reason          string
	TimelinePayload map[string]any
	OutboxTopic     string
	OutboxPayload   map[string]any
}

const (
	// OutboxTopicAgreementCreated is published when a draft agreement is recorded.
	OutboxTopicAgreementCreated = "agreement.created"
	// OutboxTopicStatusChanged is published on every lifecycle transition.
	OutboxTopicStatusChanged = "agreement.status_changed"
	// OutboxTopicAgreementTerminated is published when an agreement reaches terminated.
	OutboxTopicAgreementTerminated = "agreement.terminated"
)

const (
	eventAgreementCreated = "AGREEMENT_CREATED"
	eventStatusChanged    = "AGREEMENT_STATUS_CHANGED"
	eventTerminated       = "AGREEMENT_TERMINATED"
)

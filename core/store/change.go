package store

import "time"

// RecordKind identifies which record collection changed.
type RecordKind string

const (
	KindSession    RecordKind = "sessions"
	KindQueueEntry RecordKind = "queue_entries"
)

// ChangeAction identifies the mutation applied to a record.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
)

// RecordChange is pushed to subscribed consumers after every durable
// mutation so read models can refresh without polling.
type RecordChange struct {
	Kind        RecordKind   `json:"kind"`
	Action      ChangeAction `json:"action"`
	RecordID    string       `json:"record_id"`
	RequesterID string       `json:"requester_id,omitempty"`
	At          time.Time    `json:"at"`
}

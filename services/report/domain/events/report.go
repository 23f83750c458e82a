package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published by the report service. Both events are written
// through the transactional publisher so they commit atomically with the
// report/item rows they describe.
const (
	TopicReportCreated = "report.created"
	TopicReportDeleted = "report.deleted"
)

// ReportCreatedEvent is published after a new Report and its Item are persisted.
type ReportCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	ReportID   uuid.UUID `json:"report_id"`
	ReporterID uuid.UUID `json:"reporter_id"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReportDeletedEvent is published when a report and its item are removed.
// ImagePublicIDs carries the object-store handles that still need purging;
// the worker retries the purge so inline best-effort cleanup has a safety net.
type ReportDeletedEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	Version        int       `json:"version"`
	ReportID       uuid.UUID `json:"report_id"`
	ReporterID     uuid.UUID `json:"reporter_id"`
	ImagePublicIDs []string  `json:"image_public_ids"`
	OccurredAt     time.Time `json:"occurred_at"`
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reporter is the identity projection of the user owning a report,
// populated from the joined users row on read paths.
type Reporter struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Report is the core aggregate: a user-submitted lost/found posting.
// ReporterID and ItemID are immutable after creation; every report owns
// exactly one item and that item is never shared.
type Report struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Type        ReportType `json:"type"`
	Location    string     `json:"location"`
	Date        time.Time  `json:"date"`
	ContactInfo string     `json:"contact_info"`
	Reward      string     `json:"reward,omitempty"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	ItemID      uuid.UUID  `json:"item_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined projections, populated on read paths.
	Item     *Item     `json:"item,omitempty"`
	Reporter *Reporter `json:"reporter,omitempty"`
}

// NewReport constructs a valid Report aggregate with generated ID and current timestamps.
func NewReport(title string, typ ReportType, location string, date time.Time, contactInfo, reward string, reporterID, itemID uuid.UUID) (*Report, error) {
	if title == "" {
		return nil, fmt.Errorf("report title is required")
	}
	if location == "" {
		return nil, fmt.Errorf("report location is required")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("report date is required")
	}
	if contactInfo == "" {
		return nil, fmt.Errorf("report contact info is required")
	}
	if reporterID == uuid.Nil {
		return nil, fmt.Errorf("report reporter is required")
	}
	if itemID == uuid.Nil {
		return nil, fmt.Errorf("report item is required")
	}

	now := time.Now().UTC()
	return &Report{
		ID:          uuid.New(),
		Title:       title,
		Type:        typ,
		Location:    location,
		Date:        date,
		ContactInfo: contactInfo,
		Reward:      reward,
		ReporterID:  reporterID,
		ItemID:      itemID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxItemImages bounds the image list of a single item.
const MaxItemImages = 5

// Image is the stable handle of an uploaded photo in the object store.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Item describes the physical object attached 1:1 to a Report. It has no
// independent lifecycle: items are created, mutated and deleted only through
// their parent report.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  uuid.UUID `json:"category_id"`
	// CategoryName is populated on read paths from the joined category row.
	CategoryName string    `json:"category_name,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Color        string    `json:"color,omitempty"`
	UniqueMarks  string    `json:"unique_marks,omitempty"`
	Images       []Image   `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewItem constructs a valid Item aggregate with generated ID and current timestamp.
func NewItem(name, description string, categoryID uuid.UUID, brand, color, uniqueMarks string, images []Image) (*Item, error) {
	if name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if description == "" {
		return nil, fmt.Errorf("item description is required")
	}
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("item category is required")
	}
	if len(images) > MaxItemImages {
		return nil, fmt.Errorf("item allows at most %d images, got %d", MaxItemImages, len(images))
	}

	now := time.Now().UTC()
	return &Item{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CategoryID:  categoryID,
		Brand:       brand,
		Color:       color,
		UniqueMarks: uniqueMarks,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanAddImages reports whether n more images fit under the MaxItemImages cap.
func (i *Item) CanAddImages(n int) bool {
	return len(i.Images)+n <= MaxItemImages
}

// PublicIDs returns the object-store handles of all images on the item.
func (i *Item) PublicIDs() []string {
	ids := make([]string, len(i.Images))
	for j, img := range i.Images {
		ids[j] = img.PublicID
	}
	return ids
}

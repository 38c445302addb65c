package domain

import "strings"

// Category is a pipeline stage a client occupies.
type Category string

const (
	CategoryProspect   Category = "prospect"
	CategoryInProgress Category = "in-progress"
	CategoryClosed     Category = "closed"
)

// Categories lists the valid stages in board order.
var Categories = []Category{CategoryProspect, CategoryInProgress, CategoryClosed}

var categoryLabels = map[Category]string{
	CategoryProspect:   "Prospect",
	CategoryInProgress: "In Progress",
	CategoryClosed:     "Closed",
}

// ParseCategory returns the category for a raw value. Only the three defined
// stages are valid write targets.
func ParseCategory(raw string) (Category, bool) {
	c := Category(raw)
	_, ok := categoryLabels[c]
	return c, ok
}

// DisplayLabel returns the label shown on a card tag. Unrecognized values
// persisted by older or corrupted blobs still render as their raw string.
func (c Category) DisplayLabel() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Client represents a single board card.
type Client struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Category  Category `json:"category"`
	CreatedAt string   `json:"createdAt"`
}

// ClientFields carries the mutable fields of a client. Nil pointers mean the
// field was omitted and keeps its prior value on merge.
type ClientFields struct {
	Name     *string   `json:"name"`
	Email    *string   `json:"email"`
	Phone    *string   `json:"phone"`
	Category *Category `json:"category"`
}

// Trim strips leading and trailing whitespace from the text fields. Empty
// values stay accepted; trimming is the only normalization applied before
// storage.
func (f *ClientFields) Trim() {
	if f.Name != nil {
		*f.Name = strings.TrimSpace(*f.Name)
	}
	if f.Email != nil {
		*f.Email = strings.TrimSpace(*f.Email)
	}
	if f.Phone != nil {
		*f.Phone = strings.TrimSpace(*f.Phone)
	}
}

// Merge overwrites the client's fields with every field present in f.
// ID and CreatedAt are never touched.
func (c *Client) Merge(f ClientFields) {
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Email != nil {
		c.Email = *f.Email
	}
	if f.Phone != nil {
		c.Phone = *f.Phone
	}
	if f.Category != nil {
		c.Category = *f.Category
	}
}

// DisplayName is the human-readable identifier used in confirmation prompts
// and reminder alerts.
func (c Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return "(unnamed)"
}

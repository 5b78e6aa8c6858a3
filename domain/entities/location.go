package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Location is a city a user marked as favorite. (UserID, City) is unique among live rows.
type Location struct {
	ID        string     `json:"id"`
	City      string     `json:"city"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// NewLocation creates a favorite with the city normalized.
func NewLocation(userID, city string) *Location {
	now := time.Now().UTC()
	return &Location{
		ID:        uuid.NewString(),
		City:      NormalizeCity(city),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeCity lowercases and trims a city name.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// IsOwnedBy reports whether userID owns the location.
func (l *Location) IsOwnedBy(userID string) bool {
	return l.UserID == userID
}

// IsDeleted reports whether the location has been soft deleted.
func (l *Location) IsDeleted() bool {
	return l.DeletedAt != nil
}

// SoftDelete marks the location as deleted.
func (l *Location) SoftDelete(at time.Time) {
	at = at.UTC()
	l.DeletedAt = &at
	l.UpdatedAt = at
}

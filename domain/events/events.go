package events

import "time"

// Source is the event source name used on the bus.
const Source = "weather-api"

// Event types
const (
	TypeUserRegistered    = "user.registered"
	TypeUserDeleted       = "user.deleted"
	TypeLocationFavorited = "location.favorited"
	TypeLocationRemoved   = "location.removed"
)

// DomainEvent is something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// UserRegistered is raised after a successful signup
type UserRegistered struct {
	BaseEvent
	Email string `json:"email"`
}

// NewUserRegistered creates a UserRegistered event
func NewUserRegistered(userID, email string, at time.Time) UserRegistered {
	return UserRegistered{
		BaseEvent: BaseEvent{AggregateID: userID, EventType: TypeUserRegistered, Timestamp: at},
		Email:     email,
	}
}

// UserDeleted is raised after an account is soft deleted
type UserDeleted struct {
	BaseEvent
}

// NewUserDeleted creates a UserDeleted event
func NewUserDeleted(userID string, at time.Time) UserDeleted {
	return UserDeleted{
		BaseEvent: BaseEvent{AggregateID: userID, EventType: TypeUserDeleted, Timestamp: at},
	}
}

// LocationFavorited is raised when a user adds a city
type LocationFavorited struct {
	BaseEvent
	UserID string `json:"user_id"`
	City   string `json:"city"`
}

// NewLocationFavorited creates a LocationFavorited event
func NewLocationFavorited(locationID, userID, city string, at time.Time) LocationFavorited {
	return LocationFavorited{
		BaseEvent: BaseEvent{AggregateID: locationID, EventType: TypeLocationFavorited, Timestamp: at},
		UserID:    userID,
		City:      city,
	}
}

// LocationRemoved is raised when a favorite is soft deleted
type LocationRemoved struct {
	BaseEvent
	UserID string `json:"user_id"`
	City   string `json:"city"`
}

// NewLocationRemoved creates a LocationRemoved event
func NewLocationRemoved(locationID, userID, city string, at time.Time) LocationRemoved {
	return LocationRemoved{
		BaseEvent: BaseEvent{AggregateID: locationID, EventType: TypeLocationRemoved, Timestamp: at},
		UserID:    userID,
		City:      city,
	}
}

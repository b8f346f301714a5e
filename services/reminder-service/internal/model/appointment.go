package model

import "time"

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

type Appointment struct {
	ID                 int64
	CustomerID         int64
	ServiceType        string
	AppointmentTime    time.Time
	Status             string
	NotificationSent   bool
	ReminderCount      int
	LastReminderSentAt *time.Time
}

type Customer struct {
	ID          int64
	FullName    string
	PhoneNumber string
	Email       string
}

// ReminderCandidate is an appointment joined with its customer's contact
// info, as returned by the candidate query.
type ReminderCandidate struct {
	Appointment Appointment
	Customer    Customer
}

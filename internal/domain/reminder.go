package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReminderTitle is the heading of every treatment check notification.
const ReminderTitle = "Treatment Check Reminder"

// Reminder asks for a treatment follow-up check at Due.
type Reminder struct {
	TreatmentID uuid.UUID `json:"treatmentId"`
	HiveName    string    `json:"hiveName"`
	Product     string    `json:"product"`
	Due         time.Time `json:"due"`
}

// Notification is what the user sees when a reminder fires.
type Notification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notification renders the reminder for delivery under id.
func (r Reminder) Notification(id string) Notification {
	return Notification{
		ID:    id,
		Title: ReminderTitle,
		Body:  fmt.Sprintf("Time to check treatment for %s: %s", r.HiveName, r.Product),
	}
}

package domain

import "time"

// NotificationType is the closed set of feed entry kinds.
type NotificationType string

const (
	NotificationBirthday       NotificationType = "birthday"
	NotificationAnniversary    NotificationType = "anniversary"
	NotificationFollowup       NotificationType = "followup"
	NotificationTodo           NotificationType = "todo"
	NotificationSeasonal       NotificationType = "seasonal"
	NotificationMilestone      NotificationType = "milestone"
	NotificationMealGeneration NotificationType = "meal_generation"
	NotificationError          NotificationType = "error"
	NotificationInfo           NotificationType = "info"
)

// Known reports whether t belongs to the closed set.
func (t NotificationType) Known() bool {
	switch t {
	case NotificationBirthday, NotificationAnniversary, NotificationFollowup, NotificationTodo,
		NotificationSeasonal, NotificationMilestone, NotificationMealGeneration,
		NotificationError, NotificationInfo:
		return true
	}
	return false
}

// Navigation targets understood by consumer views.
const (
	TargetPlanEditor = "plan_editor"
	TargetSlotPicker = "slot_picker"
	TargetClient     = "client"
)

// NotificationContext is consumer-defined data carried by a notification so a
// click-through can reopen the right view pre-loaded.
type NotificationContext struct {
	ClientName  string       `json:"client_name,omitempty"`
	PlanID      int64        `json:"plan_id,omitempty"`
	Slot        *SlotContext `json:"slot,omitempty"`
	JobID       string       `json:"job_id,omitempty"`
	Target      string       `json:"target,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Clone returns a deep copy of the context.
func (c NotificationContext) Clone() NotificationContext {
	out := c
	if c.Slot != nil {
		slot := *c.Slot
		out.Slot = &slot
	}
	out.Suggestions = CloneSuggestions(c.Suggestions)
	return out
}

// Notification is one entry of the persistent feed.
type Notification struct {
	ID        string              `json:"id"`
	Type      NotificationType    `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
	Read      bool                `json:"read"`
	Context   NotificationContext `json:"context"`
}

// Clone returns a deep copy of the notification.
func (n Notification) Clone() Notification {
	out := n
	out.Context = n.Context.Clone()
	return out
}

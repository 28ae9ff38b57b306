package domain

import (
	"fmt"
	"strings"
)

// Mode enumerates the generation request kinds accepted by the generation service.
type Mode string

const (
	ModeFullWeek   Mode = "full_week"
	ModeFillEmpty  Mode = "fill_empty"
	ModeSingleSlot Mode = "single_slot"
)

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeFullWeek, ModeFillEmpty, ModeSingleSlot:
		return true
	}
	return false
}

// SlotContext pins a generation to one day/meal of a plan.
type SlotContext struct {
	Day      string `json:"day"`
	MealType string `json:"meal_type"`
	Date     string `json:"date,omitempty"`
}

// Scope is the target of a generation job and the unit of deduplication.
type Scope struct {
	PlanID int64        `json:"plan_id"`
	Slot   *SlotContext `json:"slot,omitempty"`
}

// Key returns the deduplication key. A slot is identified by its day; Date
// only identifies it when Day is empty.
func (s Scope) Key() string {
	if s.Slot == nil {
		return fmt.Sprintf("plan:%d", s.PlanID)
	}
	when := strings.ToLower(strings.TrimSpace(s.Slot.Day))
	if when == "" {
		when = "date:" + strings.TrimSpace(s.Slot.Date)
	}
	return fmt.Sprintf("plan:%d/%s/%s",
		s.PlanID,
		when,
		strings.ToLower(strings.TrimSpace(s.Slot.MealType)),
	)
}

// Clone returns a deep copy so callers cannot mutate registry-owned slots.
func (s Scope) Clone() Scope {
	if s.Slot == nil {
		return s
	}
	slot := *s.Slot
	return Scope{PlanID: s.PlanID, Slot: &slot}
}

// Validate checks that the scope is consistent with the requested mode.
func (s Scope) Validate(mode Mode) error {
	if s.PlanID <= 0 {
		return fmt.Errorf("%w: plan id must be positive", ErrInvalidScope)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidScope, mode)
	}
	if mode == ModeSingleSlot {
		if s.Slot == nil {
			return fmt.Errorf("%w: single_slot requires a slot", ErrInvalidScope)
		}
		if strings.TrimSpace(s.Slot.Day) == "" && strings.TrimSpace(s.Slot.Date) == "" {
			return fmt.Errorf("%w: slot requires a day or date", ErrInvalidScope)
		}
		if strings.TrimSpace(s.Slot.MealType) == "" {
			return fmt.Errorf("%w: slot requires a meal type", ErrInvalidScope)
		}
		return nil
	}
	if s.Slot != nil {
		return fmt.Errorf("%w: %s does not take a slot", ErrInvalidScope, mode)
	}
	return nil
}

package domain

import (
	"errors"
	"strings"
)

// Suggestion is one generated meal proposal for a plan slot.
type Suggestion struct {
	Day            string   `json:"day,omitempty"`
	Date           string   `json:"date,omitempty"`
	MealType       string   `json:"meal_type"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	DietaryTags    []string `json:"dietary_tags,omitempty"`
	HouseholdNotes *string  `json:"household_notes,omitempty"`
}

// Normalize trims whitespace and canonicalizes the meal type.
func (s *Suggestion) Normalize() {
	s.Day = strings.TrimSpace(s.Day)
	s.Date = strings.TrimSpace(s.Date)
	s.MealType = strings.ToLower(strings.TrimSpace(s.MealType))
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	if s.HouseholdNotes != nil {
		notes := strings.TrimSpace(*s.HouseholdNotes)
		if notes == "" {
			s.HouseholdNotes = nil
		} else {
			s.HouseholdNotes = &notes
		}
	}
	tags := s.DietaryTags[:0]
	for _, tag := range s.DietaryTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}
	s.DietaryTags = tags
}

// Validate reports whether the suggestion carries the fields consumers rely on.
func (s Suggestion) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("suggestion: name is required")
	case s.MealType == "":
		return errors.New("suggestion: meal_type is required")
	case s.Day == "" && s.Date == "":
		return errors.New("suggestion: day or date is required")
	}
	return nil
}

// CloneSuggestions copies a result payload so stored results stay immutable.
func CloneSuggestions(in []Suggestion) []Suggestion {
	if in == nil {
		return nil
	}
	out := make([]Suggestion, len(in))
	for i, s := range in {
		out[i] = s
		if s.DietaryTags != nil {
			out[i].DietaryTags = append([]string(nil), s.DietaryTags...)
		}
		if s.HouseholdNotes != nil {
			notes := *s.HouseholdNotes
			out[i].HouseholdNotes = &notes
		}
	}
	return out
}

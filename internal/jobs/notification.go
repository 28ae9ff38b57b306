package jobs

import (
	"strings"

	"chefconsole/internal/domain"
	"chefconsole/internal/i18n"
)

// notificationFor renders the feed entry for a job that just finished.
func (r *Registry) notificationFor(job *Job, out Outcome) domain.Notification {
	tr := r.translator
	locale := job.Locale
	client := job.ClientName
	if client == "" {
		client = tr.Sprintf(locale, i18n.KeyUnknownClient)
	}

	target := domain.TargetPlanEditor
	if job.Mode == domain.ModeSingleSlot {
		target = domain.TargetSlotPicker
	}
	ctx := domain.NotificationContext{
		ClientName: job.ClientName,
		PlanID:     job.Scope.PlanID,
		JobID:      job.ID,
		Target:     target,
	}
	if job.Scope.Slot != nil {
		slot := *job.Scope.Slot
		ctx.Slot = &slot
	}

	if job.Status == StatusFailed {
		reason := strings.TrimSpace(out.Message)
		switch {
		case out.Exhausted:
			reason = tr.Sprintf(locale, i18n.KeyPollExhausted)
		case reason == "":
			reason = tr.Sprintf(locale, i18n.KeyFailedNoReason)
		}
		return domain.Notification{
			Type:    domain.NotificationError,
			Title:   tr.Sprintf(locale, i18n.KeyFailedTitle),
			Message: tr.Sprintf(locale, i18n.KeyFailedMessage, client, reason),
			Context: ctx,
		}
	}

	ctx.Suggestions = domain.CloneSuggestions(job.Result)
	if job.Mode == domain.ModeSingleSlot && job.Scope.Slot != nil {
		slot := job.Scope.Slot
		when := slot.Day
		if strings.TrimSpace(when) == "" {
			when = slot.Date
		}
		return domain.Notification{
			Type:  domain.NotificationMealGeneration,
			Title: tr.Sprintf(locale, i18n.KeySlotReadyTitle),
			Message: tr.Sprintf(locale, i18n.KeySlotReadyMessage,
				tr.Title(locale, when), tr.Title(locale, slot.MealType), client),
			Context: ctx,
		}
	}
	return domain.Notification{
		Type:    domain.NotificationMealGeneration,
		Title:   tr.Sprintf(locale, i18n.KeyPlanReadyTitle),
		Message: tr.Sprintf(locale, i18n.KeyPlanReadyMessage, len(job.Result), client),
		Context: ctx,
	}
}

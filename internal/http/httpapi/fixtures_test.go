package httpapi

import "chefconsole/internal/domain"

func notificationFixture(title string) domain.Notification {
	return domain.Notification{
		Type:    domain.NotificationTodo,
		Title:   title,
		Message: title + " message",
	}
}

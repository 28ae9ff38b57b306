package handlers

import (
	"net/http"

	"chefconsole/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func (a *App) ListNotifications(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"items":  a.Session.Store.List(),
		"unread": a.Session.Store.UnreadCount(),
	})
}

func (a *App) UnreadCount(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]int{"unread": a.Session.Store.UnreadCount()})
}

func (a *App) LatestUnread(w http.ResponseWriter, r *http.Request) {
	n := a.Session.Store.LatestUnread()
	if n == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.json(w, http.StatusOK, n)
}

func (a *App) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Store.MarkRead(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"unread": a.Session.Store.UnreadCount()})
}

func (a *App) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	changed := a.Session.Store.MarkAllRead()
	a.json(w, http.StatusOK, map[string]int{"updated": changed, "unread": 0})
}

func (a *App) ClearNotification(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Store.Clear(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ClearAll(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]int{"cleared": a.Session.Store.ClearAll()})
}

// OpenNotification is the click-through from the persistent feed. A stale id
// answers with a not-found handoff so the view can render a graceful state.
func (a *App) OpenNotification(w http.ResponseWriter, r *http.Request) {
	h := a.Session.Toast.Open(r.Context(), chi.URLParam(r, "id"), middleware.LocaleFromContext(r.Context()))
	a.json(w, http.StatusOK, h)
}

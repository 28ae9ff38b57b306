package handlers

import (
	"net/http"

	"chefconsole/internal/middleware"
)

func (a *App) ToastView(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Session.Toast.View())
}

func (a *App) ToastDismiss(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]bool{"dismissed": a.Session.Toast.Dismiss()})
}

func (a *App) ToastClick(w http.ResponseWriter, r *http.Request) {
	h, err := a.Session.Toast.Click(r.Context(), middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, h)
}

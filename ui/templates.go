package ui

import (
	"bytes"
	"net/http"

	apperrors "simflow/internal/errors"
)

// renderTemplate executes a template into a buffer first so that a failing
// template never sends a partial page
func (a *App) renderTemplate(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s failed: %v", name, err)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("failed to write %s: %v", name, err)
	}
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

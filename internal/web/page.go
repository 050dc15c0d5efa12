package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"cpcal/internal/calendar"
	appLog "cpcal/internal/log"
	"cpcal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"lower": func(p model.Platform) string { return strings.ToLower(string(p)) },
}).ParseFS(templateFS, "templates/calendar.html"))

// handleCalendarPage renders the month as static HTML. The root element
// carries data-ready="true" so headless capture can wait for it.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseCalendarQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := s.buildView(r, q)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, calendar.ErrInvalidMonth) || errors.Is(err, calendar.ErrInvalidWeekday) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	if view.Lang == "" {
		view.Lang = s.cfg.Language
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		appLog.Error("calendar page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

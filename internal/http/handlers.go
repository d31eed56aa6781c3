package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"bikedash/internal/amqp"
	"bikedash/internal/export"
	"bikedash/internal/export/excel"
	applog "bikedash/internal/log"
	"bikedash/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady answers 503 until the first snapshot is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.snapshots.Current() == nil {
		http.Error(w, errNotLoaded.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	page := pageView{ExportsEnabled: s.exports.Enabled()}
	status := http.StatusOK

	q, err := s.parseRange(r)
	if err != nil {
		status = rangeStatus(err)
		page.Error = rangeMessage(err)
		page.Start = r.FormValue("start")
		page.End = r.FormValue("end")
	} else {
		page.Start, page.End = q.r.Start.String(), q.r.End.String()
		page.Version = q.snap.Version
		if span, ok := services.DefaultRange(q.snap); ok {
			page.MinDate, page.MaxDate = span.Start.String(), span.End.String()
		}

		d, err := s.dashboard(r.Context(), q)
		if err != nil {
			logger.ErrorContext(r.Context(), "Dashboard build failed", applog.FieldRange, q.r.String(), applog.FieldError, err)
			status = http.StatusInternalServerError
			page.Error = "could not build the dashboard"
		} else {
			if d.Daily.OK() {
				page.Total = formatCount(d.Daily.Data.Total)
			}
			for _, name := range services.PanelNames {
				v, _ := panelViewFor(d, name)
				page.Panels = append(page.Panels, v)
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err, "template", "index.html")
	}
}

// handlePanel renders one panel partial. A failed panel renders its
// placeholder with status 200 so the rest of the page is unaffected.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("panel")
	logger := applog.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, known := panelTitles[name]; !known {
		w.WriteHeader(http.StatusNotFound)
		writePlaceholder(w, name, "Unknown panel")
		return
	}

	q, err := s.parseRange(r)
	if err != nil {
		w.WriteHeader(rangeStatus(err))
		writePlaceholder(w, name, rangeMessage(err))
		return
	}

	d, err := s.dashboard(r.Context(), q)
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard build failed", applog.FieldPanel, name, applog.FieldRange, q.r.String(), applog.FieldError, err)
		w.WriteHeader(http.StatusInternalServerError)
		writePlaceholder(w, name, "Could not build the dashboard")
		return
	}

	v, _ := panelViewFor(d, name)
	if v.Error != "" {
		logger.WarnContext(r.Context(), "Panel rendered as placeholder", applog.FieldPanel, name, applog.FieldRange, q.r.String())
	}
	if s.templates == nil {
		writePlaceholder(w, name, "Templates not loaded")
		return
	}
	if err := s.templates.ExecuteTemplate(w, "panel.html", v); err != nil {
		logger.ErrorContext(r.Context(), "Template execution error", applog.FieldError, err, applog.FieldPanel, name)
		writePlaceholder(w, name, "Could not render this panel")
	}
}

func writePlaceholder(w http.ResponseWriter, panel, msg string) {
	_, _ = w.Write([]byte(`<section id="panel-` + template.HTMLEscapeString(panel) + `" class="panel"><div class="placeholder">` +
		template.HTMLEscapeString(msg) + `</div></section>`))
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseRange(r)
	if err != nil {
		writeJSONError(w, rangeStatus(err), rangeMessage(err))
		return
	}

	d, err := s.dashboard(r.Context(), q)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard build failed", applog.FieldRange, q.r.String(), applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "could not build the dashboard")
		return
	}
	writeJSON(w, http.StatusOK, newDashboardJSON(d))
}

func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	q, err := s.parseRange(r)
	if err != nil {
		http.Error(w, rangeMessage(err), rangeStatus(err))
		return
	}

	d, err := s.dashboard(r.Context(), q)
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard build failed", applog.FieldRange, q.r.String(), applog.FieldError, err)
		http.Error(w, "could not build the dashboard", http.StatusInternalServerError)
		return
	}

	body, err := excel.Workbook(d)
	if err != nil {
		logger.ErrorContext(r.Context(), "Workbook generation failed", applog.FieldOperation, applog.OpExport, applog.FieldError, err)
		http.Error(w, "could not generate the workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(q.r)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleRequestExport enqueues an asynchronous export. Targets come from
// repeated "target" values and default to a file export.
func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if !s.exports.Enabled() {
		writeJSONError(w, http.StatusServiceUnavailable, services.ErrExportsDisabled.Error())
		return
	}

	q, err := s.parseRange(r)
	if err != nil {
		writeJSONError(w, rangeStatus(err), rangeMessage(err))
		return
	}

	targets := r.Form["target"]
	if len(targets) == 0 {
		targets = []string{amqp.TargetFile}
	}
	for _, t := range targets {
		if t != amqp.TargetFile && t != amqp.TargetSheets {
			writeJSONError(w, http.StatusBadRequest, "unknown export target "+strconv.Quote(t))
			return
		}
	}

	id, err := s.exports.RequestExport(r.Context(), q.r, targets...)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrExportsDisabled) {
			status = http.StatusServiceUnavailable
		}
		logger.ErrorContext(r.Context(), "Export request failed", applog.FieldRange, q.r.String(), applog.FieldError, err)
		writeJSONError(w, status, "could not enqueue the export")
		return
	}

	logger.InfoContext(r.Context(), "Export requested",
		applog.FieldExportID, id,
		applog.FieldRange, q.r.String(),
		applog.FieldTargets, targets)
	writeJSON(w, http.StatusAccepted, exportAcceptedJSON{
		ID:      id,
		Start:   q.r.Start.String(),
		End:     q.r.End.String(),
		Targets: targets,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

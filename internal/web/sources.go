package web

import (
	"net/http"
	"strconv"
)

// renderSourceList re-renders the source list to be swapped by HTMX.
func (s *Server) renderSourceList(w http.ResponseWriter, extra map[string]interface{}) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		s.logger.Error("Error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Sources": sources,
	}
	for k, v := range extra {
		data[k] = v
	}
	s.render(w, "source_list", data)
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources()
		if err != nil {
			s.logger.Error("Error getting sources", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "sources", map[string]interface{}{
			"Title":   "Sources",
			"Sources": sources,
		})
	}
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.PostFormValue("path")
		if path == "" {
			http.Error(w, "Path cannot be empty", http.StatusBadRequest)
			return
		}

		if _, err := s.importer.AddSource(path); err != nil {
			s.logger.Warn("Error adding source", "path", path, "error", err)
			s.renderSourceList(w, map[string]interface{}{"Error": err.Error()})
			return
		}
		s.renderSourceList(w, nil)
	}
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			s.logger.Error("Error deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		s.renderSourceList(w, nil)
	}
}

// handlePostSync runs an import in the foreground and re-renders the source
// list with its report.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.importer.Run(r.Context())
		if err != nil {
			s.logger.Error("Import failed", "error", err)
			s.renderSourceList(w, map[string]interface{}{"Error": err.Error()})
			return
		}
		errs := make([]string, len(report.Errors))
		for i, e := range report.Errors {
			errs[i] = e.Error()
		}
		s.renderSourceList(w, map[string]interface{}{"Report": report, "ReportErrors": errs})
	}
}

package http

import (
	"net/http"

	"dompet/internal/core"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		cats, err := s.categories.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err, msgFetchCategories)
			return
		}
		if cats == nil {
			cats = []core.Category{}
		}
		writeJSON(w, http.StatusOK, cats)

	case http.MethodPost:
		var req categoryRequest
		if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
			writeServiceError(w, r, err, msgCreateCategory)
			return
		}
		c, err := s.categories.Create(r.Context(), core.NewCategory{Name: req.Name, Icon: req.Icon})
		if err != nil {
			writeServiceError(w, r, err, msgCreateCategory)
			return
		}
		writeJSON(w, http.StatusCreated, c)

	case http.MethodDelete:
		var req categoryRequest
		if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
			writeServiceError(w, r, err, msgDeleteCategory)
			return
		}
		if err := s.categories.Delete(r.Context(), req.ID); err != nil {
			writeServiceError(w, r, err, msgDeleteCategory)
			return
		}
		NewJSONResponse().Message("Category deleted successfully").Write(w)

	default:
		MethodNotAllowedError("GET, POST, DELETE").Write(w)
	}
}

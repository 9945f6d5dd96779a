package api

import (
	"net/http"
	"strconv"
)

// listPlans serves the enrollment form. ?all=true includes retired plans.
func (s *Server) listPlans(r *http.Request) (Response, error) {
	all := false
	if raw := r.URL.Query().Get("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalidParam("all", "must be a boolean")
		}
		all = v
	}

	plans, err := s.plans.ListPlans(r.Context(), !all)
	if err != nil {
		return nil, err
	}
	return List(plans, ListMeta{}), nil
}

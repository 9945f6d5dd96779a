package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

func (s *Server) lookupMember(r *http.Request) (Response, error) {
	q := r.URL.Query()
	id, err := queryInt64(r, "id")
	if err != nil {
		return nil, err
	}
	status, err := s.memberships.LookupMember(r.Context(), catalog.Lookup{
		ID:          id,
		Phone:       q.Get("phone"),
		Email:       q.Get("email"),
		BiometricID: q.Get("biometric_id"),
	})
	if err != nil {
		return nil, err
	}
	return JSON(status), nil
}

// listMembers serves the active, inactive, expiring and new member views.
func (s *Server) listMembers(r *http.Request) (Response, error) {
	listing := membership.MemberListing(r.URL.Query().Get("listing"))
	if listing == "" {
		listing = membership.ListingActive
	}
	days, err := queryInt(r, "days")
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(windowQuery{Days: days}); err != nil {
		return nil, err
	}

	members, err := s.memberships.ListMembers(r.Context(), listing, days)
	if err != nil {
		return nil, err
	}
	return List(members, ListMeta{}), nil
}

func (s *Server) memberSummary(r *http.Request) (Response, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, invalidParam("id", "must be a positive integer")
	}
	status, err := s.memberships.MemberSummary(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return JSON(status), nil
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/svc/membership"
)

func subscriptionID(r *http.Request) (uuid.UUID, error) {
	return parseUUID("id", chi.URLParam(r, "id"))
}

func (s *Server) listSubscriptions(r *http.Request) (Response, error) {
	q := listSubscriptionsQuery{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
	}
	var err error
	if q.MemberID, err = queryInt64(r, "member_id"); err != nil {
		return nil, err
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return nil, err
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(q); err != nil {
		return nil, err
	}

	subs, err := s.memberships.List(r.Context(), membership.ListFilter{
		MemberID: q.MemberID,
		Status:   membership.Status(q.Status),
		Query:    q.Query,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return List(subs, ListMeta{Limit: q.Limit, Offset: q.Offset}), nil
}

func (s *Server) enroll(r *http.Request, req enrollRequest) (Response, error) {
	p, err := req.params()
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.Enroll(r.Context(), p, actor(r))
	if err != nil {
		return nil, err
	}
	return Created(sub), nil
}

func (s *Server) stats(r *http.Request) (Response, error) {
	st, err := s.memberships.Stats(r.Context())
	if err != nil {
		return nil, err
	}
	buckets, err := s.memberships.MemberBuckets(r.Context())
	if err != nil {
		return nil, err
	}
	return JSON(dashboardStats{Stats: st, Members: buckets}), nil
}

func (s *Server) expiring(r *http.Request) (Response, error) {
	days, err := queryInt(r, "days")
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(windowQuery{Days: days}); err != nil {
		return nil, err
	}
	subs, err := s.memberships.ExpiringSoon(r.Context(), days)
	if err != nil {
		return nil, err
	}
	return List(subs, ListMeta{}), nil
}

func (s *Server) getSubscription(r *http.Request) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (s *Server) updateSubscription(r *http.Request, req updateRequest) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	p, err := req.params()
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.Update(r.Context(), id, p, actor(r))
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (s *Server) activate(r *http.Request) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.Activate(r.Context(), id, actor(r))
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (s *Server) cancel(r *http.Request) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.Cancel(r.Context(), id, actor(r))
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (s *Server) changePlan(r *http.Request, req changePlanRequest) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID("plan_id", req.PlanID)
	if err != nil {
		return nil, err
	}
	sub, err := s.memberships.ChangePlan(r.Context(), id, planID, actor(r))
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (s *Server) renew(r *http.Request, req renewRequest) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	p, err := req.params()
	if err != nil {
		return nil, err
	}
	res, err := s.memberships.Renew(r.Context(), id, p, actor(r))
	if err != nil {
		return nil, err
	}
	return Created(res), nil
}

func (s *Server) history(r *http.Request) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	entries, err := s.memberships.GetHistory(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return List(entries, ListMeta{}), nil
}

func (s *Server) planChanges(r *http.Request) (Response, error) {
	id, err := subscriptionID(r)
	if err != nil {
		return nil, err
	}
	changes, err := s.memberships.GetPlanChangeLogs(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return List(changes, ListMeta{}), nil
}

package api

import (
	"encoding/json"
	"net/http"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// ErrorDetail is the error member of the response envelope.
type ErrorDetail struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// ListMeta describes a page of results.
type ListMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type envelope struct {
	Data  any          `json:"data,omitempty"`
	Meta  any          `json:"meta,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type jsonResponse struct {
	status int
	body   envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON answers 200 with data.
func JSON(data any) Response {
	return jsonResponse{status: http.StatusOK, body: envelope{Data: data}}
}

// Created answers 201 with data.
func Created(data any) Response {
	return jsonResponse{status: http.StatusCreated, body: envelope{Data: data}}
}

// List answers 200 with a slice and its page metadata. A nil slice renders
// as an empty array.
func List[T any](items []T, meta ListMeta) Response {
	if items == nil {
		items = []T{}
	}
	meta.Count = len(items)
	return jsonResponse{status: http.StatusOK, body: envelope{Data: items, Meta: meta}}
}

func errorJSON(status int, detail ErrorDetail) Response {
	return jsonResponse{status: status, body: envelope{Error: &detail}}
}

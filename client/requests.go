package client

import (
	"context"
	"net/url"
	"strconv"
)

// RequestService handles request lifecycle operations.
type RequestService struct {
	c *Client
}

// requestListResponse wraps the paginated request list response.
type requestListResponse struct {
	Requests []Request `json:"requests"`
	HasMore  bool      `json:"has_more"`
}

// Create opens a new request. Clients may only create requests for
// themselves; an empty ClientID defaults to the caller.
func (s *RequestService) Create(ctx context.Context, req *CreateRequestRequest) (*Request, error) {
	var out Request
	if err := s.c.post(ctx, "/api/v1/requests", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a single request by ID.
func (s *RequestService) Get(ctx context.Context, id string) (*Request, error) {
	var out Request
	if err := s.c.get(ctx, "/api/v1/requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns requests matching opts, newest first. Staff only.
func (s *RequestService) List(ctx context.Context, opts *ListOptions) ([]Request, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", string(opts.Status))
		}
		if opts.Type != "" {
			params.Set("type", string(opts.Type))
		}
		if opts.ClientID != "" {
			params.Set("client", opts.ClientID)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp requestListResponse
	if err := s.c.get(ctx, "/api/v1/requests", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Requests, resp.HasMore, nil
}

// Update edits notes, target plan or assigned staff. Staff only.
func (s *RequestService) Update(ctx context.Context, id string, req *UpdateRequestRequest) (*Request, error) {
	var out Request
	if err := s.c.put(ctx, "/api/v1/requests/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetStatus moves a request through its lifecycle. Completing a request
// applies its equipment action first. Staff only.
func (s *RequestService) SetStatus(ctx context.Context, id string, req *SetStatusRequest) (*Request, error) {
	var out Request
	if err := s.c.patch(ctx, "/api/v1/requests/"+url.PathEscape(id)+"/status", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a request. Staff only.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/requests/"+url.PathEscape(id))
}

// ByClient returns every request owned by clientID.
func (s *RequestService) ByClient(ctx context.Context, clientID string) ([]Request, error) {
	return s.forClient(ctx, "/api/v1/clients/"+url.PathEscape(clientID)+"/requests")
}

// PendingForClient returns the requests of clientID that are not completed.
func (s *RequestService) PendingForClient(ctx context.Context, clientID string) ([]Request, error) {
	return s.forClient(ctx, "/api/v1/clients/"+url.PathEscape(clientID)+"/requests/pending")
}

func (s *RequestService) forClient(ctx context.Context, path string) ([]Request, error) {
	var resp requestListResponse
	if err := s.c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

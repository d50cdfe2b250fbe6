package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/neointegratech/portal-client/internal/domain/model"
)

// ServicesAPI wraps the public service catalog endpoints.
type ServicesAPI struct {
	c *Client
}

// List returns all active service packages.
func (s *ServicesAPI) List(ctx context.Context) ([]model.Service, error) {
	var out []model.Service
	if err := s.c.do(ctx, http.MethodGet, "/services/", nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// BySlug looks a service up by its URL-friendly identifier.
func (s *ServicesAPI) BySlug(ctx context.Context, slug string) (*model.Service, error) {
	var out model.Service
	path := fmt.Sprintf("/services/%s", slug)
	if err := s.c.do(ctx, http.MethodGet, path, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

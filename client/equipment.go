package client

import (
	"context"
	"net/url"
)

// EquipmentService reads equipment records.
type EquipmentService struct {
	c *Client
}

// Get returns a single piece of equipment by ID.
func (s *EquipmentService) Get(ctx context.Context, id string) (*Equipment, error) {
	var eq Equipment
	if err := s.c.get(ctx, "/api/v1/equipment/"+url.PathEscape(id), nil, &eq); err != nil {
		return nil, err
	}
	return &eq, nil
}

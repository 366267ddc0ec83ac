package store

import (
	"context"
	"net/url"

	"github.com/semanticallynull/scootershare/scooter"
)

func (c *Client) GetScooter(ctx context.Context, id string) (scooter.Details, error) {
	var d scooter.Details
	err := c.get(ctx, "/scooter/"+url.PathEscape(id), &d)
	return d, err
}

func (c *Client) GetAllScooters(ctx context.Context) ([]scooter.Details, error) {
	var ds []scooter.Details
	err := c.get(ctx, "/scooter", &ds)
	return ds, err
}

func (c *Client) UpdateScooterStatus(ctx context.Context, id string, status scooter.Status) (scooter.Details, error) {
	body := map[string]scooter.Status{"status": status}
	var d scooter.Details
	err := c.do(ctx, "PUT", "/scooter/"+url.PathEscape(id)+"/status", body, &d)
	return d, err
}

func (c *Client) UpdateScooterLocation(ctx context.Context, id string, lat, lng float64) error {
	body := map[string]float64{"latitude": lat, "longitude": lng}
	return c.do(ctx, "PUT", "/scooter/"+url.PathEscape(id)+"/location", body, nil)
}

func (c *Client) UpdateScooterIP(ctx context.Context, id, ip string) error {
	body := map[string]string{"ipAddress": ip}
	return c.do(ctx, "PUT", "/scooter/"+url.PathEscape(id)+"/ip", body, nil)
}

// UpdateScooterDetailsRequest overwrites provisioning attributes.
type UpdateScooterDetailsRequest struct {
	Make              string  `json:"make"`
	Colour            string  `json:"colour"`
	CostMin           float64 `json:"costMin"`
	BatteryPercentage int     `json:"batteryPercentage"`
}

func (c *Client) UpdateScooterDetails(ctx context.Context, id string, req UpdateScooterDetailsRequest) (scooter.Details, error) {
	var d scooter.Details
	err := c.do(ctx, "PUT", "/scooter/"+url.PathEscape(id), req, &d)
	return d, err
}

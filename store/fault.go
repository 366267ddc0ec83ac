package store

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/fault"
)

func (c *Client) GetFault(ctx context.Context, id uuid.UUID) (fault.Details, error) {
	var d fault.Details
	err := c.get(ctx, "/fault/"+id.String(), &d)
	return d, err
}

func (c *Client) GetOpenFaults(ctx context.Context) ([]fault.Details, error) {
	var ds []fault.Details
	err := c.get(ctx, "/fault/open", &ds)
	return ds, err
}

// GetFaultForScooter returns the scooter's most recent fault.
func (c *Client) GetFaultForScooter(ctx context.Context, scooterID string) (fault.Details, error) {
	var d fault.Details
	err := c.get(ctx, "/fault/scooter/"+url.PathEscape(scooterID), &d)
	return d, err
}

// ReportFault opens (or refreshes) the fault record for a scooter.
func (c *Client) ReportFault(ctx context.Context, scooterID, notes string) (fault.Details, error) {
	body := map[string]string{"scooterID": scooterID, "faultNotes": notes}
	var d fault.Details
	err := c.do(ctx, "PUT", "/fault", body, &d)
	return d, err
}

func (c *Client) ResolveFault(ctx context.Context, id uuid.UUID, resolution string) (fault.Details, error) {
	body := map[string]string{"resolution": resolution}
	var d fault.Details
	err := c.do(ctx, "PUT", "/fault/"+id.String()+"/resolve", body, &d)
	return d, err
}

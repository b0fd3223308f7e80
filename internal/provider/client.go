package provider

import (
	"encoding/json"
	"fmt"
	"strconv"

	"smmpanel/internal/models"
	"smmpanel/internal/pkg/httpclient"
)

// Error is a failure reported by the upstream panel itself (its `error`
// field), as opposed to a transport failure. Handlers surface the message
// verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// AddRequest carries one order dispatch to an upstream panel.
type AddRequest struct {
	ServiceSID string
	Link       string
	Quantity   int
	Comments   string
	Runs       int
	Interval   int
}

// StatusResult is the upstream panel's view of a dispatched order.
type StatusResult struct {
	Status     models.OrderStatus
	StartCount int
	Remains    int
}

// Client dispatches orders to an upstream SMM panel and polls their progress.
type Client interface {
	Add(p *models.Provider, req AddRequest) (string, error)
	Status(p *models.Provider, pid string) (*StatusResult, error)
}

// APIClient talks the conventional SMM-panel form API (key + action fields).
type APIClient struct {
	http *httpclient.Client
}

func NewAPIClient(http *httpclient.Client) *APIClient {
	return &APIClient{http: http}
}

// Add forwards an order (action=add) and returns the provider's order id.
func (c *APIClient) Add(p *models.Provider, req AddRequest) (string, error) {
	form := map[string]string{
		"key":      p.APIKey,
		"action":   "add",
		"service":  req.ServiceSID,
		"link":     req.Link,
		"quantity": strconv.Itoa(req.Quantity),
	}
	if req.Comments != "" {
		form["comments"] = req.Comments
	}
	if req.Runs > 0 {
		form["runs"] = strconv.Itoa(req.Runs)
		form["interval"] = strconv.Itoa(req.Interval)
	}

	_, body, err := c.http.PostForm(p.APIURL, form)
	if err != nil {
		return "", fmt.Errorf("provider add request failed: %w", err)
	}

	var resp struct {
		Order json.Number `json:"order"`
		Error string      `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("provider add parse error: %w", err)
	}
	if resp.Error != "" {
		return "", &Error{Message: resp.Error}
	}
	if resp.Order.String() == "" {
		return "", fmt.Errorf("provider returned no order id")
	}
	return resp.Order.String(), nil
}

// Status polls a dispatched order (action=status).
func (c *APIClient) Status(p *models.Provider, pid string) (*StatusResult, error) {
	_, body, err := c.http.PostForm(p.APIURL, map[string]string{
		"key":    p.APIKey,
		"action": "status",
		"order":  pid,
	})
	if err != nil {
		return nil, fmt.Errorf("provider status request failed: %w", err)
	}

	var resp struct {
		Status     string      `json:"status"`
		StartCount json.Number `json:"start_count"`
		Remains    json.Number `json:"remains"`
		Error      string      `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("provider status parse error: %w", err)
	}
	if resp.Error != "" {
		return nil, &Error{Message: resp.Error}
	}

	start, _ := resp.StartCount.Int64()
	remains, _ := resp.Remains.Int64()
	return &StatusResult{
		Status:     mapStatus(resp.Status),
		StartCount: int(start),
		Remains:    int(remains),
	}, nil
}

// mapStatus translates the panel's status strings to the local enum. Unknown
// strings stay PROCESSING so the sync cron keeps polling.
func mapStatus(s string) models.OrderStatus {
	switch s {
	case "Pending":
		return models.OrderPending
	case "In progress", "Processing":
		return models.OrderProcessing
	case "Completed":
		return models.OrderCompleted
	case "Partial":
		return models.OrderPartial
	case "Canceled", "Cancelled":
		return models.OrderCanceled
	case "Error":
		return models.OrderError
	default:
		return models.OrderProcessing
	}
}

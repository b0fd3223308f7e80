package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// API error vocabulary. The passthrough contract uses these short codes in
// the response body; status codes follow the usual taxonomy.
const (
	ErrInvalidAPIKey       = "invalid_api_key"
	ErrInvalidParameters   = "invalid_parameters"
	ErrInvalidService      = "invalid_service"
	ErrInvalidQuantity     = "invalid_quantity"
	ErrInsufficientBalance = "insufficient_balance"
	ErrInvalidOrder        = "invalid_order"
	ErrOrderNotFound       = "order_not_found"
	ErrInvalidAction       = "invalid_action"
	ErrInternalServer      = "internal_server_error"

	// Panel API only, not part of the passthrough vocabulary.
	ErrDuplicateTransaction = "duplicate_transaction"
)

func apiError(c echo.Context, status int, code string) error {
	return c.JSON(status, map[string]string{"error": code})
}

// parseBody decodes the request into a flat string map, trying form encoding
// first and falling back to JSON, matching the emulated panel contract which
// accepts either.
func parseBody(c echo.Context) (map[string]string, error) {
	req := c.Request()
	contentType := req.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, echo.MIMEApplicationForm) ||
		strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		params, err := c.FormParams()
		if err == nil && len(params) > 0 {
			out := make(map[string]string, len(params))
			for k, v := range params {
				if len(v) > 0 {
					out[k] = v[0]
				}
			}
			return out, nil
		}
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		}
	}
	return out, nil
}

func intField(body map[string]string, key string) (int, bool) {
	v, ok := body[key]
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func uintField(body map[string]string, key string) (uint, bool) {
	n, ok := intField(body, key)
	if !ok || n < 0 {
		return 0, false
	}
	return uint(n), true
}

func badRequest(c echo.Context, code string) error {
	return apiError(c, http.StatusBadRequest, code)
}

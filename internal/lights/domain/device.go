package domain

import (
	"encoding/json"
	"errors"
	"net/http"
)

// DeviceRef identifies a device at the vendor. Both fields are caller
// supplied and never checked against a local registry; the vendor rejects
// unknown identifiers itself.
type DeviceRef struct {
	Device string `json:"device"`
	SKU    string `json:"sku"`
}

// Validate rejects empty identifiers.
func (d DeviceRef) Validate() error {
	if d.Device == "" {
		return errors.New("lights: empty device")
	}
	if d.SKU == "" {
		return errors.New("lights: empty sku")
	}
	return nil
}

// Envelope is the vendor request envelope for state and control calls.
type Envelope struct {
	RequestID string         `json:"requestId"`
	Payload   map[string]any `json:"payload"`
}

// Result is a normalized vendor response: HTTP status plus parsed body.
type Result struct {
	Status int
	Body   map[string]any
}

// VendorOK reports whether a vendor response counts as success. The check is
// conjunctive: HTTP 200 and a body-level code of 200. The vendor signals
// application errors inside a 200 response, so neither alone is enough.
func VendorOK(res Result) bool {
	if res.Status != http.StatusOK {
		return false
	}
	switch code := res.Body["code"].(type) {
	case float64:
		return code == 200
	case int:
		return code == 200
	case json.Number:
		value, err := code.Int64()
		return err == nil && value == 200
	default:
		return false
	}
}

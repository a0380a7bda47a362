package domain

import "testing"

func TestVariantFlatPayload(t *testing.T) {
	ref := DeviceRef{Device: "AA:BB", SKU: "H6001"}
	payload := VariantFlat.Payload(ref, nil)
	if payload["device"] != "AA:BB" || payload["sku"] != "H6001" {
		t.Fatalf("unexpected flat payload: %v", payload)
	}
	if _, ok := payload["capability"]; ok {
		t.Fatal("capability must be absent without a command")
	}
}

func TestVariantNestedPayload(t *testing.T) {
	ref := DeviceRef{Device: "AA:BB", SKU: "H6001"}
	capability := PowerCapability(true)
	payload := VariantNested.Payload(ref, &capability)

	device, ok := payload["device"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested device object, got %T", payload["device"])
	}
	if device["device"] != "AA:BB" || device["sku"] != "H6001" {
		t.Fatalf("unexpected nested device: %v", device)
	}
	if _, ok := payload["sku"]; ok {
		t.Fatal("nested shape must not carry a top-level sku")
	}
	if payload["capability"] != capability {
		t.Fatalf("unexpected capability: %v", payload["capability"])
	}
}

func TestVendorOK(t *testing.T) {
	cases := []struct {
		name string
		res  Result
		want bool
	}{
		{"http and code ok", Result{Status: 200, Body: map[string]any{"code": float64(200)}}, true},
		{"http ok vendor error", Result{Status: 200, Body: map[string]any{"code": float64(400)}}, false},
		{"http error", Result{Status: 403, Body: map[string]any{"code": float64(200)}}, false},
		{"missing code", Result{Status: 200, Body: map[string]any{}}, false},
		{"int code", Result{Status: 200, Body: map[string]any{"code": 200}}, true},
	}
	for _, tc := range cases {
		if got := VendorOK(tc.res); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestDeviceRefValidate(t *testing.T) {
	if err := (DeviceRef{Device: "AA:BB", SKU: "H6001"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (DeviceRef{SKU: "H6001"}).Validate(); err == nil {
		t.Fatal("expected error for empty device")
	}
	if err := (DeviceRef{Device: "AA:BB"}).Validate(); err == nil {
		t.Fatal("expected error for empty sku")
	}
}

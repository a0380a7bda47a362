package domain

// Variant selects one of the two mutually exclusive request payload shapes
// the vendor's state and control endpoints accept. Which shape a given
// account or device generation expects is not discoverable up front, so
// callers probe: flat first, nested as the one fallback.
type Variant string

const (
	// VariantFlat puts the device identifiers directly in the payload:
	// {device, sku, [capability]}.
	VariantFlat Variant = "flat"
	// VariantNested wraps the identifiers in a device object:
	// {device: {device, sku}, [capability]}.
	VariantNested Variant = "nested"
)

// Payload builds the request payload for this variant. The capability is
// optional; state fetches send none.
func (v Variant) Payload(ref DeviceRef, capability *Capability) map[string]any {
	payload := make(map[string]any, 3)
	switch v {
	case VariantNested:
		payload["device"] = map[string]any{"device": ref.Device, "sku": ref.SKU}
	default:
		payload["device"] = ref.Device
		payload["sku"] = ref.SKU
	}
	if capability != nil {
		payload["capability"] = *capability
	}
	return payload
}

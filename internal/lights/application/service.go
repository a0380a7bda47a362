package application

import (
	"context"
	"errors"
	"time"

	"govee-panel/internal/lights/domain"
	"govee-panel/internal/observability/metrics"

	"github.com/google/uuid"
)

// VendorClient performs one vendor HTTP call per method.
type VendorClient interface {
	ListDevices(ctx context.Context) (domain.Result, error)
	DeviceState(ctx context.Context, env domain.Envelope) (domain.Result, error)
	ControlDevice(ctx context.Context, env domain.Envelope) (domain.Result, error)
}

// Outcome is the final result of a probed operation.
type Outcome struct {
	Result       domain.Result
	Variant      domain.Variant
	FallbackUsed bool
	// FirstAttempt carries the flat-variant result when both attempts
	// failed; the nested attempt stays the primary error.
	FirstAttempt *domain.Result
}

// Service issues vendor operations, resolving the payload variant by
// probing: flat first, nested once on failure. At most two upstream calls
// per logical operation, sequential, never parallel.
type Service struct {
	client VendorClient
}

// NewService constructs a lights service.
func NewService(client VendorClient) (*Service, error) {
	if client == nil {
		return nil, errors.New("lights service: nil vendor client")
	}
	return &Service{client: client}, nil
}

// ListDevices passes the vendor device list through unchanged.
func (s *Service) ListDevices(ctx context.Context) (domain.Result, error) {
	start := time.Now()
	res, err := s.client.ListDevices(ctx)
	metrics.ObserveVendorCall("devices", "", callResult(res, err), time.Since(start))
	return res, err
}

// State fetches device state, probing both payload variants.
func (s *Service) State(ctx context.Context, ref domain.DeviceRef) (Outcome, error) {
	return s.probe(ctx, "state", ref, nil, s.client.DeviceState)
}

// Control submits a capability command, probing both payload variants.
func (s *Service) Control(ctx context.Context, ref domain.DeviceRef, capability domain.Capability) (Outcome, error) {
	return s.probe(ctx, "control", ref, &capability, s.client.ControlDevice)
}

type vendorCall func(ctx context.Context, env domain.Envelope) (domain.Result, error)

func (s *Service) probe(ctx context.Context, op string, ref domain.DeviceRef, capability *domain.Capability, call vendorCall) (Outcome, error) {
	first, err := s.attempt(ctx, op, domain.VariantFlat, ref, capability, call)
	if err != nil {
		return Outcome{}, err
	}
	if domain.VendorOK(first) {
		return Outcome{Result: first, Variant: domain.VariantFlat}, nil
	}

	metrics.IncFallback(op)
	second, err := s.attempt(ctx, op, domain.VariantNested, ref, capability, call)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Result: second, Variant: domain.VariantNested, FallbackUsed: true}
	if !domain.VendorOK(second) {
		out.FirstAttempt = &first
	}
	return out, nil
}

func (s *Service) attempt(ctx context.Context, op string, variant domain.Variant, ref domain.DeviceRef, capability *domain.Capability, call vendorCall) (domain.Result, error) {
	env := domain.Envelope{
		RequestID: uuid.NewString(),
		Payload:   variant.Payload(ref, capability),
	}
	start := time.Now()
	res, err := call(ctx, env)
	metrics.ObserveVendorCall(op, string(variant), callResult(res, err), time.Since(start))
	return res, err
}

func callResult(res domain.Result, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case !domain.VendorOK(res):
		return metrics.ResultRejected
	default:
		return metrics.ResultSuccess
	}
}

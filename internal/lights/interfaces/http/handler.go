package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"govee-panel/internal/audit"
	"govee-panel/internal/auth"
	"govee-panel/internal/goveeadapter"
	"govee-panel/internal/lights/application"
	"govee-panel/internal/lights/domain"
)

// Handler provides the device proxy HTTP endpoints.
type Handler struct {
	service     *application.Service
	rgbEncoding domain.RGBEncoding
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service, rgbEncoding domain.RGBEncoding, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("lights handler: nil service")
	}
	if rgbEncoding == "" {
		rgbEncoding = domain.RGBEncodingPacked
	}
	return &Handler{service: service, rgbEncoding: rgbEncoding, auditLogger: auditLogger}, nil
}

// ServeHTTP dispatches the /api device routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/devices":
		h.handleDevices(w, r)
	case "/api/state":
		h.handleState(w, r)
	case "/api/power":
		h.handlePower(w, r)
	case "/api/brightness":
		h.handleBrightness(w, r)
	case "/api/color":
		h.handleColor(w, r)
	case "/api/colortemp":
		h.handleColorTemp(w, r)
	case "/api/scene":
		h.handleScene(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := h.service.ListDevices(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, res.Status, res.Body)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ref := domain.DeviceRef{
		Device: r.URL.Query().Get("device"),
		SKU:    r.URL.Query().Get("sku"),
	}
	if err := ref.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "missing device or sku")
		return
	}
	outcome, err := h.service.State(r.Context(), ref)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

type powerRequest struct {
	Device string `json:"device"`
	SKU    string `json:"sku"`
	On     *bool  `json:"on"`
}

func (h *Handler) handlePower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if !decodeControl(w, r, &req) {
		return
	}
	if req.Device == "" || req.SKU == "" || req.On == nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or on(boolean)")
		return
	}
	capability := domain.PowerCapability(*req.On)
	h.control(w, r, "control.power", domain.DeviceRef{Device: req.Device, SKU: req.SKU}, capability)
}

type brightnessRequest struct {
	Device string   `json:"device"`
	SKU    string   `json:"sku"`
	Value  *float64 `json:"value"`
}

func (h *Handler) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var req brightnessRequest
	if !decodeControl(w, r, &req) {
		return
	}
	if req.Device == "" || req.SKU == "" || req.Value == nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or value(number)")
		return
	}
	capability, err := domain.BrightnessCapability(*req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or value(number)")
		return
	}
	h.control(w, r, "control.brightness", domain.DeviceRef{Device: req.Device, SKU: req.SKU}, capability)
}

type colorRequest struct {
	Device string   `json:"device"`
	SKU    string   `json:"sku"`
	R      *float64 `json:"r"`
	G      *float64 `json:"g"`
	B      *float64 `json:"b"`
}

func (h *Handler) handleColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if !decodeControl(w, r, &req) {
		return
	}
	if req.Device == "" || req.SKU == "" || req.R == nil || req.G == nil || req.B == nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or r,g,b numbers")
		return
	}
	capability, err := domain.ColorRGBCapability(*req.R, *req.G, *req.B, h.rgbEncoding)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or r,g,b numbers")
		return
	}
	h.control(w, r, "control.color", domain.DeviceRef{Device: req.Device, SKU: req.SKU}, capability)
}

type colorTempRequest struct {
	Device string   `json:"device"`
	SKU    string   `json:"sku"`
	Kelvin *float64 `json:"kelvin"`
}

func (h *Handler) handleColorTemp(w http.ResponseWriter, r *http.Request) {
	var req colorTempRequest
	if !decodeControl(w, r, &req) {
		return
	}
	if req.Device == "" || req.SKU == "" || req.Kelvin == nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or kelvin(number)")
		return
	}
	capability, err := domain.ColorTempCapability(*req.Kelvin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or kelvin(number)")
		return
	}
	h.control(w, r, "control.colortemp", domain.DeviceRef{Device: req.Device, SKU: req.SKU}, capability)
}

type sceneRequest struct {
	Device string `json:"device"`
	SKU    string `json:"sku"`
	Value  string `json:"value"`
	Type   string `json:"type"`
}

func (h *Handler) handleScene(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if !decodeControl(w, r, &req) {
		return
	}
	if req.Device == "" || req.SKU == "" || req.Value == "" {
		writeError(w, http.StatusBadRequest, "missing device, sku or value")
		return
	}
	capability, err := domain.SceneCapability(req.Value, req.Type == "diy")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing device, sku or value")
		return
	}
	h.control(w, r, "control.scene", domain.DeviceRef{Device: req.Device, SKU: req.SKU}, capability)
}

func (h *Handler) control(w http.ResponseWriter, r *http.Request, action string, ref domain.DeviceRef, capability domain.Capability) {
	outcome, err := h.service.Control(r.Context(), ref, capability)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeOutcome(w, outcome)
	h.logAudit(r, action, ref, capability, outcome)
}

func (h *Handler) logAudit(r *http.Request, action string, ref domain.DeviceRef, capability domain.Capability, outcome application.Outcome) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"capability":   capability,
		"variant":      string(outcome.Variant),
		"fallbackUsed": outcome.FallbackUsed,
		"status":       outcome.Result.Status,
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:     auth.SubjectFromContext(r.Context()),
		Action:    action,
		Device:    ref.Device,
		SKU:       ref.SKU,
		Metadata:  meta,
		IP:        audit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// decodeControl enforces POST and decodes the JSON body. Writes the error
// response itself and returns false when the request is unusable.
func decodeControl(w http.ResponseWriter, r *http.Request, into any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// writeOutcome relays the vendor body and status, tagged with the payload
// variant that produced it. When both probe attempts failed, the nested
// attempt is primary and the flat one rides along for debugging.
func writeOutcome(w http.ResponseWriter, outcome application.Outcome) {
	body := make(map[string]any, len(outcome.Result.Body)+3)
	for k, v := range outcome.Result.Body {
		body[k] = v
	}
	body["variant"] = string(outcome.Variant)
	if outcome.FallbackUsed {
		body["fallbackUsed"] = true
	}
	if outcome.FirstAttempt != nil {
		body["firstAttempt"] = map[string]any{
			"status": outcome.FirstAttempt.Status,
			"body":   outcome.FirstAttempt.Body,
		}
	}
	writeJSON(w, outcome.Result.Status, body)
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, goveeadapter.ErrUnreachable) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "upstream unreachable", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{"error": "upstream error", "details": err.Error()})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

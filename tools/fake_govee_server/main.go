package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// fakeGoveeServer mimics the vendor cloud for local testing. The accepted
// payload shape is configurable so the proxy's flat-then-nested fallback can
// be exercised without a real account.
type fakeGoveeServer struct {
	start   time.Time
	latency time.Duration
	shape   string // flat, nested or both
	key     string

	mu         sync.Mutex
	byDevice   map[string]int64
	totalCalls int64
}

func main() {
	addr := getenvDefault("FAKE_GOVEE_ADDR", ":19090")
	latencyMs := getenvIntDefault("FAKE_GOVEE_LATENCY_MS", 0)
	shape := getenvDefault("FAKE_GOVEE_SHAPE", "flat")
	key := os.Getenv("FAKE_GOVEE_KEY")

	srv := &fakeGoveeServer{
		start:    time.Now().UTC(),
		latency:  time.Duration(latencyMs) * time.Millisecond,
		shape:    shape,
		key:      key,
		byDevice: make(map[string]int64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/debug/stats", srv.handleStats)
	mux.HandleFunc("/user/devices", srv.handleDevices)
	mux.HandleFunc("/device/state", srv.handleState)
	mux.HandleFunc("/device/control", srv.handleControl)

	log.Printf("fake govee server listening on %s (shape=%s)", addr, shape)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func (s *fakeGoveeServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *fakeGoveeServer) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":     time.Since(s.start).String(),
		"totalCalls": s.totalCalls,
		"byDevice":   s.byDevice,
	})
}

func (s *fakeGoveeServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	if !s.checkKey(w, r) {
		return
	}
	s.sleep()
	writeJSON(w, http.StatusOK, map[string]any{
		"code":    200,
		"message": "success",
		"data": []map[string]any{
			{"device": "AA:BB:CC:DD:EE:FF:00:11", "sku": "H6001", "deviceName": "Desk Lamp"},
			{"device": "11:22:33:44:55:66:77:88", "sku": "H6159", "deviceName": "Strip Light"},
		},
	})
}

func (s *fakeGoveeServer) handleState(w http.ResponseWriter, r *http.Request) {
	s.handleEnvelope(w, r, func(device string) map[string]any {
		return map[string]any{
			"device": device,
			"capabilities": []map[string]any{
				{"type": "on_off", "instance": "powerSwitch", "state": map[string]any{"value": 1}},
				{"type": "range", "instance": "brightness", "state": map[string]any{"value": 80}},
			},
		}
	})
}

func (s *fakeGoveeServer) handleControl(w http.ResponseWriter, r *http.Request) {
	s.handleEnvelope(w, r, func(device string) map[string]any {
		return map[string]any{"device": device}
	})
}

type envelope struct {
	RequestID string         `json:"requestId"`
	Payload   map[string]any `json:"payload"`
}

func (s *fakeGoveeServer) handleEnvelope(w http.ResponseWriter, r *http.Request, payload func(device string) map[string]any) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.checkKey(w, r) {
		return
	}
	s.sleep()

	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "message": "invalid body"})
		return
	}

	device, shape := classifyPayload(env.Payload)
	s.count(device)

	if s.shape != "both" && shape != s.shape {
		writeJSON(w, http.StatusOK, map[string]any{
			"requestId": env.RequestID,
			"code":      400,
			"message":   "unsupported payload",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requestId": env.RequestID,
		"code":      200,
		"message":   "success",
		"payload":   payload(device),
	})
}

// classifyPayload reports the device id and whether the envelope used the
// flat or nested shape.
func classifyPayload(payload map[string]any) (string, string) {
	switch device := payload["device"].(type) {
	case string:
		return device, "flat"
	case map[string]any:
		if id, ok := device["device"].(string); ok {
			return id, "nested"
		}
		return "", "nested"
	default:
		return "", "unknown"
	}
}

func (s *fakeGoveeServer) checkKey(w http.ResponseWriter, r *http.Request) bool {
	if s.key == "" {
		return true
	}
	if r.Header.Get("Govee-API-Key") != s.key {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "message": "invalid api key"})
		return false
	}
	return true
}

func (s *fakeGoveeServer) count(device string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCalls++
	if device != "" {
		s.byDevice[device]++
	}
}

func (s *fakeGoveeServer) sleep() {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

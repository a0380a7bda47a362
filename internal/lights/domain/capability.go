package domain

import (
	"errors"
	"fmt"
	"math"
)

// Vendor capability categories and control-point instances.
const (
	TypeOnOff        = "on_off"
	TypeRange        = "range"
	TypeColorSetting = "color_setting"
	TypeDynamicScene = "dynamic_scene"

	InstancePowerSwitch = "powerSwitch"
	InstanceBrightness  = "brightness"
	InstanceColorRGB    = "colorRgb"
	InstanceColorTempK  = "colorTemperatureK"
	InstanceLightScene  = "lightScene"
	InstanceDIYScene    = "diyScene"
)

// Capability is a vendor capability descriptor: the (type, instance) pair
// addresses a control point, value encoding depends on the instance.
type Capability struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
	Value    any    `json:"value"`
}

// RGBEncoding selects how a color command encodes its value. Different
// vendor API generations expect different encodings.
type RGBEncoding string

const (
	// RGBEncodingPacked packs the channels into one 24-bit integer.
	RGBEncodingPacked RGBEncoding = "packed"
	// RGBEncodingStruct sends a structured {r,g,b} object.
	RGBEncodingStruct RGBEncoding = "struct"
)

// ParseRGBEncoding validates an encoding name. Empty means packed.
func ParseRGBEncoding(value string) (RGBEncoding, error) {
	switch RGBEncoding(value) {
	case RGBEncodingPacked, RGBEncodingStruct:
		return RGBEncoding(value), nil
	case "":
		return RGBEncodingPacked, nil
	default:
		return "", fmt.Errorf("lights: unknown rgb encoding %q", value)
	}
}

// PowerCapability builds an on/off switch command.
func PowerCapability(on bool) Capability {
	value := 0
	if on {
		value = 1
	}
	return Capability{Type: TypeOnOff, Instance: InstancePowerSwitch, Value: value}
}

// BrightnessCapability builds a brightness command. The level is passed
// through as-is; the vendor enforces its own 1..100 range.
func BrightnessCapability(value float64) (Capability, error) {
	if !isFinite(value) {
		return Capability{}, errors.New("lights: brightness must be finite")
	}
	return Capability{Type: TypeRange, Instance: InstanceBrightness, Value: value}, nil
}

// ColorRGBCapability builds a color command. Channels are clamped to 0..255
// before encoding; out-of-range input produces the nearest valid color
// instead of an overflowed pack.
func ColorRGBCapability(r, g, b float64, encoding RGBEncoding) (Capability, error) {
	if !isFinite(r) || !isFinite(g) || !isFinite(b) {
		return Capability{}, errors.New("lights: r,g,b must be finite")
	}
	rr := clampChannel(r)
	gg := clampChannel(g)
	bb := clampChannel(b)

	var value any
	switch encoding {
	case RGBEncodingStruct:
		value = map[string]int{"r": rr, "g": gg, "b": bb}
	default:
		value = rr<<16 | gg<<8 | bb
	}
	return Capability{Type: TypeColorSetting, Instance: InstanceColorRGB, Value: value}, nil
}

// ColorTempCapability builds a color temperature command in Kelvin.
func ColorTempCapability(kelvin float64) (Capability, error) {
	if !isFinite(kelvin) {
		return Capability{}, errors.New("lights: kelvin must be finite")
	}
	return Capability{Type: TypeColorSetting, Instance: InstanceColorTempK, Value: kelvin}, nil
}

// SceneCapability builds a scene command. Preset scenes use lightScene,
// user-defined ones diyScene.
func SceneCapability(value string, diy bool) (Capability, error) {
	if value == "" {
		return Capability{}, errors.New("lights: empty scene value")
	}
	instance := InstanceLightScene
	if diy {
		instance = InstanceDIYScene
	}
	return Capability{Type: TypeDynamicScene, Instance: instance, Value: value}, nil
}

func clampChannel(value float64) int {
	channel := int(math.Round(value))
	if channel < 0 {
		return 0
	}
	if channel > 255 {
		return 255
	}
	return channel
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

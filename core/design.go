package core

import (
	"fmt"
	"math"
	"strings"
)

const defaultPanTextSeparator = " "

// Font describes a platform font. Weight is optional.
type Font struct {
	Name   string
	Weight string
	Size   float64
}

// Color channels are expressed in the 0..1 range.
type Color struct {
	Red   float64
	Green float64
	Blue  float64
	Alpha float64
}

func RGB(red, green, blue float64) Color {
	return Color{Red: red, Green: green, Blue: blue, Alpha: 1}
}

// Hex renders #RRGGBB, appending AA only when the colour is translucent.
func (c Color) Hex() string {
	hex := fmt.Sprintf("#%02X%02X%02X", colorByte(c.Red), colorByte(c.Green), colorByte(c.Blue))
	if c.Alpha < 1 {
		hex += fmt.Sprintf("%02X", colorByte(c.Alpha))
	}
	return hex
}

func colorByte(channel float64) int {
	if channel <= 0 {
		return 0
	}
	if channel >= 1 {
		return 255
	}
	return int(math.Round(channel * 255))
}

type PinViewConfiguration struct {
	Font      Font
	TextColor Color
}

type PanViewConfiguration struct {
	Font            Font
	TextColor       Color
	FormatSeparator string
}

type SecurityCodeViewConfiguration struct {
	Font      Font
	TextColor Color
}

// DesignSystem styles the secure views rendered by the network client.
type DesignSystem struct {
	PinFont               Font
	PinTextColor          Color
	PanFont               Font
	PanTextColor          Color
	PanTextSeparator      string
	SecurityCodeFont      Font
	SecurityCodeTextColor Color
}

// NewDesignSystem applies one font and colour to every secure field.
func NewDesignSystem(font Font, textColor Color) DesignSystem {
	return DesignSystem{
		PinFont:               font,
		PinTextColor:          textColor,
		PanFont:               font,
		PanTextColor:          textColor,
		PanTextSeparator:      defaultPanTextSeparator,
		SecurityCodeFont:      font,
		SecurityCodeTextColor: textColor,
	}
}

func (d DesignSystem) PinViewDesign() PinViewConfiguration {
	return PinViewConfiguration{Font: d.PinFont, TextColor: d.PinTextColor}
}

func (d DesignSystem) PanViewDesign() PanViewConfiguration {
	separator := d.PanTextSeparator
	if separator == "" {
		separator = defaultPanTextSeparator
	}
	return PanViewConfiguration{Font: d.PanFont, TextColor: d.PanTextColor, FormatSeparator: separator}
}

func (d DesignSystem) SecurityCodeViewDesign() SecurityCodeViewConfiguration {
	return SecurityCodeViewConfiguration{Font: d.SecurityCodeFont, TextColor: d.SecurityCodeTextColor}
}

// LogDictionary flattens the design system into analytics-safe values.
func (d DesignSystem) LogDictionary() map[string]any {
	separator := d.PanTextSeparator
	if separator == "" {
		separator = defaultPanTextSeparator
	}
	return map[string]any{
		"pinFont":               d.PinFont.logDictionary(),
		"pinTextColor":          d.PinTextColor.logDictionary(),
		"panFont":               d.PanFont.logDictionary(),
		"panTextColor":          d.PanTextColor.logDictionary(),
		"panTextSeparator":      separator,
		"securityCodeFont":      d.SecurityCodeFont.logDictionary(),
		"securityCodeTextColor": d.SecurityCodeTextColor.logDictionary(),
	}
}

func (f Font) logDictionary() map[string]any {
	out := map[string]any{
		"name": strings.TrimSpace(f.Name),
		"size": int(f.Size),
	}
	if weight := strings.TrimSpace(f.Weight); weight != "" {
		out["weight"] = weight
	}
	return out
}

func (c Color) logDictionary() map[string]any {
	return map[string]any{"hex": c.Hex()}
}

package locator

import (
	"regexp"
	"strconv"
)

// Classification is the semantic outcome of parsing one inbound message.
type Classification string

const (
	// Valid means the message carried in-range coordinates.
	Valid Classification = "valid"
	// SpecificallyInvalid means the device reported the (-1,-1) sentinel:
	// it answered, but has no GPS fix yet. Distinct from a malformed message.
	SpecificallyInvalid Classification = "specifically_invalid"
	// Unparseable covers everything else: unrelated text, missing or
	// out-of-range coordinates.
	Unparseable Classification = "unparseable"
)

// BatteryUnknown is reported when no battery field could be read.
const BatteryUnknown = -1

// Reply is the parsed form of one locator SMS.
type Reply struct {
	Latitude       float64
	Longitude      float64
	BatteryPercent int
	Classification Classification
}

var (
	batteryRe         = regexp.MustCompile(`VBT:(\d+)%`)
	batteryFallbackRe = regexp.MustCompile(`VBT[:\s](\d+)%`)
	coordsRe          = regexp.MustCompile(`maps\?q=(-?\d+\.?\d*),\s*(-?\d+\.?\d*)`)
	bindingRe         = regexp.MustCompile(`Set;Binding\+(\+?\d+)`)
)

// Parse classifies raw inbound text. The SMS channel is noisy and partial
// data is expected, so Parse never fails: anything it cannot read degrades
// to BatteryUnknown or Unparseable.
func Parse(text string) Reply {
	reply := Reply{
		BatteryPercent: parseBattery(text),
		Classification: Unparseable,
	}

	m := coordsRe.FindStringSubmatch(text)
	if m == nil {
		return reply
	}

	lat, errLat := strconv.ParseFloat(m[1], 64)
	lng, errLng := strconv.ParseFloat(m[2], 64)
	if errLat != nil || errLng != nil {
		return reply
	}

	reply.Latitude = lat
	reply.Longitude = lng

	switch {
	case lat == -1.0 && lng == -1.0:
		reply.Classification = SpecificallyInvalid
	case lat >= -90.0 && lat <= 90.0 && lng >= -180.0 && lng <= 180.0:
		reply.Classification = Valid
	}
	return reply
}

// ParseBinding extracts the bound phone number from a "Set;Binding+<number>"
// confirmation, reporting whether the message is one.
func ParseBinding(text string) (string, bool) {
	m := bindingRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parseBattery(text string) int {
	m := batteryRe.FindStringSubmatch(text)
	if m == nil {
		// Some firmware revisions emit "VBT 19%" instead of "VBT:19%".
		m = batteryFallbackRe.FindStringSubmatch(text)
	}
	if m == nil {
		return BatteryUnknown
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct < 0 || pct > 100 {
		return BatteryUnknown
	}
	return pct
}

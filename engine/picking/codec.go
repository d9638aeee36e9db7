package picking

import "github.com/Carmen-Shannon/oxy-pick/engine/manipulator"

// SentinelColor is the value the pick target is cleared to before every pass. Pixels no interactive geometry covers
// keep this value, so they decode to manipulator.Sentinel instead of identity 0.
const SentinelColor uint16 = 0xFFFF

// Encode maps an identity onto the single-channel 16-bit color written into the pick target.
//
// Parameters:
//   - id: the manipulator identity
//
// Returns:
//   - uint16: the color value
func Encode(id manipulator.Identity) uint16 {
	return uint16(id)
}

// Decode maps a pick target color back onto an identity. SentinelColor decodes to manipulator.Sentinel.
//
// Parameters:
//   - v: the color value read back from the pick target
//
// Returns:
//   - manipulator.Identity: the identity encoded by v
func Decode(v uint16) manipulator.Identity {
	return manipulator.Identity(v)
}

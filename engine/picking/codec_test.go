package picking

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestDecodeSentinel(t *testing.T) {
	assert.Equal(t, manipulator.Sentinel, Decode(SentinelColor))
	assert.True(t, Decode(SentinelColor).IsNone())
	assert.Equal(t, SentinelColor, Encode(manipulator.Sentinel))
}

func TestDecodeZeroIsNotSentinel(t *testing.T) {
	assert.Equal(t, manipulator.Identity(0), Decode(0))
	assert.False(t, Decode(0).IsNone())
}

// Property: Decode(Encode(i)) == i for every identity below the sentinel.
func TestCodecRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("decode inverts encode", prop.ForAll(
		func(i int) bool {
			id := manipulator.Identity(i)
			return Decode(Encode(id)) == id && !Decode(Encode(id)).IsNone()
		},
		gen.IntRange(0, manipulator.MaxManipulators-1),
	))

	properties.TestingRun(t)
}

package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthConventionValues(t *testing.T) {
	assert.Equal(t, float32(1), DepthStandard.FarDepth())
	assert.Equal(t, CompareLess, DepthStandard.Compare())
	assert.Equal(t, CompareLessEqual, DepthStandard.OverlayCompare())

	assert.Equal(t, float32(0), DepthReversed.FarDepth())
	assert.Equal(t, CompareGreater, DepthReversed.Compare())
	assert.Equal(t, CompareGreaterEqual, DepthReversed.OverlayCompare())
}

func TestDetectConvention(t *testing.T) {
	tests := []struct {
		name string
		host HostInfo
		want DepthConvention
	}{
		{"legacy host", HostInfo{Version: 11550}, DepthStandard},
		{"reverse-z flag", HostInfo{Version: 11550, ReverseZ: true}, DepthReversed},
		{"modern driver on new host", HostInfo{Version: ReverseZVersion, ModernDriver: true}, DepthReversed},
		{"modern driver on old host", HostInfo{Version: ReverseZVersion - 1, ModernDriver: true}, DepthStandard},
		{"new host without modern driver", HostInfo{Version: 12100}, DepthStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectConvention(tt.host))
		})
	}
}

func TestConventionPolicy(t *testing.T) {
	reversedHost := HostInfo{ReverseZ: true}
	assert.Equal(t, DepthReversed, ConventionAuto.Resolve(reversedHost))
	assert.Equal(t, DepthStandard, ConventionForceStandard.Resolve(reversedHost))
	assert.Equal(t, DepthReversed, ConventionForceReversed.Resolve(HostInfo{}))

	for in, want := range map[string]ConventionPolicy{
		"":         ConventionAuto,
		"auto":     ConventionAuto,
		"standard": ConventionForceStandard,
		"reversed": ConventionForceReversed,
	} {
		got, err := ParseConventionPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseConventionPolicy("sideways")
	assert.ErrorIs(t, err, ErrUnknownConvention)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{"national number with default region", "4125550001", "US", "+14125550001"},
		{"formatted national number", "(412) 555-0001", "US", "+14125550001"},
		{"already E.164", "+14125550001", "US", "+14125550001"},
		{"foreign number overrides default region", "+919820012345", "US", "+919820012345"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.raw, tc.region)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizePhone_Rejections(t *testing.T) {
	_, err := NormalizePhone("not-a-number", "US")
	require.Error(t, err)

	// Too short to be a valid US number.
	_, err = NormalizePhone("12345", "US")
	require.Error(t, err)
}

func TestRegionCode(t *testing.T) {
	assert.Equal(t, "US", RegionCode("+14125550001"))
	assert.Equal(t, "IN", RegionCode("+919820012345"))
	assert.Equal(t, "", RegionCode("garbage"))
}

func TestAreaCode(t *testing.T) {
	assert.Equal(t, "412", AreaCode("+14125550001"))
	assert.Equal(t, "312", AreaCode("+13125550002"))

	// Only NANP numbers have area codes.
	assert.Equal(t, "", AreaCode("+919820012345"))
	assert.Equal(t, "", AreaCode("garbage"))
}

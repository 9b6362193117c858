package leagues

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func testActivity() Activity {
	return Activity{
		ID:       1,
		LeagueID: 1,
		Name:     "Rowing",
		Unit:     "meters",
		Base:     Threshold{Min: ptr(5000), Max: ptr(12000)},
	}
}

func TestResolveBelow40OverrideApplies(t *testing.T) {
	activity := testActivity()
	activity.Below40 = &Threshold{Min: ptr(6000), Max: ptr(14000)}

	resolved, err := ResolveActivityMinimum(activity, 35)
	require.NoError(t, err)
	assert.Equal(t, TierBelow40, resolved.Tier)
	assert.Equal(t, Limit{Value: 6000}, resolved.Min)
	assert.Equal(t, Limit{Value: 14000}, resolved.Max)
}

func TestResolveAbove60FallsBackToBase(t *testing.T) {
	resolved, err := ResolveActivityMinimum(testActivity(), 65)
	require.NoError(t, err)
	assert.Equal(t, TierAbove60, resolved.Tier)
	assert.Equal(t, Limit{Value: 5000}, resolved.Min)
	assert.Equal(t, Limit{Value: 12000}, resolved.Max)
}

func TestResolveBaseTierIgnoresOverrides(t *testing.T) {
	activity := testActivity()
	activity.Below40 = &Threshold{Min: ptr(6000)}
	activity.Above60 = &Threshold{Min: ptr(3000)}

	for _, age := range []float64{40, 47.5, 59.9} {
		resolved, err := ResolveActivityMinimum(activity, age)
		require.NoError(t, err)
		assert.Equal(t, TierBase, resolved.Tier, "age %v", age)
		assert.Equal(t, Limit{Value: 5000}, resolved.Min)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		age  float64
		want AgeTier
	}{
		{0, TierBelow40},
		{39.99, TierBelow40},
		{40, TierBase},
		{59.99, TierBase},
		{60, TierAbove60},
		{101, TierAbove60},
	}
	for _, tc := range cases {
		tier, err := TierForAge(tc.age)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, tier, "age %v", tc.age)
	}
}

func TestMissingBoundsResolveUnbounded(t *testing.T) {
	activity := testActivity()
	activity.Base = Threshold{}

	resolved, err := ResolveActivityMinimum(activity, 50)
	require.NoError(t, err)
	assert.True(t, resolved.Min.Unbounded)
	assert.True(t, resolved.Max.Unbounded)
	assert.Zero(t, resolved.Min.Value)

	// An override row with a missing side is also unbounded, even when the
	// base would have had a value.
	activity = testActivity()
	activity.Above60 = &Threshold{Max: ptr(9000)}
	resolved, err = ResolveActivityMinimum(activity, 72)
	require.NoError(t, err)
	assert.True(t, resolved.Min.Unbounded)
	assert.Equal(t, Limit{Value: 9000}, resolved.Max)
}

func TestInvalidAgeRejected(t *testing.T) {
	for _, age := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ResolveActivityMinimum(testActivity(), age)
		assert.ErrorIsf(t, err, ErrInvalidAge, "age %v", age)

		_, err = TierForAge(age)
		assert.ErrorIs(t, err, ErrInvalidAge)
	}
}

func TestRatioRangeIsFixedPolicy(t *testing.T) {
	min, max := RatioRange()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 2.0, max)
}

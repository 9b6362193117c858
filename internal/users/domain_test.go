package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAgeYearsAt(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth time.Time
		want  float64
	}{
		{"thirty five", time.Date(1991, 6, 1, 0, 0, 0, 0, time.UTC), 35},
		{"sixty", time.Date(1966, 6, 1, 0, 0, 0, 0, time.UTC), 60},
		{"just under forty", time.Date(1986, 6, 2, 0, 0, 0, 0, time.UTC), 39.99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := User{BirthDate: tc.birth}.AgeYearsAt(at)
			require.InDelta(t, tc.want, got, 0.01)
		})
	}
}

func TestAgeYearsAtFutureBirthDateIsNegative(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got := User{BirthDate: at.Add(24 * time.Hour)}.AgeYearsAt(at)
	require.Negative(t, got)
}

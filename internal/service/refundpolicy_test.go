package service

import (
	"testing"
	"time"

	"github.com/keygate/keygate/internal/domain/billing"
	"github.com/stretchr/testify/assert"
)

func TestIsRefundEligible(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name             string
		createdAt        time.Time
		expectedEligible bool
		expectedDays     float64
	}{
		{
			name:             "created_at_request_instant",
			createdAt:        now,
			expectedEligible: true,
			expectedDays:     0,
		},
		{
			name:             "three_days_ago",
			createdAt:        now.Add(-3 * 24 * time.Hour),
			expectedEligible: true,
			expectedDays:     3,
		},
		{
			name:             "half_day_fractional",
			createdAt:        now.Add(-12 * time.Hour),
			expectedEligible: true,
			expectedDays:     0.5,
		},
		{
			name:             "exactly_seven_days_is_inclusive",
			createdAt:        now.Add(-7 * 24 * time.Hour),
			expectedEligible: true,
			expectedDays:     7,
		},
		{
			name:             "one_second_past_seven_days",
			createdAt:        now.Add(-7*24*time.Hour - time.Second),
			expectedEligible: false,
			expectedDays:     7 + 1.0/86400,
		},
		{
			name:             "ten_days_ago",
			createdAt:        now.Add(-10 * 24 * time.Hour),
			expectedEligible: false,
			expectedDays:     10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sub := &billing.Subscription{
				ID:        "sub_test",
				CreatedAt: tc.createdAt,
			}

			result := IsRefundEligible(sub, now)

			assert.Equal(t, tc.expectedEligible, result.Eligible)
			assert.InDelta(t, tc.expectedDays, result.DaysSincePurchase, 1e-9)
		})
	}
}

func TestIsRefundEligibleUsesSingleInstant(t *testing.T) {
	// The same subscription evaluated twice against the same instant must
	// give the same answer, whatever the wall clock does in between.
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sub := &billing.Subscription{
		ID:        "sub_boundary",
		CreatedAt: now.Add(-7 * 24 * time.Hour),
	}

	first := IsRefundEligible(sub, now)
	second := IsRefundEligible(sub, now)

	assert.Equal(t, first, second)
	assert.True(t, first.Eligible)
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReleasedRecord(netPayable float64) *StudentFeeRecord {
	return &StudentFeeRecord{
		StudentID:       1,
		SemesterNumber:  2,
		TotalBaseAmount: 100000,
		NetPayable:      netPayable,
		PaidAmount:      0,
		DueAmount:       netPayable,
		Status:          FeeStatusPending,
	}
}

func TestApplyPaymentPartialThenFull(t *testing.T) {
	record := newReleasedRecord(50000)
	now := time.Now()

	require.NoError(t, record.ApplyPayment(20000, now))
	assert.Equal(t, FeeStatusPartiallyPaid, record.Status)
	assert.Equal(t, 20000.0, record.PaidAmount)
	assert.Equal(t, 30000.0, record.DueAmount)
	require.NotNil(t, record.LastPaymentAt)

	require.NoError(t, record.ApplyPayment(30000, now))
	assert.Equal(t, FeeStatusPaid, record.Status)
	assert.Equal(t, 50000.0, record.PaidAmount)
	assert.Equal(t, 0.0, record.DueAmount)
	assert.True(t, record.IsSettled())
}

func TestApplyPaymentConservesNetPayable(t *testing.T) {
	record := newReleasedRecord(75000)
	now := time.Now()

	for _, amount := range []float64{10000, 25000, 5000} {
		require.NoError(t, record.ApplyPayment(amount, now))
		assert.Equal(t, record.NetPayable, record.PaidAmount+record.DueAmount)
	}
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	record := newReleasedRecord(50000)
	now := time.Now()

	err := record.ApplyPayment(50001, now)
	require.ErrorIs(t, err, ErrOverpayment)

	// Rejected payments leave the record untouched
	assert.Equal(t, 0.0, record.PaidAmount)
	assert.Equal(t, 50000.0, record.DueAmount)
	assert.Equal(t, FeeStatusPending, record.Status)
	assert.Nil(t, record.LastPaymentAt)
}

func TestApplyPaymentRejectsNonPositiveAmounts(t *testing.T) {
	record := newReleasedRecord(50000)
	now := time.Now()

	require.ErrorIs(t, record.ApplyPayment(0, now), ErrNonPositiveAmount)
	require.ErrorIs(t, record.ApplyPayment(-100, now), ErrNonPositiveAmount)
	assert.Equal(t, FeeStatusPending, record.Status)
}

func TestApplyPaymentSettlementClearsOverdue(t *testing.T) {
	record := newReleasedRecord(50000)
	record.Overdue = true
	now := time.Now()

	// A partial payment leaves the overdue flag alone
	require.NoError(t, record.ApplyPayment(20000, now))
	assert.True(t, record.Overdue)

	// Full settlement clears it
	require.NoError(t, record.ApplyPayment(30000, now))
	assert.Equal(t, FeeStatusPaid, record.Status)
	assert.False(t, record.Overdue)
}

func TestApplyPaymentExactSettlement(t *testing.T) {
	record := newReleasedRecord(50000)

	require.NoError(t, record.ApplyPayment(50000, time.Now()))
	assert.Equal(t, FeeStatusPaid, record.Status)
	assert.Equal(t, 0.0, record.DueAmount)

	// A settled record accepts no further payments
	require.ErrorIs(t, record.ApplyPayment(1, time.Now()), ErrOverpayment)
}

func TestUserAddBacklogsUnions(t *testing.T) {
	user := &User{Backlogs: []int64{3, 7}}

	user.AddBacklogs([]int64{7, 9, 3, 12})

	assert.ElementsMatch(t, []int64{3, 7, 9, 12}, []int64(user.Backlogs))
}

func TestUserEligibility(t *testing.T) {
	user := &User{PromotionState: PromotionAwaitingPayment}
	assert.False(t, user.IsEligibleForNextSemester())

	user.PromotionState = PromotionEligible
	assert.True(t, user.IsEligibleForNextSemester())
}

func TestScholarshipRuleMatches(t *testing.T) {
	rule := ScholarshipRule{MinPercentage: 90, MaxPercentage: 100, DiscountPercentage: 50, IsActive: true}

	assert.True(t, rule.Matches(92))
	assert.True(t, rule.Matches(90))
	assert.True(t, rule.Matches(100))
	assert.False(t, rule.Matches(89.99))

	rule.IsActive = false
	assert.False(t, rule.Matches(92))
}

package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type crisisFixture struct {
	input   CrisisInput
	starved DepotFuelState
	tight   DepotFuelState
	steady  DepotFuelState
	orderD1 ActiveOrder
	orderD2 ActiveOrder
	orderD3 ActiveOrder
}

// newCrisisFixture builds a receiver that reaches its critical level in 25 days and
// three siblings:
//   - starved: 50,000 L at 2,000 L/day with 20,000 L due in 20 days (cannot spare anything)
//   - tight: 40,000 L at 500 L/day with 15,000 L due in 10 days
//   - steady: 30,000 L with no consumption data and 10,000 L due in 30 days
func newCrisisFixture() crisisFixture {
	receiver := DepotFuelState{
		DepotID:          uuid.New(),
		DepotName:        "Receiver",
		StockLiters:      7000,
		CapacityLiters:   50000,
		DailyConsumption: rate(200),
		Policy:           &PolicyLevels{CriticalLiters: 2000, MinLiters: 5000, TargetLiters: 30000},
	}
	starved := DepotFuelState{DepotID: uuid.New(), DepotName: "Starved", StockLiters: 50000, CapacityLiters: 60000, DailyConsumption: rate(2000)}
	tight := DepotFuelState{DepotID: uuid.New(), DepotName: "Tight", StockLiters: 40000, CapacityLiters: 60000, DailyConsumption: rate(500)}
	steady := DepotFuelState{DepotID: uuid.New(), DepotName: "Steady", StockLiters: 30000, CapacityLiters: 40000}

	f := crisisFixture{
		starved: starved,
		tight:   tight,
		steady:  steady,
		orderD1: ActiveOrder{OrderID: uuid.New(), OrderNumber: "ERP-1", DepotID: starved.DepotID, Status: "in_transit", QuantityLiters: 20000, DeliveryDate: today.AddDate(0, 0, 20)},
		orderD2: ActiveOrder{OrderID: uuid.New(), OrderNumber: "ERP-2", DepotID: tight.DepotID, Status: "in_transit", QuantityLiters: 15000, DeliveryDate: today.AddDate(0, 0, 10)},
		orderD3: ActiveOrder{OrderID: uuid.New(), OrderNumber: "ERP-3", DepotID: steady.DepotID, Status: "in_transit", QuantityLiters: 10000, DeliveryDate: today.AddDate(0, 0, 30)},
	}
	f.input = CrisisInput{
		FuelTypeID:    uuid.New(),
		FuelCode:      "DT",
		Density:       0.84,
		Receiver:      receiver,
		Siblings:      []DepotFuelState{starved, tight, steady},
		SiblingOrders: []ActiveOrder{f.orderD1, f.orderD2, f.orderD3},
	}
	return f
}

func TestFindOptions_ReceiverProfile(t *testing.T) {
	f := newCrisisFixture()

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	r := opts.Receiver
	assert.Equal(t, 23000.0, r.QtyNeededLiters)
	assert.Equal(t, 19.32, r.QtyNeededTons)
	assert.Equal(t, 25.0, *r.DaysUntilCritical)
	require.NotNil(t, r.CriticalLevelDate)
	assert.Equal(t, date(2026, 4, 4), *r.CriticalLevelDate)
	assert.Equal(t, LevelsFromPolicy, r.Levels.Source)
}

func TestFindOptions_SplitDelivery(t *testing.T) {
	f := newCrisisFixture()

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	require.Len(t, opts.SplitDelivery, 1, "starved donor is unsafe and steady's order lands after the critical date")

	split := opts.SplitDelivery[0]
	assert.Equal(t, f.orderD2.OrderID, split.OrderID)
	assert.Equal(t, f.tight.DepotID, split.DonorDepotID)
	assert.Equal(t, 10, split.DaysToDelivery)
	assert.Equal(t, 12500.0, split.DonorMinSafeLiters)
	assert.Equal(t, 27500.0, split.DonorSpareLiters)
	assert.Equal(t, 15000.0, split.MaxSplitLiters)
	assert.Equal(t, 12.6, split.MaxSplitTons)
	assert.Equal(t, 15000.0, split.SuggestedSplitLiters)
	assert.Equal(t, 25000.0, split.DonorAfterSplitLiters)
	assert.Equal(t, 35000.0, split.DonorAfterDeliveryLiters)
	assert.Equal(t, 8000.0, split.CompensatingPOs.ReceiverLiters)
	assert.Equal(t, 15000.0, split.CompensatingPOs.DonorLiters)
	assert.Equal(t, 12.6, split.CompensatingPOs.DonorTons)
}

func TestFindOptions_DonorWithNegativeSpareIsExcluded(t *testing.T) {
	f := newCrisisFixture()
	f.input.Siblings = []DepotFuelState{f.starved}
	f.input.SiblingOrders = []ActiveOrder{f.orderD1}

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	// 2,000 L/day * (20 + 15) days = 70,000 L needed against 50,000 L on hand
	assert.Empty(t, opts.SplitDelivery)
	assert.Empty(t, opts.Transfer)
}

func TestFindOptions_Transfer(t *testing.T) {
	f := newCrisisFixture()

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	require.Len(t, opts.Transfer, 2)

	first := opts.Transfer[0]
	assert.Equal(t, f.tight.DepotID, first.DonorDepotID)
	assert.Equal(t, 10, first.LeadTimeDays)
	assert.Equal(t, 27500.0, first.MaxTransferLiters)
	assert.Equal(t, 23.1, first.MaxTransferTons)
	assert.Equal(t, 23000.0, first.SuggestedTransferLiters)
	assert.Equal(t, 19.32, first.SuggestedTransferTons)
	assert.Equal(t, 0.0, first.CompensatingPOs.ReceiverLiters)

	second := opts.Transfer[1]
	assert.Equal(t, f.steady.DepotID, second.DonorDepotID)
	assert.Equal(t, 30, second.LeadTimeDays)
	assert.Equal(t, 26000.0, second.MaxTransferLiters)
	assert.Equal(t, 23000.0, second.SuggestedTransferLiters)
	require.NotNil(t, second.DonorAtNextDelivery)
	assert.Equal(t, 17000.0, *second.DonorAtNextDelivery)
}

func TestFindOptions_TransferWithoutScheduledDeliveryUsesDefaultLead(t *testing.T) {
	f := newCrisisFixture()
	donor := f.tight
	f.input.Siblings = []DepotFuelState{donor}
	f.input.SiblingOrders = nil

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	require.Len(t, opts.Transfer, 1)
	// 500 L/day * (30 + 15) = 22,500 L reserved
	assert.Equal(t, 30, opts.Transfer[0].LeadTimeDays)
	assert.Equal(t, 17500.0, opts.Transfer[0].MaxTransferLiters)
	assert.Equal(t, 17500.0, opts.Transfer[0].SuggestedTransferLiters)
	assert.Nil(t, opts.Transfer[0].NextDeliveryDate)
}

func TestFindOptions_NoConsumptionMeansNoSplit(t *testing.T) {
	f := newCrisisFixture()
	f.input.Receiver.DailyConsumption = nil

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	assert.Nil(t, opts.Receiver.CriticalLevelDate)
	assert.Empty(t, opts.SplitDelivery)
	assert.NotEmpty(t, opts.Transfer)
}

func TestFindOptions_PlannedOrdersAreNotSplit(t *testing.T) {
	f := newCrisisFixture()
	planned := f.orderD2
	planned.Status = "planned"
	f.input.SiblingOrders = []ActiveOrder{planned}

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	assert.Empty(t, opts.SplitDelivery)
}

func TestFindOptions_SafetyLimits(t *testing.T) {
	f := newCrisisFixture()
	p := DefaultParameters()

	for _, donorStock := range []float64{8000, 15000, 26000, 40000, 58000} {
		for _, donorRate := range []float64{0, 100, 800, 1500} {
			donor := f.tight
			donor.StockLiters = donorStock
			donor.DailyConsumption = rate(donorRate)
			f.input.Siblings = []DepotFuelState{donor}

			opts, err := FindOptions(f.input, p, today)
			require.NoError(t, err)

			levels := ResolveLevels(nil, donor.CapacityLiters, p)
			for _, s := range opts.SplitDelivery {
				assert.GreaterOrEqual(t, s.DonorAfterSplitLiters, levels.CriticalLiters)
				assert.GreaterOrEqual(t, s.DonorAfterDeliveryLiters, levels.MinLiters)
				assert.LessOrEqual(t, s.SuggestedSplitTons, s.MaxSplitTons)
				assert.LessOrEqual(t, s.SuggestedSplitLiters, s.MaxSplitLiters)
			}
			for _, tr := range opts.Transfer {
				assert.GreaterOrEqual(t, tr.DonorAfterTransferLiters, levels.CriticalLiters)
				assert.LessOrEqual(t, tr.SuggestedTransferTons, tr.MaxTransferTons)
				if tr.DonorAtNextDelivery != nil {
					assert.GreaterOrEqual(t, *tr.DonorAtNextDelivery, levels.MinLiters)
				}
			}
		}
	}
}

func TestFindOptions_InvalidInput(t *testing.T) {
	f := newCrisisFixture()
	f.input.Density = 0
	_, err := FindOptions(f.input, DefaultParameters(), today)
	assert.ErrorIs(t, err, ErrInvalidInput)

	f = newCrisisFixture()
	f.input.Receiver.CapacityLiters = 0
	_, err = FindOptions(f.input, DefaultParameters(), today)
	assert.ErrorIs(t, err, ErrInvalidInput)

	f = newCrisisFixture()
	f.input.Receiver.Policy = &PolicyLevels{CriticalLiters: 6000, MinLiters: 5000, TargetLiters: 30000}
	_, err = FindOptions(f.input, DefaultParameters(), today)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFindOptions_InconsistentDonorPolicyIsWarned(t *testing.T) {
	f := newCrisisFixture()
	bad := f.tight
	bad.Policy = &PolicyLevels{CriticalLiters: 9000, MinLiters: 1000, TargetLiters: 20000}
	f.input.Siblings = []DepotFuelState{bad}

	opts, err := FindOptions(f.input, DefaultParameters(), today)

	require.NoError(t, err)
	assert.Empty(t, opts.SplitDelivery)
	assert.Empty(t, opts.Transfer)
	require.Len(t, opts.Warnings, 1)
	assert.Equal(t, WarningInvalidThresholds, opts.Warnings[0].Code)
}

func TestFindOptions_ReceiverAtTargetGetsNoOptions(t *testing.T) {
	for _, stock := range []float64{30000, 42000} {
		f := newCrisisFixture()
		f.input.Receiver.StockLiters = stock

		opts, err := FindOptions(f.input, DefaultParameters(), today)

		require.NoError(t, err)
		assert.Equal(t, 0.0, opts.Receiver.QtyNeededLiters)
		assert.Empty(t, opts.SplitDelivery)
		assert.Empty(t, opts.Transfer)
		require.Len(t, opts.Warnings, 1)
		assert.Equal(t, WarningReceiverAtTarget, opts.Warnings[0].Code)
		assert.Equal(t, f.input.Receiver.DepotID, opts.Warnings[0].DepotID)
	}
}

func TestFindOptions_LookupHelpers(t *testing.T) {
	f := newCrisisFixture()
	opts, err := FindOptions(f.input, DefaultParameters(), today)
	require.NoError(t, err)

	_, ok := opts.FindSplitOption(f.orderD2.OrderID)
	assert.True(t, ok)
	_, ok = opts.FindSplitOption(f.orderD1.OrderID)
	assert.False(t, ok)

	_, ok = opts.FindTransferOption(f.steady.DepotID)
	assert.True(t, ok)
	_, ok = opts.FindTransferOption(f.starved.DepotID)
	assert.False(t, ok)
}

func TestExceedsSafeMaximum(t *testing.T) {
	assert.False(t, ExceedsSafeMaximum(12.6, 12.6))
	assert.False(t, ExceedsSafeMaximum(12.605, 12.6))
	assert.True(t, ExceedsSafeMaximum(12.65, 12.6))
}

package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eicrcore/pkg/domain"
)

func collection(n int) []domain.TestResult {
	out := make([]domain.TestResult, n)
	for i := range out {
		out[i] = domain.NewTestResult(string(rune('1' + i)))
		out[i].AutoFilled = true
	}
	return out
}

func TestFillEmptyCountsChangedRecords(t *testing.T) {
	records := collection(5)
	records[1].Polarity = "✓"
	records[3].Polarity = "✗"
	records[4].Polarity = "  "

	out, count, err := FillEmpty(records, domain.FieldPolarity, "✓")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"✓", "✓", "✓", "✗", "✓"}, polarities(out))
	assert.False(t, out[0].AutoFilled)
	assert.True(t, out[1].AutoFilled, "unchanged record keeps its provenance")
	assert.Equal(t, "", records[0].Polarity, "input must not be modified")
}

func TestFillAllClearsAutoFilledOnlyWhenChanged(t *testing.T) {
	records := collection(3)
	records[2].Zs = "0.45"

	out, count, err := FillAll(records, domain.FieldZs, "0.45")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	for _, r := range out {
		assert.Equal(t, "0.45", r.Zs)
	}
	assert.False(t, out[0].AutoFilled)
	assert.True(t, out[2].AutoFilled)
}

func TestFillAllKeepsIdentity(t *testing.T) {
	records := collection(2)
	out, _, err := FillAll(records, domain.FieldNotes, "checked")
	require.NoError(t, err)
	for i := range out {
		assert.Equal(t, records[i].ID, out[i].ID)
		assert.Equal(t, records[i].CircuitNumber, out[i].CircuitNumber)
		assert.Equal(t, records[i].CircuitDesignation, out[i].CircuitDesignation)
	}
}

func TestFillAllRejectsIDAndUnknownFields(t *testing.T) {
	_, _, err := FillAll(collection(1), domain.FieldID, "x")
	assert.ErrorIs(t, err, domain.ErrImmutableField)
	_, _, err = FillAll(collection(1), domain.Field("colour"), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestFillAllLegacyAliasesStayInSync(t *testing.T) {
	out, _, err := FillAll(collection(2), domain.FieldCableSize, "2.5")
	require.NoError(t, err)
	for _, r := range out {
		assert.Equal(t, "2.5", r.LiveSize)
		assert.Equal(t, r.LiveSize, r.CableSize)
	}
	out, _, err = FillAll(out, domain.FieldProtectiveDevice, "B32A")
	require.NoError(t, err)
	assert.Equal(t, "32", out[0].ProtectiveDeviceRating)
}

func TestFillBoardMatchesLocationOrNotes(t *testing.T) {
	records := collection(4)
	records[0].ProtectiveDeviceLocation = "DB1 Kitchen"
	records[1].Notes = "fed from db1"
	records[2].ProtectiveDeviceLocation = "DB2 Garage"

	out, count, err := FillBoard(records, domain.FieldRCDType, "A", "Db1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "A", out[0].RCDType)
	assert.Equal(t, "A", out[1].RCDType)
	assert.Equal(t, "", out[2].RCDType)

	_, count, err = FillBoard(records, domain.FieldRCDType, "A", "  ")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestApplyPresetTargetsIDs(t *testing.T) {
	records := collection(3)
	preset := []Assignment{
		{domain.FieldRCDBSStandard, "BS EN 61008"},
		{domain.FieldRCDType, "A"},
		{domain.FieldRCDRating, "30"},
	}
	out, count, err := ApplyPreset(records, preset, []string{records[0].ID, records[2].ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "A", out[0].RCDType)
	assert.Equal(t, "", out[1].RCDType)
	assert.Equal(t, "30", out[2].RCDRating)
	assert.False(t, out[2].AutoFilled)

	_, _, err = ApplyPreset(records, []Assignment{{domain.FieldID, "x"}}, []string{records[0].ID})
	assert.ErrorIs(t, err, domain.ErrImmutableField)
}

func polarities(records []domain.TestResult) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Polarity
	}
	return out
}

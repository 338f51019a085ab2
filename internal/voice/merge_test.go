package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beespeak/internal/domain"
)

func TestApplyFlagsIsSparse(t *testing.T) {
	t.Parallel()

	current := domain.InspectionFlags{QueenSeen: domain.Bool(true)}
	got := ApplyFlags(current, domain.InspectionFlags{EggsPresent: domain.Bool(true)})

	require.NotNil(t, got.QueenSeen)
	assert.True(t, *got.QueenSeen)
	require.NotNil(t, got.EggsPresent)
	assert.True(t, *got.EggsPresent)
	assert.Nil(t, got.BroodPatternGood)
	assert.Equal(t, domain.VarroaNone, got.VarroaLevel)
}

func TestApplyFlagsIdempotent(t *testing.T) {
	t.Parallel()

	current := domain.InspectionFlags{BroodPatternGood: domain.Bool(false), VarroaLevel: domain.VarroaLow}
	patch := ExtractFlags("queen seen, no eggs, varroa medium")

	once := ApplyFlags(current, patch)
	twice := ApplyFlags(once, patch)
	assert.Equal(t, once, twice)
}

func TestApplyFlagsVarroaNoneKeepsLevel(t *testing.T) {
	t.Parallel()

	current := domain.InspectionFlags{VarroaLevel: domain.VarroaHigh}
	got := ApplyFlags(current, domain.InspectionFlags{QueenCells: domain.Bool(false)})
	assert.Equal(t, domain.VarroaHigh, got.VarroaLevel)
}

func TestApplyFlagsLastMentionWinsPerField(t *testing.T) {
	t.Parallel()

	state := domain.InspectionFlags{}
	for _, utterance := range []string{"queen seen, varroa high", "queen not seen", "varroa low"} {
		state = ApplyFlags(state, ExtractFlags(utterance))
	}

	require.NotNil(t, state.QueenSeen)
	assert.False(t, *state.QueenSeen)
	assert.Equal(t, domain.VarroaLow, state.VarroaLevel)
}

func TestApplyFlagsDoesNotAliasInputs(t *testing.T) {
	t.Parallel()

	patch := domain.InspectionFlags{QueenSeen: domain.Bool(true)}
	got := ApplyFlags(domain.InspectionFlags{}, patch)
	*patch.QueenSeen = false

	require.NotNil(t, got.QueenSeen)
	assert.True(t, *got.QueenSeen)
}

func TestApplyCommandFlagCommands(t *testing.T) {
	t.Parallel()

	state := domain.InspectionFlags{}
	state = ApplyCommand(state, domain.CommandQueenSeen)
	state = ApplyCommand(state, domain.CommandEggsNotPresent)
	state = ApplyCommand(state, domain.CommandBroodGood)
	state = ApplyCommand(state, domain.CommandQueenCellsAbsent)
	state = ApplyCommand(state, domain.CommandVarroaMedium)

	require.NotNil(t, state.QueenSeen)
	assert.True(t, *state.QueenSeen)
	require.NotNil(t, state.EggsPresent)
	assert.False(t, *state.EggsPresent)
	require.NotNil(t, state.BroodPatternGood)
	assert.True(t, *state.BroodPatternGood)
	require.NotNil(t, state.QueenCells)
	assert.False(t, *state.QueenCells)
	assert.Equal(t, domain.VarroaMedium, state.VarroaLevel)
}

func TestApplyCommandLifecycleLeavesFlags(t *testing.T) {
	t.Parallel()

	state := domain.InspectionFlags{QueenSeen: domain.Bool(true), VarroaLevel: domain.VarroaLow}
	for _, command := range []domain.CommandID{
		domain.CommandSave,
		domain.CommandCancel,
		domain.CommandStartInspection,
		domain.CommandFinishInspection,
		domain.CommandAddPhoto,
		domain.CommandNextFrame,
	} {
		assert.Equal(t, state, ApplyCommand(state, command), "command %s", command)
		assert.True(t, IsLifecycleCommand(command))
		assert.False(t, IsFlagCommand(command))
	}
	assert.False(t, IsLifecycleCommand("unknown"))
}

func TestCommandAndExtractorBothWriteSameState(t *testing.T) {
	t.Parallel()

	state := ApplyFlags(domain.InspectionFlags{}, ExtractFlags("queen seen"))
	state = ApplyCommand(state, domain.CommandQueenNotSeen)
	require.NotNil(t, state.QueenSeen)
	assert.False(t, *state.QueenSeen)

	state = ApplyFlags(state, ExtractFlags("saw queen"))
	assert.True(t, *state.QueenSeen)
}

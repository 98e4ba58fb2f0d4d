package brackets

import (
	"testing"

	"github.com/openrally/matchplay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bracketMatch(round, orderInRound, bracketRounds int) *models.Match {
	return &models.Match{
		BracketUID:    MatchUID(round, orderInRound),
		Stage:         "Main Bracket",
		Round:         round,
		OrderInRound:  orderInRound,
		BracketRounds: bracketRounds,
	}
}

func TestShellAfterSlotAndTarget(t *testing.T) {
	cases := []struct {
		orderInRound int
		wantUID      string
		wantSlot     models.SideSlot
	}{
		{1, "R2M1", models.Side1},
		{2, "R2M1", models.Side2},
		{3, "R2M2", models.Side1},
		{4, "R2M2", models.Side2},
	}
	for _, tc := range cases {
		shell, slot := ShellAfter(1, tc.orderInRound, 3)
		assert.Equal(t, tc.wantUID, shell.UID)
		assert.Equal(t, tc.wantSlot, slot)
		assert.Equal(t, 2, shell.Round)
		assert.Equal(t, 3, shell.BracketRounds)
	}
}

func TestShellAfterPendingSourcesNameFeedingMatches(t *testing.T) {
	shell, _ := ShellAfter(2, 2, 3)
	require.NotNil(t, shell.Side1.SourceUID)
	require.NotNil(t, shell.Side2.SourceUID)
	assert.Equal(t, "R2M1", *shell.Side1.SourceUID)
	assert.Equal(t, "R2M2", *shell.Side2.SourceUID)
	assert.False(t, shell.Side1.TakeLoser)
	assert.False(t, shell.Side2.TakeLoser)
}

func TestWinnerTargetAdvancesEarlyRounds(t *testing.T) {
	shell, slot, ok := WinnerTarget(bracketMatch(1, 4, 3))
	require.True(t, ok)
	assert.Equal(t, "R2M2", shell.UID)
	assert.Equal(t, models.Side2, slot)
	assert.Equal(t, "Main Bracket", shell.Stage)
}

func TestWinnerTargetStopsAtFinalBronzeAndPools(t *testing.T) {
	_, _, ok := WinnerTarget(bracketMatch(3, 1, 3))
	assert.False(t, ok, "final has no target")

	bronze := bracketMatch(models.FinalStageRound, 1, 3)
	bronze.BracketUID = BronzeUID
	_, _, ok = WinnerTarget(bronze)
	assert.False(t, ok, "bronze has no target")

	pool := &models.Match{BracketUID: "PAM1", Round: 1, OrderInRound: 1}
	_, _, ok = WinnerTarget(pool)
	assert.False(t, ok, "pool matches never advance")
}

func TestIsSemifinal(t *testing.T) {
	assert.True(t, IsSemifinal(bracketMatch(2, 1, 3)))
	assert.False(t, IsSemifinal(bracketMatch(1, 1, 3)))
	assert.False(t, IsSemifinal(bracketMatch(3, 1, 3)))
	// A two-team bracket's only match is the final, not a semifinal.
	assert.False(t, IsSemifinal(bracketMatch(1, 1, 1)))
}

func TestLoserTeamID(t *testing.T) {
	m := bracketMatch(2, 1, 3)
	m.Side1 = models.ResolvedSide(10)
	m.Side2 = models.ResolvedSide(20)

	_, ok := LoserTeamID(m)
	assert.False(t, ok, "undecided match has no loser")

	winner := 10
	m.WinnerTeamID = &winner
	loser, ok := LoserTeamID(m)
	require.True(t, ok)
	assert.Equal(t, 20, loser)

	winner = 20
	loser, ok = LoserTeamID(m)
	require.True(t, ok)
	assert.Equal(t, 10, loser)
}

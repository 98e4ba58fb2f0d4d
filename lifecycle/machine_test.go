package lifecycle

import (
	"testing"

	"github.com/openrally/matchplay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	organizerID = 1
	playerA1    = 10
	playerA2    = 11
	playerB1    = 20
	playerB2    = 21
)

func testTeams() (*models.Team, *models.Team) {
	a2, b2 := playerA2, playerB2
	side1 := &models.Team{ID: 100, Player1ID: playerA1, Player2ID: &a2}
	side2 := &models.Team{ID: 200, Player1ID: playerB1, Player2ID: &b2}
	return side1, side2
}

func testMatch() *models.Match {
	m := &models.Match{
		ID:         1,
		DivisionID: 1,
		BracketUID: "R1M1",
		State:      models.MatchStateNone,
	}
	m.Side1 = models.ResolvedSide(100)
	m.Side2 = models.ResolvedSide(200)
	return m
}

func roleFor(m *models.Match, userID int, duprEligible bool) Role {
	side1, side2 := testTeams()
	return ComputeRole(m, side1, side2, userID, userID == organizerID, duprEligible)
}

func winningGames() []models.GameScore {
	return []models.GameScore{g(11, 9), g(9, 11), g(11, 7)}
}

func TestProposeSignFinalizeHappyPath(t *testing.T) {
	m := testMatch()

	err := Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateProposed, m.State)
	assert.Equal(t, playerA1, *m.Score.ProposedByUserID)
	assert.Equal(t, 100, *m.Score.ProposedByTeamID)

	err = Sign(m, roleFor(m, playerB2, false), playerB2)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateSigned, m.State)
	assert.Equal(t, playerB2, *m.Score.ConfirmedByUserID)

	err = Finalize(m, roleFor(m, organizerID, false), nil, standardRules)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateOfficial, m.State)
	require.NotNil(t, m.WinnerTeamID)
	assert.Equal(t, 100, *m.WinnerTeamID)
}

func TestProposeGuards(t *testing.T) {
	t.Run("non-participant rejected", func(t *testing.T) {
		m := testMatch()
		err := Propose(m, roleFor(m, 999, false), 999, winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("unresolved side rejected", func(t *testing.T) {
		m := testMatch()
		m.Side2 = models.PendingSide("R1M2", false)
		err := Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrSideUnresolved)
	})

	t.Run("second proposal rejected", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		err := Propose(m, roleFor(m, playerB1, false), playerB1, winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("incomplete score rejected", func(t *testing.T) {
		m := testMatch()
		err := Propose(m, roleFor(m, playerA1, false), playerA1,
			[]models.GameScore{g(11, 9), g(9, 11)}, standardRules)
		var incomplete *IncompleteMatchError
		assert.ErrorAs(t, err, &incomplete)
		assert.Equal(t, models.MatchStateNone, m.State)
	})
}

func TestSignGuards(t *testing.T) {
	t.Run("own side cannot sign", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		err := Sign(m, roleFor(m, playerA2, false), playerA2)
		assert.ErrorIs(t, err, ErrOwnProposal)
	})

	t.Run("no proposal to sign", func(t *testing.T) {
		m := testMatch()
		err := Sign(m, roleFor(m, playerB1, false), playerB1)
		assert.ErrorIs(t, err, ErrNoProposal)
	})

	t.Run("double sign rejected", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		require.NoError(t, Sign(m, roleFor(m, playerB1, false), playerB1))
		err := Sign(m, roleFor(m, playerB2, false), playerB2)
		assert.ErrorIs(t, err, ErrAlreadySigned)
	})

	t.Run("organizer outside the match cannot sign", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		err := Sign(m, roleFor(m, organizerID, false), organizerID)
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}

func TestDispute(t *testing.T) {
	t.Run("participant disputes proposed score", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		err := Dispute(m, roleFor(m, playerB1, false), playerB1, "game 2 score entered backwards")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStateDisputed, m.State)
		assert.Equal(t, playerB1, *m.Score.DisputedByUserID)
	})

	t.Run("signed score can still be disputed", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		require.NoError(t, Sign(m, roleFor(m, playerB1, false), playerB1))
		err := Dispute(m, roleFor(m, playerA1, false), playerA1, "wrong game order")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStateDisputed, m.State)
	})

	t.Run("reason required", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		err := Dispute(m, roleFor(m, playerB1, false), playerB1, "   ")
		assert.ErrorIs(t, err, ErrDisputeReasonRequired)
	})

	t.Run("unscored match cannot be disputed", func(t *testing.T) {
		m := testMatch()
		err := Dispute(m, roleFor(m, playerB1, false), playerB1, "reason")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestFinalize(t *testing.T) {
	t.Run("unilateral finalize from unscored", func(t *testing.T) {
		m := testMatch()
		err := Finalize(m, roleFor(m, organizerID, false), winningGames(), standardRules)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStateOfficial, m.State)
		assert.Equal(t, 100, *m.WinnerTeamID)
	})

	t.Run("finalize resolves a dispute", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Propose(m, roleFor(m, playerA1, false), playerA1, winningGames(), standardRules))
		require.NoError(t, Dispute(m, roleFor(m, playerB1, false), playerB1, "disagreement"))

		corrected := []models.GameScore{g(9, 11), g(11, 9), g(7, 11)}
		err := Finalize(m, roleFor(m, organizerID, false), corrected, standardRules)
		require.NoError(t, err)
		assert.Equal(t, 200, *m.WinnerTeamID)
	})

	t.Run("participant cannot finalize", func(t *testing.T) {
		m := testMatch()
		err := Finalize(m, roleFor(m, playerA1, false), winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})

	t.Run("finalize without games requires a proposal", func(t *testing.T) {
		m := testMatch()
		err := Finalize(m, roleFor(m, organizerID, false), nil, standardRules)
		var incomplete *IncompleteMatchError
		assert.ErrorAs(t, err, &incomplete)
	})
}

func TestOrganizerParticipantPolicy(t *testing.T) {
	a2 := playerA2
	side1 := &models.Team{ID: 100, Player1ID: organizerID, Player2ID: &a2}
	_, side2 := testTeams()

	t.Run("cannot propose own match in eligible division", func(t *testing.T) {
		m := testMatch()
		role := ComputeRole(m, side1, side2, organizerID, true, true)
		err := Propose(m, role, organizerID, winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrSelfReportForbidden)
	})

	t.Run("may still propose as plain participant when not eligible", func(t *testing.T) {
		m := testMatch()
		role := ComputeRole(m, side1, side2, organizerID, true, false)
		err := Propose(m, role, organizerID, winningGames(), standardRules)
		assert.NoError(t, err)
	})

	t.Run("cannot finalize own match in eligible division", func(t *testing.T) {
		m := testMatch()
		role := ComputeRole(m, side1, side2, organizerID, true, true)
		err := Finalize(m, role, winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})

	t.Run("may sign the opponent proposal", func(t *testing.T) {
		m := testMatch()
		// Side 2 proposes, the playing organizer signs for side 1.
		proposerRole := ComputeRole(m, side1, side2, playerB1, false, true)
		require.NoError(t, Propose(m, proposerRole, playerB1, winningGames(), standardRules))

		role := ComputeRole(m, side1, side2, organizerID, true, true)
		err := Sign(m, role, organizerID)
		assert.NoError(t, err)
	})
}

func TestEditScores(t *testing.T) {
	official := func(t *testing.T) *models.Match {
		m := testMatch()
		require.NoError(t, Finalize(m, roleFor(m, organizerID, false), winningGames(), standardRules))
		return m
	}

	t.Run("edit recomputes the winner", func(t *testing.T) {
		m := official(t)
		flipped := []models.GameScore{g(9, 11), g(11, 9), g(7, 11)}
		err := EditScores(m, roleFor(m, organizerID, false), flipped, standardRules)
		require.NoError(t, err)
		assert.Equal(t, 200, *m.WinnerTeamID)
		assert.Equal(t, models.MatchStateOfficial, m.State)
	})

	t.Run("only official results can be edited", func(t *testing.T) {
		m := testMatch()
		err := EditScores(m, roleFor(m, organizerID, false), winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("participant cannot edit", func(t *testing.T) {
		m := official(t)
		err := EditScores(m, roleFor(m, playerA1, false), winningGames(), standardRules)
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})
}

func TestSubmittedMatchIsImmutable(t *testing.T) {
	m := testMatch()
	require.NoError(t, Finalize(m, roleFor(m, organizerID, true), winningGames(), standardRules))
	require.NoError(t, SubmitToRatingService(m, roleFor(m, organizerID, true), true))
	assert.Equal(t, models.MatchStateSubmitted, m.State)

	assert.ErrorIs(t, Propose(m, roleFor(m, playerA1, true), playerA1, winningGames(), standardRules), ErrMatchImmutable)
	assert.ErrorIs(t, Sign(m, roleFor(m, playerB1, true), playerB1), ErrMatchImmutable)
	assert.ErrorIs(t, Dispute(m, roleFor(m, playerB1, true), playerB1, "late dispute"), ErrMatchImmutable)
	assert.ErrorIs(t, Finalize(m, roleFor(m, organizerID, true), winningGames(), standardRules), ErrMatchImmutable)
	assert.ErrorIs(t, EditScores(m, roleFor(m, organizerID, true), winningGames(), standardRules), ErrMatchImmutable)
	assert.ErrorIs(t, SubmitToRatingService(m, roleFor(m, organizerID, true), true), ErrMatchImmutable)
}

func TestSubmitToRatingServiceGuards(t *testing.T) {
	t.Run("requires official state", func(t *testing.T) {
		m := testMatch()
		err := SubmitToRatingService(m, roleFor(m, organizerID, true), true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("requires eligibility", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Finalize(m, roleFor(m, organizerID, false), winningGames(), standardRules))
		err := SubmitToRatingService(m, roleFor(m, organizerID, false), false)
		assert.ErrorIs(t, err, ErrNotDuprEligible)
	})

	t.Run("requires organizer", func(t *testing.T) {
		m := testMatch()
		require.NoError(t, Finalize(m, roleFor(m, organizerID, true), winningGames(), standardRules))
		err := SubmitToRatingService(m, roleFor(m, playerA1, true), true)
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})
}

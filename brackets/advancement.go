package brackets

import (
	"fmt"

	"github.com/openrally/matchplay/models"
)

// BronzeUID is the bracket UID of the bronze (third-place) match.
const BronzeUID = "BRONZE"

// MatchUID is the deterministic bracket UID of the match at a given round
// and in-round position. Both generation and progressive population derive
// UIDs from this, so references resolve without the target row existing yet.
func MatchUID(round, orderInRound int) string {
	return fmt.Sprintf("R%dM%d", round, orderInRound)
}

// ShellFor describes a later-round match that may not exist yet: its
// coordinates plus pending references to both matches feeding it.
type ShellFor struct {
	UID           string
	Stage         string
	Round         int
	OrderInRound  int
	BracketRounds int
	Side1         models.SideRef
	Side2         models.SideRef
}

// ShellAfter computes the shell the winner at (round, orderInRound)
// advances into, and the slot it occupies there. Odd positions feed side 1,
// even positions side 2.
func ShellAfter(round, orderInRound, bracketRounds int) (ShellFor, models.SideSlot) {
	targetOrder := (orderInRound + 1) / 2
	slot := models.Side1
	if orderInRound%2 == 0 {
		slot = models.Side2
	}
	shell := ShellFor{
		UID:           MatchUID(round+1, targetOrder),
		Round:         round + 1,
		OrderInRound:  targetOrder,
		BracketRounds: bracketRounds,
		Side1:         models.PendingSide(MatchUID(round, 2*targetOrder-1), false),
		Side2:         models.PendingSide(MatchUID(round, 2*targetOrder), false),
	}
	return shell, slot
}

// WinnerTarget computes where the winner of m goes, or ok=false when m does
// not feed a later round (pool matches, the final, the bronze match).
func WinnerTarget(m *models.Match) (ShellFor, models.SideSlot, bool) {
	if m.BracketRounds == 0 || m.Round == models.FinalStageRound || m.Round >= m.BracketRounds {
		return ShellFor{}, 0, false
	}
	shell, slot := ShellAfter(m.Round, m.OrderInRound, m.BracketRounds)
	shell.Stage = m.Stage
	return shell, slot, true
}

// IsSemifinal reports whether m is one of the two matches feeding the final.
func IsSemifinal(m *models.Match) bool {
	return m.BracketRounds >= 2 && m.Round == m.BracketRounds-1
}

// LoserTeamID returns the losing side's team of a decided match.
func LoserTeamID(m *models.Match) (int, bool) {
	if m.WinnerTeamID == nil || !m.SidesResolved() {
		return 0, false
	}
	if *m.Side1.TeamID == *m.WinnerTeamID {
		return *m.Side2.TeamID, true
	}
	return *m.Side1.TeamID, true
}

package ingest

import (
	"log/slog"

	"github.com/malbeclabs/fpldata/pkg/fpl"
)

// The parse functions convert API payloads into records, dropping entries
// whose identifiers are unusable. A malformed entry costs one record, not
// the run.

func ParseGameweeks(log *slog.Logger, events []fpl.EventPayload) []Gameweek {
	out := make([]Gameweek, 0, len(events))
	for _, ev := range events {
		if ev.ID <= 0 {
			log.Warn("ingest: skipping gameweek with invalid id", "id", ev.ID, "name", ev.Name)
			continue
		}
		out = append(out, Gameweek{
			ID:                ev.ID,
			Name:              ev.Name,
			DeadlineTime:      ev.DeadlineTime,
			Finished:          ev.Finished.Bool(),
			IsPrevious:        ev.IsPrevious.Bool(),
			IsCurrent:         ev.IsCurrent.Bool(),
			IsNext:            ev.IsNext.Bool(),
			DataChecked:       ev.DataChecked.Bool(),
			AverageEntryScore: ev.AverageEntryScore,
			HighestScore:      ev.HighestScore,
			TransfersMade:     ev.TransfersMade,
			MostSelected:      ev.MostSelected,
			MostCaptained:     ev.MostCaptained,
			TopElement:        ev.TopElement,
		})
	}
	return out
}

func ParseTeams(log *slog.Logger, teams []fpl.TeamPayload) []Team {
	out := make([]Team, 0, len(teams))
	for _, tm := range teams {
		if tm.ID <= 0 {
			log.Warn("ingest: skipping team with invalid id", "id", tm.ID, "name", tm.Name)
			continue
		}
		out = append(out, Team{
			ID:                  tm.ID,
			Code:                tm.Code,
			Name:                tm.Name,
			ShortName:           tm.ShortName,
			Strength:            tm.Strength,
			Played:              tm.Played,
			Win:                 tm.Win,
			Draw:                tm.Draw,
			Loss:                tm.Loss,
			Points:              tm.Points,
			Position:            tm.Position,
			Unavailable:         tm.Unavailable.Bool(),
			StrengthOverallHome: tm.StrengthOverallHome,
			StrengthOverallAway: tm.StrengthOverallAway,
			StrengthAttackHome:  tm.StrengthAttackHome,
			StrengthAttackAway:  tm.StrengthAttackAway,
			StrengthDefenceHome: tm.StrengthDefenceHome,
			StrengthDefenceAway: tm.StrengthDefenceAway,
		})
	}
	return out
}

func ParsePlayers(log *slog.Logger, elements []fpl.ElementPayload) []Player {
	out := make([]Player, 0, len(elements))
	for _, el := range elements {
		if el.ID <= 0 || el.Team <= 0 {
			log.Warn("ingest: skipping player with invalid ids",
				"id", el.ID, "team", el.Team, "web_name", el.WebName)
			continue
		}
		out = append(out, Player{
			ID:                el.ID,
			Code:              el.Code,
			FirstName:         el.FirstName,
			SecondName:        el.SecondName,
			WebName:           el.WebName,
			TeamID:            el.Team,
			ElementType:       el.ElementType,
			NowCost:           el.NowCost,
			Status:            el.Status,
			News:              el.News,
			TotalPoints:       el.TotalPoints,
			EventPoints:       el.EventPoints,
			Form:              el.Form.Float64(),
			PointsPerGame:     el.PointsPerGame.Float64(),
			SelectedByPercent: el.SelectedByPercent.Float64(),
			TransfersIn:       el.TransfersIn,
			TransfersOut:      el.TransfersOut,
			TransfersInEvent:  el.TransfersInEvent,
			TransfersOutEvent: el.TransfersOutEvent,
		})
	}
	return out
}

// ParsePlayerStats pins each player's season-to-date stats from the bootstrap
// payload to the given gameweek.
func ParsePlayerStats(log *slog.Logger, elements []fpl.ElementPayload, gameweekID int) []PlayerStat {
	out := make([]PlayerStat, 0, len(elements))
	for _, el := range elements {
		if el.ID <= 0 {
			log.Warn("ingest: skipping stat snapshot with invalid player id", "id", el.ID)
			continue
		}
		out = append(out, PlayerStat{
			PlayerID:        el.ID,
			GameweekID:      gameweekID,
			Minutes:         el.Minutes,
			GoalsScored:     el.GoalsScored,
			Assists:         el.Assists,
			CleanSheets:     el.CleanSheets,
			GoalsConceded:   el.GoalsConceded,
			OwnGoals:        el.OwnGoals,
			PenaltiesSaved:  el.PenaltiesSaved,
			PenaltiesMissed: el.PenaltiesMissed,
			YellowCards:     el.YellowCards,
			RedCards:        el.RedCards,
			Saves:           el.Saves,
			Bonus:           el.Bonus,
			BPS:             el.BPS,
			Starts:          el.Starts,
			Influence:       el.Influence.Float64(),
			Creativity:      el.Creativity.Float64(),
			Threat:          el.Threat.Float64(),
			ICTIndex:        el.ICTIndex.Float64(),
			ExpectedGoals:   el.ExpectedGoals.Float64(),
			ExpectedAssists: el.ExpectedAssists.Float64(),
		})
	}
	return out
}

func ParseFixtures(log *slog.Logger, fixtures []fpl.FixturePayload) []Fixture {
	out := make([]Fixture, 0, len(fixtures))
	for _, fx := range fixtures {
		if fx.ID <= 0 || fx.TeamH <= 0 || fx.TeamA <= 0 {
			log.Warn("ingest: skipping fixture with invalid ids",
				"id", fx.ID, "team_h", fx.TeamH, "team_a", fx.TeamA)
			continue
		}
		out = append(out, Fixture{
			ID:                  fx.ID,
			Code:                fx.Code,
			GameweekID:          fx.Event,
			KickoffTime:         fx.KickoffTime,
			TeamH:               fx.TeamH,
			TeamA:               fx.TeamA,
			TeamHScore:          fx.TeamHScore,
			TeamAScore:          fx.TeamAScore,
			TeamHDifficulty:     fx.TeamHDifficulty,
			TeamADifficulty:     fx.TeamADifficulty,
			Started:             fx.Started.Bool(),
			Finished:            fx.Finished.Bool(),
			FinishedProvisional: fx.FinishedProvisional.Bool(),
			Minutes:             fx.Minutes,
		})
	}
	return out
}

// ParsePlayerHistory converts one player's element-summary history. The
// payload's own element field wins over playerID when both are set; some
// seasons omit it.
func ParsePlayerHistory(log *slog.Logger, playerID int, history []fpl.HistoryPayload) []PlayerHistory {
	out := make([]PlayerHistory, 0, len(history))
	for _, h := range history {
		id := h.Element
		if id <= 0 {
			id = playerID
		}
		if id <= 0 || h.Fixture <= 0 {
			log.Warn("ingest: skipping history entry with invalid ids",
				"player", id, "fixture", h.Fixture, "round", h.Round)
			continue
		}
		out = append(out, PlayerHistory{
			PlayerID:                 id,
			FixtureID:                h.Fixture,
			GameweekID:               h.Round,
			OpponentTeam:             h.OpponentTeam,
			WasHome:                  h.WasHome.Bool(),
			KickoffTime:              h.KickoffTime,
			TotalPoints:              h.TotalPoints,
			Value:                    h.Value,
			Selected:                 h.Selected,
			TransfersBalance:         h.TransfersBalance,
			Minutes:                  h.Minutes,
			GoalsScored:              h.GoalsScored,
			Assists:                  h.Assists,
			CleanSheets:              h.CleanSheets,
			GoalsConceded:            h.GoalsConceded,
			OwnGoals:                 h.OwnGoals,
			PenaltiesSaved:           h.PenaltiesSaved,
			PenaltiesMissed:          h.PenaltiesMissed,
			YellowCards:              h.YellowCards,
			RedCards:                 h.RedCards,
			Saves:                    h.Saves,
			Bonus:                    h.Bonus,
			BPS:                      h.BPS,
			Starts:                   h.Starts,
			Influence:                h.Influence.Float64(),
			Creativity:               h.Creativity.Float64(),
			Threat:                   h.Threat.Float64(),
			ICTIndex:                 h.ICTIndex.Float64(),
			ExpectedGoals:            h.ExpectedGoals.Float64(),
			ExpectedAssists:          h.ExpectedAssists.Float64(),
			ExpectedGoalInvolvements: h.ExpectedGoalInvolvements.Float64(),
			ExpectedGoalsConceded:    h.ExpectedGoalsConceded.Float64(),
		})
	}
	return out
}

// ParseGameweekLive converts the live stat lines of one gameweek.
func ParseGameweekLive(log *slog.Logger, gameweekID int, elements []fpl.LiveElementPayload) []GameweekLivePlayer {
	out := make([]GameweekLivePlayer, 0, len(elements))
	for _, el := range elements {
		if el.ID <= 0 {
			log.Warn("ingest: skipping live stat line with invalid player id",
				"id", el.ID, "gameweek", gameweekID)
			continue
		}
		out = append(out, GameweekLivePlayer{
			GameweekID:    gameweekID,
			PlayerID:      el.ID,
			Minutes:       el.Stats.Minutes,
			GoalsScored:   el.Stats.GoalsScored,
			Assists:       el.Stats.Assists,
			CleanSheets:   el.Stats.CleanSheets,
			GoalsConceded: el.Stats.GoalsConceded,
			YellowCards:   el.Stats.YellowCards,
			RedCards:      el.Stats.RedCards,
			Saves:         el.Stats.Saves,
			Bonus:         el.Stats.Bonus,
			BPS:           el.Stats.BPS,
			TotalPoints:   el.Stats.TotalPoints,
			InDreamteam:   el.Stats.InDreamteam.Bool(),
			Influence:     el.Stats.Influence.Float64(),
			Creativity:    el.Stats.Creativity.Float64(),
			Threat:        el.Stats.Threat.Float64(),
			ICTIndex:      el.Stats.ICTIndex.Float64(),
		})
	}
	return out
}

// CurrentGameweek returns the id of the event flagged as current, falling
// back to the next event and finally to 1 when the season has not started.
func CurrentGameweek(events []fpl.EventPayload) int {
	for _, ev := range events {
		if ev.IsCurrent.Bool() {
			return ev.ID
		}
	}
	for _, ev := range events {
		if ev.IsNext.Bool() {
			return ev.ID
		}
	}
	return 1
}

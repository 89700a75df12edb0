// Package ingest turns Fantasy Premier League API payloads into relational
// records and drives the fetch-parse-upsert pipeline over them.
package ingest

import (
	"time"

	"github.com/malbeclabs/fpldata/pkg/pg"
)

// Gameweek is one event of the season.
type Gameweek struct {
	ID                int
	Name              string
	DeadlineTime      *time.Time
	Finished          bool
	IsPrevious        bool
	IsCurrent         bool
	IsNext            bool
	DataChecked       bool
	AverageEntryScore int
	HighestScore      *int
	TransfersMade     int
	MostSelected      *int
	MostCaptained     *int
	TopElement        *int
}

func (g Gameweek) Row() pg.Row {
	return pg.Row{
		g.ID, g.Name, g.DeadlineTime, g.Finished, g.IsPrevious, g.IsCurrent,
		g.IsNext, g.DataChecked, g.AverageEntryScore, g.HighestScore,
		g.TransfersMade, g.MostSelected, g.MostCaptained, g.TopElement,
	}
}

// Team is one club.
type Team struct {
	ID                  int
	Code                int
	Name                string
	ShortName           string
	Strength            int
	Played              int
	Win                 int
	Draw                int
	Loss                int
	Points              int
	Position            int
	Unavailable         bool
	StrengthOverallHome int
	StrengthOverallAway int
	StrengthAttackHome  int
	StrengthAttackAway  int
	StrengthDefenceHome int
	StrengthDefenceAway int
}

func (t Team) Row() pg.Row {
	return pg.Row{
		t.ID, t.Code, t.Name, t.ShortName, t.Strength, t.Played, t.Win, t.Draw,
		t.Loss, t.Points, t.Position, t.Unavailable,
		t.StrengthOverallHome, t.StrengthOverallAway,
		t.StrengthAttackHome, t.StrengthAttackAway,
		t.StrengthDefenceHome, t.StrengthDefenceAway,
	}
}

// Player is one footballer.
type Player struct {
	ID                int
	Code              int
	FirstName         string
	SecondName        string
	WebName           string
	TeamID            int
	ElementType       int
	NowCost           int
	Status            string
	News              string
	TotalPoints       int
	EventPoints       int
	Form              float64
	PointsPerGame     float64
	SelectedByPercent float64
	TransfersIn       int
	TransfersOut      int
	TransfersInEvent  int
	TransfersOutEvent int
}

func (p Player) Row() pg.Row {
	return pg.Row{
		p.ID, p.Code, p.FirstName, p.SecondName, p.WebName, p.TeamID,
		p.ElementType, p.NowCost, p.Status, p.News, p.TotalPoints,
		p.EventPoints, p.Form, p.PointsPerGame, p.SelectedByPercent,
		p.TransfersIn, p.TransfersOut, p.TransfersInEvent, p.TransfersOutEvent,
	}
}

// PlayerStat is a player's season-to-date stat snapshot pinned to a gameweek.
type PlayerStat struct {
	PlayerID        int
	GameweekID      int
	Minutes         int
	GoalsScored     int
	Assists         int
	CleanSheets     int
	GoalsConceded   int
	OwnGoals        int
	PenaltiesSaved  int
	PenaltiesMissed int
	YellowCards     int
	RedCards        int
	Saves           int
	Bonus           int
	BPS             int
	Starts          int
	Influence       float64
	Creativity      float64
	Threat          float64
	ICTIndex        float64
	ExpectedGoals   float64
	ExpectedAssists float64
}

// Key identifies the stat snapshot for deduplication.
func (s PlayerStat) Key() [2]int { return [2]int{s.PlayerID, s.GameweekID} }

func (s PlayerStat) Row() pg.Row {
	return pg.Row{
		s.PlayerID, s.GameweekID, s.Minutes, s.GoalsScored, s.Assists,
		s.CleanSheets, s.GoalsConceded, s.OwnGoals, s.PenaltiesSaved,
		s.PenaltiesMissed, s.YellowCards, s.RedCards, s.Saves, s.Bonus, s.BPS,
		s.Starts, s.Influence, s.Creativity, s.Threat, s.ICTIndex,
		s.ExpectedGoals, s.ExpectedAssists,
	}
}

// Fixture is one scheduled or played match.
type Fixture struct {
	ID                  int
	Code                int
	GameweekID          *int
	KickoffTime         *time.Time
	TeamH               int
	TeamA               int
	TeamHScore          *int
	TeamAScore          *int
	TeamHDifficulty     int
	TeamADifficulty     int
	Started             bool
	Finished            bool
	FinishedProvisional bool
	Minutes             int
}

func (f Fixture) Row() pg.Row {
	return pg.Row{
		f.ID, f.Code, f.GameweekID, f.KickoffTime, f.TeamH, f.TeamA,
		f.TeamHScore, f.TeamAScore, f.TeamHDifficulty, f.TeamADifficulty,
		f.Started, f.Finished, f.FinishedProvisional, f.Minutes,
	}
}

// PlayerHistory is one played match of a player's season. A double gameweek
// gives a player two entries in the same round, so the fixture is part of
// the key.
type PlayerHistory struct {
	PlayerID                 int
	FixtureID                int
	GameweekID               int
	OpponentTeam             int
	WasHome                  bool
	KickoffTime              *time.Time
	TotalPoints              int
	Value                    int
	Selected                 int
	TransfersBalance         int
	Minutes                  int
	GoalsScored              int
	Assists                  int
	CleanSheets              int
	GoalsConceded            int
	OwnGoals                 int
	PenaltiesSaved           int
	PenaltiesMissed          int
	YellowCards              int
	RedCards                 int
	Saves                    int
	Bonus                    int
	BPS                      int
	Starts                   int
	Influence                float64
	Creativity               float64
	Threat                   float64
	ICTIndex                 float64
	ExpectedGoals            float64
	ExpectedAssists          float64
	ExpectedGoalInvolvements float64
	ExpectedGoalsConceded    float64
}

func (h PlayerHistory) Key() [2]int { return [2]int{h.PlayerID, h.FixtureID} }

func (h PlayerHistory) Row() pg.Row {
	return pg.Row{
		h.PlayerID, h.FixtureID, h.GameweekID, h.OpponentTeam, h.WasHome,
		h.KickoffTime, h.TotalPoints, h.Value, h.Selected, h.TransfersBalance,
		h.Minutes, h.GoalsScored, h.Assists, h.CleanSheets, h.GoalsConceded,
		h.OwnGoals, h.PenaltiesSaved, h.PenaltiesMissed, h.YellowCards,
		h.RedCards, h.Saves, h.Bonus, h.BPS, h.Starts, h.Influence,
		h.Creativity, h.Threat, h.ICTIndex, h.ExpectedGoals, h.ExpectedAssists,
		h.ExpectedGoalInvolvements, h.ExpectedGoalsConceded,
	}
}

// GameweekLivePlayer is a player's live stat line within one gameweek.
type GameweekLivePlayer struct {
	GameweekID    int
	PlayerID      int
	Minutes       int
	GoalsScored   int
	Assists       int
	CleanSheets   int
	GoalsConceded int
	YellowCards   int
	RedCards      int
	Saves         int
	Bonus         int
	BPS           int
	TotalPoints   int
	InDreamteam   bool
	Influence     float64
	Creativity    float64
	Threat        float64
	ICTIndex      float64
}

func (l GameweekLivePlayer) Key() [2]int { return [2]int{l.GameweekID, l.PlayerID} }

func (l GameweekLivePlayer) Row() pg.Row {
	return pg.Row{
		l.GameweekID, l.PlayerID, l.Minutes, l.GoalsScored, l.Assists,
		l.CleanSheets, l.GoalsConceded, l.YellowCards, l.RedCards, l.Saves,
		l.Bonus, l.BPS, l.TotalPoints, l.InDreamteam, l.Influence,
		l.Creativity, l.Threat, l.ICTIndex,
	}
}

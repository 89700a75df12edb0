package fpl

import "time"

// Bootstrap is the bootstrap-static payload: the season's gameweeks, teams
// and players in one document.
type Bootstrap struct {
	Events   []EventPayload   `json:"events"`
	Teams    []TeamPayload    `json:"teams"`
	Elements []ElementPayload `json:"elements"`
}

// EventPayload is one gameweek as returned by bootstrap-static.
type EventPayload struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	DeadlineTime      *time.Time `json:"deadline_time"`
	Finished          Bool       `json:"finished"`
	IsPrevious        Bool       `json:"is_previous"`
	IsCurrent         Bool       `json:"is_current"`
	IsNext            Bool       `json:"is_next"`
	DataChecked       Bool       `json:"data_checked"`
	AverageEntryScore int        `json:"average_entry_score"`
	HighestScore      *int       `json:"highest_score"`
	TransfersMade     int        `json:"transfers_made"`
	MostSelected      *int       `json:"most_selected"`
	MostCaptained     *int       `json:"most_captained"`
	TopElement        *int       `json:"top_element"`
}

// TeamPayload is one club as returned by bootstrap-static.
type TeamPayload struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	Code                int    `json:"code"`
	Draw                int    `json:"draw"`
	Loss                int    `json:"loss"`
	Played              int    `json:"played"`
	Points              int    `json:"points"`
	Position            int    `json:"position"`
	Strength            int    `json:"strength"`
	Win                 int    `json:"win"`
	Unavailable         Bool   `json:"unavailable"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
	StrengthAttackHome  int    `json:"strength_attack_home"`
	StrengthAttackAway  int    `json:"strength_attack_away"`
	StrengthDefenceHome int    `json:"strength_defence_home"`
	StrengthDefenceAway int    `json:"strength_defence_away"`
	Form                Float  `json:"form"`
}

// ElementPayload is one player as returned by bootstrap-static.
type ElementPayload struct {
	ID                int    `json:"id"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	WebName           string `json:"web_name"`
	Team              int    `json:"team"`
	TeamCode          int    `json:"team_code"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	Status            string `json:"status"`
	Code              int    `json:"code"`
	Minutes           int    `json:"minutes"`
	GoalsScored       int    `json:"goals_scored"`
	Assists           int    `json:"assists"`
	CleanSheets       int    `json:"clean_sheets"`
	GoalsConceded     int    `json:"goals_conceded"`
	OwnGoals          int    `json:"own_goals"`
	PenaltiesSaved    int    `json:"penalties_saved"`
	PenaltiesMissed   int    `json:"penalties_missed"`
	YellowCards       int    `json:"yellow_cards"`
	RedCards          int    `json:"red_cards"`
	Saves             int    `json:"saves"`
	Bonus             int    `json:"bonus"`
	BPS               int    `json:"bps"`
	Form              Float  `json:"form"`
	PointsPerGame     Float  `json:"points_per_game"`
	SelectedByPercent Float  `json:"selected_by_percent"`
	Influence         Float  `json:"influence"`
	Creativity        Float  `json:"creativity"`
	Threat            Float  `json:"threat"`
	ICTIndex          Float  `json:"ict_index"`
	TransfersIn       int    `json:"transfers_in"`
	TransfersOut      int    `json:"transfers_out"`
	TransfersInEvent  int    `json:"transfers_in_event"`
	TransfersOutEvent int    `json:"transfers_out_event"`
	EventPoints       int    `json:"event_points"`
	Starts            int    `json:"starts"`
	ExpectedGoals     Float  `json:"expected_goals"`
	ExpectedAssists   Float  `json:"expected_assists"`
	News              string `json:"news"`
}

// FixturePayload is one match from the fixtures endpoint.
type FixturePayload struct {
	ID                  int        `json:"id"`
	Code                int        `json:"code"`
	Event               *int       `json:"event"`
	KickoffTime         *time.Time `json:"kickoff_time"`
	TeamH               int        `json:"team_h"`
	TeamA               int        `json:"team_a"`
	TeamHScore          *int       `json:"team_h_score"`
	TeamAScore          *int       `json:"team_a_score"`
	Finished            Bool       `json:"finished"`
	FinishedProvisional Bool       `json:"finished_provisional"`
	Started             Bool       `json:"started"`
	Minutes             int        `json:"minutes"`
	TeamHDifficulty     int        `json:"team_h_difficulty"`
	TeamADifficulty     int        `json:"team_a_difficulty"`
}

// ElementSummary is the element-summary payload for one player.
type ElementSummary struct {
	History []HistoryPayload `json:"history"`
}

// HistoryPayload is one played-gameweek entry of a player's history.
type HistoryPayload struct {
	Element                  int        `json:"element"`
	Fixture                  int        `json:"fixture"`
	Round                    int        `json:"round"`
	OpponentTeam             int        `json:"opponent_team"`
	WasHome                  Bool       `json:"was_home"`
	KickoffTime              *time.Time `json:"kickoff_time"`
	TotalPoints              int        `json:"total_points"`
	Value                    int        `json:"value"`
	Selected                 int        `json:"selected"`
	TransfersBalance         int        `json:"transfers_balance"`
	TransfersIn              int        `json:"transfers_in"`
	TransfersOut             int        `json:"transfers_out"`
	Minutes                  int        `json:"minutes"`
	GoalsScored              int        `json:"goals_scored"`
	Assists                  int        `json:"assists"`
	CleanSheets              int        `json:"clean_sheets"`
	GoalsConceded            int        `json:"goals_conceded"`
	OwnGoals                 int        `json:"own_goals"`
	PenaltiesSaved           int        `json:"penalties_saved"`
	PenaltiesMissed          int        `json:"penalties_missed"`
	YellowCards              int        `json:"yellow_cards"`
	RedCards                 int        `json:"red_cards"`
	Saves                    int        `json:"saves"`
	Bonus                    int        `json:"bonus"`
	BPS                      int        `json:"bps"`
	Influence                Float      `json:"influence"`
	Creativity               Float      `json:"creativity"`
	Threat                   Float      `json:"threat"`
	ICTIndex                 Float      `json:"ict_index"`
	Starts                   int        `json:"starts"`
	ExpectedGoals            Float      `json:"expected_goals"`
	ExpectedAssists          Float      `json:"expected_assists"`
	ExpectedGoalInvolvements Float      `json:"expected_goal_involvements"`
	ExpectedGoalsConceded    Float      `json:"expected_goals_conceded"`
}

// EventLive is the live per-player stats payload for one gameweek.
type EventLive struct {
	Elements []LiveElementPayload `json:"elements"`
}

// LiveElementPayload is one player's live stats within a gameweek.
type LiveElementPayload struct {
	ID    int              `json:"id"`
	Stats LiveStatsPayload `json:"stats"`
}

type LiveStatsPayload struct {
	Minutes       int   `json:"minutes"`
	GoalsScored   int   `json:"goals_scored"`
	Assists       int   `json:"assists"`
	CleanSheets   int   `json:"clean_sheets"`
	GoalsConceded int   `json:"goals_conceded"`
	YellowCards   int   `json:"yellow_cards"`
	RedCards      int   `json:"red_cards"`
	Saves         int   `json:"saves"`
	Bonus         int   `json:"bonus"`
	BPS           int   `json:"bps"`
	TotalPoints   int   `json:"total_points"`
	InDreamteam   Bool  `json:"in_dreamteam"`
	Influence     Float `json:"influence"`
	Creativity    Float `json:"creativity"`
	Threat        Float `json:"threat"`
	ICTIndex      Float `json:"ict_index"`
}

package ingest

import "github.com/malbeclabs/fpldata/pkg/pg"

// Upsert targets, columns in the same order the record Row methods emit.
var (
	GameweeksTable = pg.Table{
		Name: "gameweeks",
		Columns: []string{
			"id", "name", "deadline_time", "finished", "is_previous",
			"is_current", "is_next", "data_checked", "average_entry_score",
			"highest_score", "transfers_made", "most_selected",
			"most_captained", "top_element",
		},
		KeyColumns: []string{"id"},
	}

	TeamsTable = pg.Table{
		Name: "teams",
		Columns: []string{
			"id", "code", "name", "short_name", "strength", "played", "win",
			"draw", "loss", "points", "position", "unavailable",
			"strength_overall_home", "strength_overall_away",
			"strength_attack_home", "strength_attack_away",
			"strength_defence_home", "strength_defence_away",
		},
		KeyColumns: []string{"id"},
	}

	PlayersTable = pg.Table{
		Name: "players",
		Columns: []string{
			"id", "code", "first_name", "second_name", "web_name", "team_id",
			"element_type", "now_cost", "status", "news", "total_points",
			"event_points", "form", "points_per_game", "selected_by_percent",
			"transfers_in", "transfers_out", "transfers_in_event",
			"transfers_out_event",
		},
		KeyColumns: []string{"id"},
	}

	PlayerStatsTable = pg.Table{
		Name: "player_stats",
		Columns: []string{
			"player_id", "gameweek_id", "minutes", "goals_scored", "assists",
			"clean_sheets", "goals_conceded", "own_goals", "penalties_saved",
			"penalties_missed", "yellow_cards", "red_cards", "saves", "bonus",
			"bps", "starts", "influence", "creativity", "threat", "ict_index",
			"expected_goals", "expected_assists",
		},
		KeyColumns: []string{"player_id", "gameweek_id"},
	}

	FixturesTable = pg.Table{
		Name: "fixtures",
		Columns: []string{
			"id", "code", "gameweek_id", "kickoff_time", "team_h", "team_a",
			"team_h_score", "team_a_score", "team_h_difficulty",
			"team_a_difficulty", "started", "finished",
			"finished_provisional", "minutes",
		},
		KeyColumns: []string{"id"},
	}

	PlayerHistoryTable = pg.Table{
		Name: "player_history",
		Columns: []string{
			"player_id", "fixture_id", "gameweek_id", "opponent_team",
			"was_home", "kickoff_time", "total_points", "value", "selected",
			"transfers_balance", "minutes", "goals_scored", "assists",
			"clean_sheets", "goals_conceded", "own_goals", "penalties_saved",
			"penalties_missed", "yellow_cards", "red_cards", "saves", "bonus",
			"bps", "starts", "influence", "creativity", "threat", "ict_index",
			"expected_goals", "expected_assists",
			"expected_goal_involvements", "expected_goals_conceded",
		},
		KeyColumns: []string{"player_id", "fixture_id"},
	}

	GameweekLivePlayersTable = pg.Table{
		Name: "gameweek_live_players",
		Columns: []string{
			"gameweek_id", "player_id", "minutes", "goals_scored", "assists",
			"clean_sheets", "goals_conceded", "yellow_cards", "red_cards",
			"saves", "bonus", "bps", "total_points", "in_dreamteam",
			"influence", "creativity", "threat", "ict_index",
		},
		KeyColumns: []string{"gameweek_id", "player_id"},
	}
)

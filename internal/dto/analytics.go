package dto

// TrendQuery selects the trend window in days.
type TrendQuery struct {
	Days int `form:"days" validate:"omitempty,min=1,max=366"`
}

// LeaderboardQuery filters and limits the leaderboard.
type LeaderboardQuery struct {
	Module string `form:"module"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

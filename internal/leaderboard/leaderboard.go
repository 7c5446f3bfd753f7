package leaderboard

type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
	Rank     int    `json:"rank"`
	IsYou    bool   `json:"is_you,omitempty"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
	Offline      bool                `json:"offline"`
}

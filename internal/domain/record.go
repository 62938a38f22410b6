package domain

import "time"

// Record is a task completion event. It captures the claan at submission
// time rather than deriving it later, so moving a user between claans never
// rewrites history. Records are immutable once written, except for the
// escrow flag which transitions true to false exactly once, during
// settlement.
type Record struct {
	ID        int64     `json:"id"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	Claan     Claan     `json:"claan"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Escrow    bool      `json:"escrow"`
}

type ClaanScore struct {
	Claan Claan `json:"claan"`
	Score int64 `json:"score"`
}

type ClaanData struct {
	ScoreSeason    int64 `json:"score_season"`
	ScoreFortnight int64 `json:"score_fortnight"`
	TaskCount      int64 `json:"task_count"`
}

package domain

import "time"

// TaskReward is the monetary value credited to escrow when the task is
// completed. Only the listed tiers exist; at most one task per tier is
// active at a time.
type TaskReward int

const (
	RewardTen    TaskReward = 10
	RewardTwenty TaskReward = 20
	RewardThirty TaskReward = 30
	RewardForty  TaskReward = 40
	RewardFifty  TaskReward = 50
)

// TopReward submissions are rate-limited per fortnight rather than per day.
const TopReward = RewardFifty

func (r TaskReward) IsValid() bool {
	switch r {
	case RewardTen, RewardTwenty, RewardThirty, RewardForty, RewardFifty:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Reward      TaskReward `json:"reward"`
	Ephemeral   bool       `json:"ephemeral"`
	Active      bool       `json:"active"`
	Last        *time.Time `json:"last,omitempty"`
}

type AddTaskRequest struct {
	Description string     `json:"description"`
	Reward      TaskReward `json:"reward"`
	Ephemeral   bool       `json:"ephemeral"`
}

type SetActiveTaskRequest struct {
	TaskID int64 `json:"task_id"`
}

type SubmitRecordRequest struct {
	UserID int64 `json:"user_id"`
	TaskID int64 `json:"task_id"`
}

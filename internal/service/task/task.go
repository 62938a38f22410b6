package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
	"github.com/whompratt/claans/pkg/database"
)

type TaskRepository interface {
	Create(ctx context.Context, task domain.AddTaskRequest) (*domain.Task, error)
	GetByID(ctx context.Context, taskID int64) (*domain.Task, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Task, error)
	DeactivateByReward(ctx context.Context, reward domain.TaskReward) (int64, error)
	SetActive(ctx context.Context, taskID int64, active bool) error
	Delete(ctx context.Context, taskID int64) error
}

type RecordRepository interface {
	Create(ctx context.Context, record domain.Record) (*domain.Record, error)
	CountForUserTaskSince(ctx context.Context, userID, taskID int64, since time.Time) (int64, error)
	ScoresSince(ctx context.Context, since time.Time) ([]domain.ClaanScore, error)
	ScoreForClaanSince(ctx context.Context, claan domain.Claan, since time.Time) (int64, error)
	CountForClaan(ctx context.Context, claan domain.Claan) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
}

type SeasonSource interface {
	SeasonStart(ctx context.Context) (time.Time, error)
	FortnightStart(ctx context.Context) (time.Time, error)
}

type TaskService struct {
	taskRepo   TaskRepository
	recordRepo RecordRepository
	userRepo   UserRepository
	seasons    SeasonSource
	txManager  database.TransactionManagerInterface
	lg         *slog.Logger
}

func NewTaskService(
	taskRepo TaskRepository,
	recordRepo RecordRepository,
	userRepo UserRepository,
	seasons SeasonSource,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		recordRepo: recordRepo,
		userRepo:   userRepo,
		seasons:    seasons,
		txManager:  txManager,
		lg:         lg,
	}
}

// SubmitRecord logs a task completion: the reward lands in escrow against
// the submitter's claan as it stands today. The same (user, task) pair may
// submit once per day, or once per fortnight for the top reward tier.
func (s *TaskService) SubmitRecord(ctx context.Context, userID, taskID int64) (*domain.Record, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	windowStart, err := s.cooldownWindowStart(ctx, task.Reward)
	if err != nil {
		return nil, err
	}

	var created *domain.Record
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		count, err := s.recordRepo.CountForUserTaskSince(txCtx, userID, taskID, windowStart)
		if err != nil {
			return fmt.Errorf("failed to check submission cooldown: %w", err)
		}
		if count >= 1 {
			return domain.ErrDuplicateRecord
		}

		created, err = s.recordRepo.Create(txCtx, domain.Record{
			Score:  int64(task.Reward),
			Claan:  user.Claan,
			TaskID: task.ID,
			UserID: user.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("record submitted",
		slog.Int64("user_id", userID),
		slog.Int64("task_id", taskID),
		slog.Int64("score", created.Score),
		slog.String("claan", string(created.Claan)))
	return created, nil
}

func (s *TaskService) cooldownWindowStart(ctx context.Context, reward domain.TaskReward) (time.Time, error) {
	if reward == domain.TopReward {
		start, err := s.seasons.FortnightStart(ctx)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to resolve fortnight start: %w", err)
		}
		return start, nil
	}

	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// GetScores returns season-to-date scores for every claan, zero-filled.
func (s *TaskService) GetScores(ctx context.Context) ([]domain.ClaanScore, error) {
	seasonStart, err := s.seasons.SeasonStart(ctx)
	if err != nil {
		return nil, err
	}

	scored, err := s.recordRepo.ScoresSince(ctx, seasonStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	byClaan := make(map[domain.Claan]int64, len(scored))
	for _, score := range scored {
		byClaan[score.Claan] = score.Score
	}

	scores := make([]domain.ClaanScore, 0, len(domain.Claans()))
	for _, claan := range domain.Claans() {
		scores = append(scores, domain.ClaanScore{Claan: claan, Score: byClaan[claan]})
	}

	return scores, nil
}

func (s *TaskService) GetClaanData(ctx context.Context, claan domain.Claan) (*domain.ClaanData, error) {
	if !claan.IsValid() {
		return nil, fmt.Errorf("%w: unknown claan %q", domain.ErrInvalidInput, claan)
	}

	seasonStart, err := s.seasons.SeasonStart(ctx)
	if err != nil {
		return nil, err
	}
	fortnightStart, err := s.seasons.FortnightStart(ctx)
	if err != nil {
		return nil, err
	}

	seasonScore, err := s.recordRepo.ScoreForClaanSince(ctx, claan, seasonStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load season score: %w", err)
	}
	fortnightScore, err := s.recordRepo.ScoreForClaanSince(ctx, claan, fortnightStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load fortnight score: %w", err)
	}
	taskCount, err := s.recordRepo.CountForClaan(ctx, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &domain.ClaanData{
		ScoreSeason:    seasonScore,
		ScoreFortnight: fortnightScore,
		TaskCount:      taskCount,
	}, nil
}

func (s *TaskService) AddTask(ctx context.Context, req domain.AddTaskRequest) (*domain.Task, error) {
	if req.Description == "" {
		return nil, fmt.Errorf("%w: task description is required", domain.ErrInvalidInput)
	}
	if !req.Reward.IsValid() {
		return nil, fmt.Errorf("%w: unknown reward tier %d", domain.ErrInvalidInput, req.Reward)
	}

	task, err := s.taskRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	s.lg.Info("task added", slog.Int64("task_id", task.ID), slog.Int("reward", int(task.Reward)))
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, activeOnly bool) ([]domain.Task, error) {
	tasks, err := s.taskRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// SetActiveTask makes the task the single active offering for its reward
// tier, deactivating the incumbent in the same transaction.
func (s *TaskService) SetActiveTask(ctx context.Context, taskID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		task, err := s.taskRepo.GetByID(txCtx, taskID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrTaskNotFound
			}
			return fmt.Errorf("failed to get task: %w", err)
		}

		if _, err := s.taskRepo.DeactivateByReward(txCtx, task.Reward); err != nil {
			return fmt.Errorf("failed to deactivate reward tier: %w", err)
		}

		if err := s.taskRepo.SetActive(txCtx, task.ID, true); err != nil {
			return fmt.Errorf("failed to activate task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("active task set", slog.Int64("task_id", taskID))
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID int64) error {
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.lg.Info("task deleted", slog.Int64("task_id", taskID))
	return nil
}

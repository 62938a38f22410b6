package task

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
)

type fakeTasks struct {
	tasks map[int64]*domain.Task

	deactivatedReward domain.TaskReward
	activatedID       int64
}

func (r *fakeTasks) Create(_ context.Context, req domain.AddTaskRequest) (*domain.Task, error) {
	task := &domain.Task{
		ID:          int64(len(r.tasks) + 1),
		Description: req.Description,
		Reward:      req.Reward,
		Ephemeral:   req.Ephemeral,
	}
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTasks) GetByID(_ context.Context, taskID int64) (*domain.Task, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (r *fakeTasks) List(_ context.Context, activeOnly bool) ([]domain.Task, error) {
	var tasks []domain.Task
	for _, task := range r.tasks {
		if activeOnly && !task.Active {
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (r *fakeTasks) DeactivateByReward(_ context.Context, reward domain.TaskReward) (int64, error) {
	r.deactivatedReward = reward
	var n int64
	for _, task := range r.tasks {
		if task.Reward == reward && task.Active {
			task.Active = false
			n++
		}
	}
	return n, nil
}

func (r *fakeTasks) SetActive(_ context.Context, taskID int64, active bool) error {
	task, ok := r.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	task.Active = active
	r.activatedID = taskID
	return nil
}

func (r *fakeTasks) Delete(_ context.Context, taskID int64) error {
	if _, ok := r.tasks[taskID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

type fakeRecords struct {
	records    []domain.Record
	scores     []domain.ClaanScore
	claanScore int64

	countSince time.Time
}

func (r *fakeRecords) Create(_ context.Context, record domain.Record) (*domain.Record, error) {
	record.ID = int64(len(r.records) + 1)
	record.Escrow = true
	r.records = append(r.records, record)
	return &record, nil
}

func (r *fakeRecords) CountForUserTaskSince(_ context.Context, userID, taskID int64, since time.Time) (int64, error) {
	r.countSince = since
	var count int64
	for _, record := range r.records {
		if record.UserID == userID && record.TaskID == taskID && !record.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRecords) ScoresSince(_ context.Context, _ time.Time) ([]domain.ClaanScore, error) {
	return r.scores, nil
}

func (r *fakeRecords) ScoreForClaanSince(_ context.Context, _ domain.Claan, _ time.Time) (int64, error) {
	return r.claanScore, nil
}

func (r *fakeRecords) CountForClaan(_ context.Context, _ domain.Claan) (int64, error) {
	return int64(len(r.records)), nil
}

type fakeUsers struct{ users map[int64]*domain.User }

func (r *fakeUsers) GetByID(_ context.Context, userID int64) (*domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

type fixedSeasons struct {
	seasonStart    time.Time
	fortnightStart time.Time
}

func (s fixedSeasons) SeasonStart(_ context.Context) (time.Time, error) {
	return s.seasonStart, nil
}

func (s fixedSeasons) FortnightStart(_ context.Context) (time.Time, error) {
	return s.fortnightStart, nil
}

type passTxManager struct{}

func (passTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type env struct {
	tasks   *fakeTasks
	records *fakeRecords
	users   *fakeUsers
	svc     *TaskService
}

func newEnv() *env {
	e := &env{
		tasks:   &fakeTasks{tasks: map[int64]*domain.Task{}},
		records: &fakeRecords{},
		users:   &fakeUsers{users: map[int64]*domain.User{}},
	}
	seasons := fixedSeasons{
		seasonStart:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		fortnightStart: time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC),
	}
	e.svc = NewTaskService(e.tasks, e.records, e.users, seasons, passTxManager{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return e
}

func TestSubmitRecordEscrowsReward(t *testing.T) {
	e := newEnv()
	e.users.users[1] = &domain.User{ID: 1, Claan: domain.ClaanFireDancers}
	e.tasks.tasks[5] = &domain.Task{ID: 5, Reward: domain.RewardTwenty, Active: true}

	record, err := e.svc.SubmitRecord(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(20), record.Score)
	assert.Equal(t, domain.ClaanFireDancers, record.Claan)
	assert.True(t, record.Escrow)
	assert.Equal(t, int64(1), record.UserID)
	assert.Equal(t, int64(5), record.TaskID)
}

func TestSubmitRecordDailyCooldown(t *testing.T) {
	e := newEnv()
	e.users.users[1] = &domain.User{ID: 1, Claan: domain.ClaanFireDancers}
	e.tasks.tasks[5] = &domain.Task{ID: 5, Reward: domain.RewardTen, Active: true}
	e.records.records = []domain.Record{
		{ID: 1, UserID: 1, TaskID: 5, Timestamp: time.Now().UTC()},
	}

	_, err := e.svc.SubmitRecord(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

	// Ordinary rewards reset at UTC midnight.
	y, m, d := time.Now().UTC().Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), e.records.countSince)
}

func TestSubmitRecordTopRewardUsesFortnightWindow(t *testing.T) {
	e := newEnv()
	e.users.users[1] = &domain.User{ID: 1, Claan: domain.ClaanFireDancers}
	e.tasks.tasks[5] = &domain.Task{ID: 5, Reward: domain.TopReward, Active: true}

	_, err := e.svc.SubmitRecord(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC), e.records.countSince)
}

func TestSubmitRecordUnknownUserOrTask(t *testing.T) {
	e := newEnv()
	e.users.users[1] = &domain.User{ID: 1, Claan: domain.ClaanFireDancers}

	_, err := e.svc.SubmitRecord(context.Background(), 42, 5)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = e.svc.SubmitRecord(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestGetScoresZeroFilled(t *testing.T) {
	e := newEnv()
	e.records.scores = []domain.ClaanScore{
		{Claan: domain.ClaanWaveRiders, Score: 120},
	}

	scores, err := e.svc.GetScores(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, len(domain.Claans()))

	byClaan := make(map[domain.Claan]int64, len(scores))
	for _, score := range scores {
		byClaan[score.Claan] = score.Score
	}
	assert.Equal(t, int64(120), byClaan[domain.ClaanWaveRiders])
	assert.Equal(t, int64(0), byClaan[domain.ClaanEarthStriders])
}

func TestAddTaskValidation(t *testing.T) {
	e := newEnv()

	_, err := e.svc.AddTask(context.Background(), domain.AddTaskRequest{Reward: domain.RewardTen})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.svc.AddTask(context.Background(), domain.AddTaskRequest{
		Description: "quest",
		Reward:      domain.TaskReward(15),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	task, err := e.svc.AddTask(context.Background(), domain.AddTaskRequest{
		Description: "quest",
		Reward:      domain.RewardThirty,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RewardThirty, task.Reward)
}

func TestSetActiveTaskSwapsRewardTier(t *testing.T) {
	e := newEnv()
	e.tasks.tasks[1] = &domain.Task{ID: 1, Reward: domain.RewardTwenty, Active: true}
	e.tasks.tasks[2] = &domain.Task{ID: 2, Reward: domain.RewardTwenty}

	err := e.svc.SetActiveTask(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, domain.RewardTwenty, e.tasks.deactivatedReward)
	assert.Equal(t, int64(2), e.tasks.activatedID)
	assert.False(t, e.tasks.tasks[1].Active)
	assert.True(t, e.tasks.tasks[2].Active)

	err = e.svc.SetActiveTask(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestDeleteTask(t *testing.T) {
	e := newEnv()
	e.tasks.tasks[1] = &domain.Task{ID: 1, Reward: domain.RewardTen}

	require.NoError(t, e.svc.DeleteTask(context.Background(), 1))
	assert.ErrorIs(t, e.svc.DeleteTask(context.Background(), 1), domain.ErrTaskNotFound)
}

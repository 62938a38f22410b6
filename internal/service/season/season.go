package season

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
)

// A season runs in fortnights: settlement periods of exactly 14 days,
// numbered from the season start. The fortnight start anchors both the
// buy-back cooldown and the fortnight score windows.
const fortnightDays = 14

type SeasonRepository interface {
	LatestStart(ctx context.Context) (time.Time, error)
	Create(ctx context.Context, name string, start time.Time) error
}

type SeasonService struct {
	seasonRepo SeasonRepository
	lg         *slog.Logger
}

func NewSeasonService(seasonRepo SeasonRepository, lg *slog.Logger) *SeasonService {
	return &SeasonService{seasonRepo: seasonRepo, lg: lg}
}

// FortnightNumber is the zero-indexed fortnight containing now.
func FortnightNumber(seasonStart, now time.Time) int {
	days := int(truncateDay(now).Sub(truncateDay(seasonStart)).Hours() / 24)
	return days / fortnightDays
}

// FortnightStartDate is the first day of the fortnight containing now.
func FortnightStartDate(seasonStart, now time.Time) time.Time {
	n := FortnightNumber(seasonStart, now)
	return truncateDay(seasonStart).AddDate(0, 0, n*fortnightDays)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *SeasonService) FortnightStart(ctx context.Context) (time.Time, error) {
	start, err := s.seasonRepo.LatestStart(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return time.Time{}, domain.ErrSeasonNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get season start: %w", err)
	}

	return FortnightStartDate(start, time.Now()), nil
}

func (s *SeasonService) SeasonStart(ctx context.Context) (time.Time, error) {
	start, err := s.seasonRepo.LatestStart(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return time.Time{}, domain.ErrSeasonNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get season start: %w", err)
	}

	return start, nil
}

func (s *SeasonService) FortnightInfo(ctx context.Context) (*domain.FortnightInfo, error) {
	start, err := s.SeasonStart(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fortnightStart := FortnightStartDate(start, now)

	return &domain.FortnightInfo{
		Number:    FortnightNumber(start, now),
		StartDate: fortnightStart.Format(time.DateOnly),
		EndDate:   fortnightStart.AddDate(0, 0, fortnightDays).Format(time.DateOnly),
	}, nil
}

func (s *SeasonService) StartSeason(ctx context.Context, name string, start time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: season name is required", domain.ErrInvalidInput)
	}

	if err := s.seasonRepo.Create(ctx, name, truncateDay(start)); err != nil {
		return fmt.Errorf("failed to start season: %w", err)
	}

	s.lg.Info("season started", slog.String("name", name), slog.Time("start", start))
	return nil
}

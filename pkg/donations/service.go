package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"giveback/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadAmount  = errors.New("amount must be positive")
	ErrBadMonth   = errors.New("invalid month, expected YYYY-MM")
	ErrEmptyTitle = errors.New("project title required")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}
}

func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := s.db.WithContext(ctx).Order("id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}
	return &p, nil
}

func (s *Service) CreateProject(ctx context.Context, title, summary string, goal int64) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if goal < 0 {
		return nil, fmt.Errorf("goal must not be negative: %d", goal)
	}
	p := models.Project{Title: title, Summary: strings.TrimSpace(summary), Goal: goal}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

// Donate records a donation by userID to projectID. amount is in cents.
func (s *Service) Donate(ctx context.Context, userID, projectID uint, amount int64, message string) (*models.Donation, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	d := models.Donation{
		ProjectID: projectID,
		UserID:    &userID,
		Amount:    amount,
		Message:   message,
		Date:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	s.log.Info("donation received",
		zap.Uint("user_id", userID),
		zap.Uint("project_id", projectID),
		zap.Int64("amount", amount),
	)
	return &d, nil
}

// ListForUser returns userID's donations, newest first, with their projects loaded.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Donation, error) {
	rows := []models.Donation{}
	err := s.db.WithContext(ctx).
		Preload("Project").
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return rows, nil
}

// MonthTotal is the sum of one month's donations.
type MonthTotal struct {
	Month string // YYYY-MM, UTC
	Count int
	Total int64
}

// MonthlySummary groups donations by UTC month, keeping their order.
// Grouping happens here rather than in SQL so it behaves the same on every driver.
func MonthlySummary(rows []models.Donation) []MonthTotal {
	var out []MonthTotal
	index := map[string]int{}
	for _, d := range rows {
		m := d.Date.UTC().Format("2006-01")
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, MonthTotal{Month: m})
		}
		out[i].Count++
		out[i].Total += d.Amount
	}
	return out
}

// Report is one user's donations within a calendar month.
type Report struct {
	Username  string
	Month     string
	Start     time.Time
	End       time.Time
	Count     int64
	Total     int64
	Donations []models.Donation
}

// MonthBounds parses YYYY-MM into the half-open UTC range [start, end).
func MonthBounds(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadMonth, month)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// MonthlyReport totals username's donations in month (YYYY-MM, UTC).
// Rows are loaded only when withRows is set.
func (s *Service) MonthlyReport(ctx context.Context, username, month string, withRows bool) (*Report, error) {
	start, end, err := MonthBounds(month)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	rep := &Report{Username: user.Username, Month: month, Start: start, End: end}
	err = db.Raw(`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM donations WHERE user_id = ? AND date >= ? AND date < ?`,
		user.ID, start, end).Row().Scan(&rep.Total, &rep.Count)
	if err != nil {
		return nil, fmt.Errorf("report query: %w", err)
	}
	if withRows {
		err := db.Preload("Project").
			Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
			Order("id").
			Find(&rep.Donations).Error
		if err != nil {
			return nil, fmt.Errorf("report rows: %w", err)
		}
	}
	return rep, nil
}

package services

import (
	"context"
	"time"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
)

type StatsService struct {
	baRepo   repository.BeritaAcaraRepository
	userRepo repository.UserRepository
}

func NewStatsService(baRepo repository.BeritaAcaraRepository, userRepo repository.UserRepository) *StatsService {
	return &StatsService{baRepo: baRepo, userRepo: userRepo}
}

// Stats is the role-shaped dashboard payload. Fields not relevant to
// the caller's role stay nil and drop out of the JSON.
type Stats struct {
	Role     string `json:"role"`
	Total    int64  `json:"total"`
	Pending  int64  `json:"pending"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`

	OldestPending     *models.BeritaAcaraResponse `json:"oldest_pending,omitempty"`
	ApprovedThisMonth *int64                      `json:"approved_this_month,omitempty"`
	RejectedThisMonth *int64                      `json:"rejected_this_month,omitempty"`
	TotalUsers        *int64                      `json:"total_users,omitempty"`
}

// GetStats computes the dashboard numbers the actor's role is entitled
// to see. Vendors get their own documents only; everyone else sees
// system-wide figures.
func (s *StatsService) GetStats(ctx context.Context, actor Principal) (*Stats, error) {
	switch actor.Role {
	case models.RoleVendor:
		return s.vendorStats(ctx, actor.ID)
	case models.RoleDireksi:
		return s.direksiStats(ctx)
	case models.RoleDK:
		return s.dkStats(ctx)
	case models.RoleAdmin:
		return s.adminStats(ctx)
	default:
		return nil, ErrForbidden
	}
}

func (s *StatsService) vendorStats(ctx context.Context, vendorID uint) (*Stats, error) {
	counts, err := s.baRepo.GetStats(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Role:     models.RoleVendor,
		Total:    counts.Total,
		Pending:  counts.Pending,
		Approved: counts.Approved,
		Rejected: counts.Rejected,
	}

	oldest, err := s.baRepo.OldestPending(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if oldest != nil {
		resp := oldest.ToResponse()
		stats.OldestPending = &resp
	}

	return stats, nil
}

func (s *StatsService) direksiStats(ctx context.Context) (*Stats, error) {
	counts, err := s.baRepo.GetStats(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Role:     models.RoleDireksi,
		Total:    counts.Total,
		Pending:  counts.Pending,
		Approved: counts.Approved,
		Rejected: counts.Rejected,
	}

	oldest, err := s.baRepo.OldestPending(ctx, 0)
	if err != nil {
		return nil, err
	}
	if oldest != nil {
		resp := oldest.ToResponse()
		stats.OldestPending = &resp
	}

	monthStart := startOfMonth(time.Now())
	approved, err := s.baRepo.CountDecidedSince(ctx, models.BAStatusApproved, monthStart)
	if err != nil {
		return nil, err
	}
	rejected, err := s.baRepo.CountDecidedSince(ctx, models.BAStatusRejected, monthStart)
	if err != nil {
		return nil, err
	}
	stats.ApprovedThisMonth = &approved
	stats.RejectedThisMonth = &rejected

	return stats, nil
}

func (s *StatsService) dkStats(ctx context.Context) (*Stats, error) {
	counts, err := s.baRepo.GetStats(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Role:     models.RoleDK,
		Total:    counts.Total,
		Pending:  counts.Pending,
		Approved: counts.Approved,
		Rejected: counts.Rejected,
	}

	monthStart := startOfMonth(time.Now())
	approved, err := s.baRepo.CountDecidedSince(ctx, models.BAStatusApproved, monthStart)
	if err != nil {
		return nil, err
	}
	stats.ApprovedThisMonth = &approved

	return stats, nil
}

func (s *StatsService) adminStats(ctx context.Context) (*Stats, error) {
	counts, err := s.baRepo.GetStats(ctx, 0)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Role:       models.RoleAdmin,
		Total:      counts.Total,
		Pending:    counts.Pending,
		Approved:   counts.Approved,
		Rejected:   counts.Rejected,
		TotalUsers: &totalUsers,
	}, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

package complaints

import (
	"context"
	"strings"
	"time"

	"github.com/decsa/utility-chat-platform/internal/customers"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// Service owns the complaint use-cases. Registration goes through the
// customer service first, so a complaint can never reference a customer
// that was not materialized into the local tier.
type Service struct {
	repo      *Repository
	customers *customers.Service
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(repo *Repository, customerSvc *customers.Service, logger *logging.Logger) *Service {
	if repo == nil {
		panic("complaints: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		customers: customerSvc,
		logger:    logger.Component("complaints"),
		now:       time.Now,
	}
}

// Register files a new pending complaint for a DNI, materializing the
// customer on first access.
func (s *Service) Register(ctx context.Context, dni, description string) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, ErrEmptyDescription
	}

	customer, err := s.customers.GetByDNI(ctx, dni)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, customer.CodUser, description)
	if err != nil {
		return 0, err
	}
	s.logger.Info("complaint registered", "complaint_id", id, "dni", dni)
	return id, nil
}

// GetByID fetches one complaint with its customer summary.
func (s *Service) GetByID(ctx context.Context, id int64) (*Complaint, error) {
	return s.repo.ByID(ctx, id)
}

// GetByCustomer lists a customer's complaints, newest first. A limit of 0
// means all of them.
func (s *Service) GetByCustomer(ctx context.Context, dni string, limit int) ([]*Complaint, error) {
	return s.repo.ByCustomerDNI(ctx, dni, limit)
}

// ListAll returns every complaint for the back-office views.
func (s *Service) ListAll(ctx context.Context) ([]*Complaint, error) {
	return s.repo.ListAll(ctx)
}

// ListPending returns the open work queue.
func (s *Service) ListPending(ctx context.Context) ([]*Complaint, error) {
	return s.repo.ListPending(ctx)
}

// UpdateStatus validates and applies a lifecycle transition, then returns
// the refreshed complaint.
func (s *Service) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*Complaint, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info("complaint status updated", "complaint_id", id, "status", status)
	return s.repo.ByID(ctx, id)
}

// CancelIfPending is the user-facing cancellation: allowed only while the
// complaint is still Pendiente.
func (s *Service) CancelIfPending(ctx context.Context, id int64) error {
	if err := s.repo.CancelIfPending(ctx, id); err != nil {
		return err
	}
	s.logger.Info("complaint cancelled by user", "complaint_id", id)
	return nil
}

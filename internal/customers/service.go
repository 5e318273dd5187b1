package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// Service implements copy-on-first-access over the two tiers: every read
// or write path first ensures the customer is materialized locally, so all
// subsequent writes land on a record this system owns.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("customers: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger.Component("customers")}
}

// GetByDNI returns the local record for a customer, materializing it from
// the source tier on first access. ErrNotFound means neither tier knows
// the DNI.
func (s *Service) GetByDNI(ctx context.Context, dni string) (*Customer, error) {
	c, err := s.repo.GetLocal(ctx, dni)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.materialize(ctx, dni)
}

// materialize copies a source record into the local tier and re-reads it.
// The insert is a conflict-tolerant no-op when another request got there
// first, which makes the whole operation idempotent.
func (s *Service) materialize(ctx context.Context, dni string) (*Customer, error) {
	src, err := s.repo.GetSource(ctx, dni)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertLocal(ctx, src); err != nil {
		return nil, err
	}
	s.logger.Info("customer materialized from source tier", "dni", dni)
	return s.repo.GetLocal(ctx, dni)
}

// UpdateFields validates the field tokens, ensures a local copy exists and
// applies the changes. Unknown tokens fail the whole request before any
// write happens.
func (s *Service) UpdateFields(ctx context.Context, dni string, fields map[string]string) (*Customer, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	for token := range fields {
		if _, ok := updatableColumns[token]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidField, token)
		}
	}

	if _, err := s.GetByDNI(ctx, dni); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLocal(ctx, dni, fields); err != nil {
		return nil, err
	}
	s.logger.Info("customer updated", "dni", dni, "fields", len(fields))
	return s.repo.GetLocal(ctx, dni)
}

// ResolveName returns the customer's display name without materializing:
// the local tier is preferred, the source tier is a read-only fallback.
func (s *Service) ResolveName(ctx context.Context, dni string) (string, error) {
	c, err := s.repo.GetLocal(ctx, dni)
	if errors.Is(err, ErrNotFound) {
		c, err = s.repo.GetSource(ctx, dni)
	}
	if err != nil {
		return "", err
	}
	return c.FullName(), nil
}

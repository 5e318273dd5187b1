package bootstrap

import (
	"context"
	"errors"

	"github.com/decsa/utility-chat-platform/internal/complaints"
	"github.com/decsa/utility-chat-platform/internal/customers"
	"github.com/decsa/utility-chat-platform/internal/dialog"
	"github.com/decsa/utility-chat-platform/internal/invoices"
)

// The adapters below translate between the dialogue engine's collaborator
// contracts and the domain services, mapping each domain's not-found error
// onto the engine's single sentinel.

const dateLayout = "02/01/2006"

type customerDirectory struct {
	svc *customers.Service
}

func (a customerDirectory) ResolveName(ctx context.Context, dni string) (string, error) {
	name, err := a.svc.ResolveName(ctx, dni)
	if errors.Is(err, customers.ErrNotFound) {
		return "", dialog.ErrNotFound
	}
	return name, err
}

type customerUpdater struct {
	svc *customers.Service
}

func (a customerUpdater) UpdateField(ctx context.Context, dni string, field dialog.UpdatableField, value string) error {
	_, err := a.svc.UpdateFields(ctx, dni, map[string]string{string(field): value})
	if errors.Is(err, customers.ErrNotFound) {
		return dialog.ErrNotFound
	}
	return err
}

type complaintRegistrar struct {
	svc *complaints.Service
}

func (a complaintRegistrar) Register(ctx context.Context, dni, description string) (int64, error) {
	id, err := a.svc.Register(ctx, dni, description)
	if errors.Is(err, customers.ErrNotFound) {
		return 0, dialog.ErrNotFound
	}
	return id, err
}

type complaintReader struct {
	svc *complaints.Service
}

func (a complaintReader) RecentByCustomer(ctx context.Context, dni string, limit int) ([]dialog.ComplaintSummary, error) {
	list, err := a.svc.GetByCustomer(ctx, dni, limit)
	if err != nil {
		if errors.Is(err, complaints.ErrNotFound) {
			return nil, dialog.ErrNotFound
		}
		return nil, err
	}
	out := make([]dialog.ComplaintSummary, 0, len(list))
	for _, c := range list {
		out = append(out, dialog.ComplaintSummary{
			ID:          c.ID,
			Status:      string(c.Status),
			Description: c.Description,
		})
	}
	return out, nil
}

func (a complaintReader) ByID(ctx context.Context, id int64) (dialog.ComplaintDetail, error) {
	c, err := a.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, complaints.ErrNotFound) {
			return dialog.ComplaintDetail{}, dialog.ErrNotFound
		}
		return dialog.ComplaintDetail{}, err
	}
	return dialog.ComplaintDetail{
		ID:           c.ID,
		Description:  c.Description,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		CustomerName: c.CustomerName,
		CustomerDNI:  c.CustomerDNI,
		Street:       c.Street,
		Neighborhood: c.Neighborhood,
	}, nil
}

type invoiceFinder struct {
	repo *invoices.Repository
}

func (a invoiceFinder) ByDNI(ctx context.Context, dni string) (dialog.InvoiceView, error) {
	inv, err := a.repo.ByDNI(ctx, dni)
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			return dialog.InvoiceView{}, dialog.ErrNotFound
		}
		return dialog.InvoiceView{}, err
	}
	view := dialog.InvoiceView{
		CustomerName:  inv.CustomerName,
		DNI:           inv.DNI,
		SupplyCode:    inv.SupplyCode,
		ReceiptNumber: inv.ReceiptNumber,
		Status:        inv.StatusLabel(),
		Total:         inv.Total,
		Street:        inv.Street,
		Neighborhood:  inv.Neighborhood,
		PostalNote:    inv.PostalNote,
		MeterNumber:   inv.MeterNumber,
		Period:        inv.Period,
		Consumption:   inv.Consumption,
	}
	if inv.IssuedAt != nil {
		view.IssuedAt = inv.IssuedAt.Format(dateLayout)
	}
	if inv.DueAt != nil {
		view.DueAt = inv.DueAt.Format(dateLayout)
	}
	return view, nil
}

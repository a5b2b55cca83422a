// Package integration composes the relational store and the document store
// into unified customer and order views.
//
// The two stores share no transaction. Every cross-store write goes to
// PostgreSQL first and to MongoDB second, best effort: a document-store
// failure after a successful relational write is logged and swallowed, and the
// relational write stands. There is no compensation and no retry. This is the
// system's consistency model, not an accident; views expose a ProfileSynced
// flag so callers can see when the document side is missing.
package integration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clientsync/backoffice/internal/customer"
	"github.com/clientsync/backoffice/internal/order"
	"github.com/clientsync/backoffice/internal/product"
	"github.com/clientsync/backoffice/internal/profile"
)

type Service struct {
	customers customer.Repository
	products  product.Repository
	orders    order.Repository
	profiles  profile.Repository
}

func NewService(
	customers customer.Repository,
	products product.Repository,
	orders order.Repository,
	profiles profile.Repository,
) *Service {
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		profiles:  profiles,
	}
}

// CreateCompleteCustomer inserts the customer row and then writes the initial
// document profile: the supplied preferences when given, a default profile
// otherwise. A relational failure aborts the whole operation; a document
// failure leaves the customer stored without a profile.
func (s *Service) CreateCompleteCustomer(ctx context.Context, name, email, phone string, prefs map[string]any) (*CompleteCustomer, error) {
	c := &customer.Customer{Name: name, Email: email, Phone: phone}
	id, err := s.customers.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	if prefs != nil {
		err = s.profiles.SetPreferences(ctx, id, prefs)
	} else {
		err = s.profiles.CreateProfile(ctx, id)
	}
	if err != nil {
		log.Warn().Err(err).Int64("customer_id", id).
			Msg("integration: profile write failed, customer stored without document")
	}

	return s.GetCompleteCustomer(ctx, id)
}

// GetCompleteCustomer merges the customer row, its order aggregates and its
// document profile into one view. A missing profile is not an error: the view
// comes back with empty comments, nil preferences and ProfileSynced false.
func (s *Service) GetCompleteCustomer(ctx context.Context, id int64) (*CompleteCustomer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.customers.OrderStats(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		// Document reads never fail a relational read.
		log.Warn().Err(err).Int64("customer_id", id).Msg("integration: profile read failed")
		p = nil
	}

	view := &CompleteCustomer{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		RegisteredAt: c.RegisteredAt,
		OrderCount:   stats.OrderCount,
		TotalSpent:   stats.TotalSpent.Round(2),
		Comments:     []profile.Comment{},
	}
	if p != nil {
		view.Comments = p.Comments
		prefs := p.Preferences
		view.Preferences = &prefs
		updatedAt := p.UpdatedAt
		view.LastProfileUpdate = &updatedAt
		view.ProfileSynced = true
	}

	return view, nil
}

// GetAllCompleteCustomers assembles the merged view for every customer,
// newest registration first. A customer whose assembly fails is dropped from
// the result and reported in the skipped list; the batch itself never fails.
func (s *Service) GetAllCompleteCustomers(ctx context.Context) ([]CompleteCustomer, []Skipped, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	views := make([]CompleteCustomer, 0, len(customers))
	skipped := make([]Skipped, 0)
	for _, c := range customers {
		view, err := s.GetCompleteCustomer(ctx, c.ID)
		if err != nil {
			log.Warn().Err(err).Int64("customer_id", c.ID).Msg("integration: skipping customer in batch read")
			skipped = append(skipped, Skipped{ID: c.ID, Reason: err.Error()})
			continue
		}
		views = append(views, *view)
	}

	return views, skipped, nil
}

// UpdateCompleteCustomer applies the given steps in sequence: relational field
// update, then comment append, then preference replacement. The steps are not
// atomic across the stores. A relational failure stops the sequence and is
// returned; document failures are logged, reported through the synced flag and
// do not undo the relational update that already happened.
func (s *Service) UpdateCompleteCustomer(ctx context.Context, id int64, upd *customer.Update, comment *string, prefs map[string]any) (bool, error) {
	if upd != nil {
		if err := s.customers.Update(ctx, id, *upd); err != nil {
			return false, err
		}
	}

	synced := true
	if comment != nil {
		if err := s.profiles.AddComment(ctx, id, *comment); err != nil {
			log.Warn().Err(err).Int64("customer_id", id).Msg("integration: comment append failed")
			synced = false
		}
	}
	if prefs != nil {
		if err := s.profiles.SetPreferences(ctx, id, prefs); err != nil {
			log.Warn().Err(err).Int64("customer_id", id).Msg("integration: preference update failed")
			synced = false
		}
	}

	return synced, nil
}

// DeleteCompleteCustomer removes the document profile first and the customer
// row second (orders and lines cascade with it). The ordering is a known
// hazard: a document-store transport failure aborts before the row is touched,
// but if the row delete fails after the profile was removed, the document data
// is gone while the customer survives.
func (s *Service) DeleteCompleteCustomer(ctx context.Context, id int64) error {
	removed, err := s.profiles.DeleteProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("integration: profile delete failed for customer %d: %w", id, err)
	}

	if err := s.customers.Delete(ctx, id); err != nil {
		if removed {
			log.Error().Err(err).Int64("customer_id", id).
				Msg("integration: customer delete failed after profile was already removed")
		}
		return err
	}

	return nil
}

// CreateCompleteOrder creates the order and all its lines in one relational
// transaction: any unknown product aborts and rolls back everything. After the
// commit the customer's document preferences are replaced to record the
// payment method, best effort.
func (s *Service) CreateCompleteOrder(ctx context.Context, customerID int64, lines []order.LineInput, shippingAddress, paymentMethod string) (*CompleteOrder, error) {
	o, err := s.orders.Create(ctx, customerID, lines, shippingAddress, paymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.SetPreferences(ctx, customerID, map[string]any{"metodo_pago": paymentMethod}); err != nil {
		log.Warn().Err(err).Int64("customer_id", customerID).Int64("order_id", o.ID).
			Msg("integration: payment method not recorded in profile")
	}

	return s.GetCompleteOrder(ctx, o.ID)
}

// GetCompleteOrder joins the order, its lines and products, the owning
// customer and the customer's document preferences into one nested view.
func (s *Service) GetCompleteOrder(ctx context.Context, orderID int64) (*CompleteOrder, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	c, err := s.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.profiles.GetPreferences(ctx, o.CustomerID)
	if err != nil {
		log.Warn().Err(err).Int64("customer_id", o.CustomerID).Msg("integration: preference read failed")
		prefs = nil
	}

	view := &CompleteOrder{
		ID:              o.ID,
		CreatedAt:       o.CreatedAt,
		Total:           o.Total,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Customer: CustomerSummary{
			ID:          c.ID,
			Name:        c.Name,
			Email:       c.Email,
			Preferences: prefs,
		},
		Lines: make([]LineView, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		view.Lines = append(view.Lines, LineView{
			ID: l.ID,
			Product: ProductSummary{
				ID:    l.ProductID,
				Name:  l.ProductName,
				Price: l.ProductPrice,
			},
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}

	return view, nil
}

// GetOrdersForCustomer returns the complete view of every order of the
// customer, newest first, with the same skip-don't-fail semantics as
// GetAllCompleteCustomers.
func (s *Service) GetOrdersForCustomer(ctx context.Context, customerID int64) ([]CompleteOrder, []Skipped, error) {
	orders, err := s.orders.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	views := make([]CompleteOrder, 0, len(orders))
	skipped := make([]Skipped, 0)
	for _, o := range orders {
		view, err := s.GetCompleteOrder(ctx, o.ID)
		if err != nil {
			log.Warn().Err(err).Int64("order_id", o.ID).Msg("integration: skipping order in batch read")
			skipped = append(skipped, Skipped{ID: o.ID, Reason: err.Error()})
			continue
		}
		views = append(views, *view)
	}

	return views, skipped, nil
}

// SystemStatistics joins counts and sums from both stores. Relational failures
// propagate; a document-store failure yields zeroed document stats. All ratios
// are defined as 0 when their denominator is 0.
func (s *Service) SystemStatistics(ctx context.Context) (*Statistics, error) {
	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalSales, err := s.orders.TotalSales(ctx)
	if err != nil {
		return nil, err
	}

	avgOrderValue := decimal.Zero
	if orders > 0 {
		avgOrderValue = totalSales.Div(decimal.NewFromInt(orders)).Round(2)
	}

	docStats, err := s.profiles.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("integration: document stats unavailable")
		docStats = profile.Stats{}
	}

	coverage := 0.0
	if customers > 0 {
		coverage = float64(docStats.Profiles) / float64(customers) * 100
	}

	return &Statistics{
		Relational: RelationalStats{
			Customers:     customers,
			Orders:        orders,
			Products:      products,
			TotalSales:    totalSales.Round(2),
			AvgOrderValue: avgOrderValue,
		},
		Documents:       docStats,
		CoveragePercent: coverage,
	}, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
	"github.com/rs/zerolog"
)

// maxNumberAttempts bounds order number regeneration on collision
const maxNumberAttempts = 20

// OrderServiceOptions are the optional collaborators of an OrderService
type OrderServiceOptions struct {
	// Factory supplies order numbers, links and the clock; nil uses the defaults
	Factory *models.OrderFactory
	// Notifier is called after a signed order is saved; nil disables notifications
	Notifier Notifier
	// Photos validates photo uploads; nil uses a photo service on the factory clock
	Photos *PhotoService
	// RequireKnownStaff rejects orders whose staff name is not a stored staff member
	RequireKnownStaff bool
}

// OrderService validates, creates, signs, duplicates and exports orders.
// It keeps no state between calls: every read goes back to the repositories.
type OrderService struct {
	orders            *repositories.OrderRepository
	staff             *repositories.StaffRepository
	settings          *repositories.SettingsStore
	factory           *models.OrderFactory
	notifier          Notifier
	photos            *PhotoService
	requireKnownStaff bool
	logger            zerolog.Logger
}

// NewOrderService creates an order service over the given repositories
func NewOrderService(
	orders *repositories.OrderRepository,
	staff *repositories.StaffRepository,
	settings *repositories.SettingsStore,
	opts OrderServiceOptions,
	logger zerolog.Logger,
) *OrderService {
	factory := opts.Factory
	if factory == nil {
		factory = &models.OrderFactory{}
	}
	photos := opts.Photos
	if photos == nil {
		photos = NewPhotoService(factory.Timestamp)
	}

	return &OrderService{
		orders:            orders,
		staff:             staff,
		settings:          settings,
		factory:           factory,
		notifier:          opts.Notifier,
		photos:            photos,
		requireKnownStaff: opts.RequireKnownStaff,
		logger:            logger.With().Str("component", "order_service").Logger(),
	}
}

// OrderStatistics aggregates all stored orders
type OrderStatistics struct {
	Total         int     `json:"total"`
	Pending       int     `json:"pending"`
	Signed        int     `json:"signed"`
	ThisMonth     int     `json:"thisMonth"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageAmount float64 `json:"averageAmount"`
}

// OrderExport is the document produced by ExportToJSON
type OrderExport struct {
	ExportDate  time.Time          `json:"exportDate"`
	TotalOrders int                `json:"totalOrders"`
	Filters     models.OrderFilter `json:"filters"`
	Orders      []*models.Order    `json:"orders"`
}

// validate runs the entity rules plus the optional staff reference check
func (s *OrderService) validate(order *models.Order) error {
	result := order.Validate()
	errs := result.Errors

	if s.requireKnownStaff && strings.TrimSpace(order.Staff) != "" {
		member, err := s.staff.Get(order.Staff)
		if err != nil {
			return err
		}
		if member == nil {
			errs = append(errs, fmt.Sprintf("工務人員「%s」不存在", order.Staff))
		}
	}

	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// insert stores a new order. A generated number is regenerated until it is
// unused; a user-supplied number that is taken is a validation error.
func (s *OrderService) insert(order *models.Order, generated bool) error {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.orders.Insert(order)
		if !errors.Is(err, repositories.ErrOrderExists) {
			return err
		}
		if !generated {
			return &models.ValidationError{Errors: []string{fmt.Sprintf("維修單號 %s 已存在", order.OrderNumber)}}
		}
		order.OrderNumber = s.factory.NewOrderNumber()
		order.Link = s.factory.Link(order.OrderNumber)
	}
	return fmt.Errorf("could not generate an unused order number after %d attempts", maxNumberAttempts)
}

// update runs fn against the stored order under the repository lock and
// maps an absent order to models.ErrNotFound
func (s *OrderService) update(orderNumber string, fn func(*models.Order) error) (*models.Order, error) {
	order, err := s.orders.Update(orderNumber, fn)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.ErrNotFound
	}
	return order, nil
}

// CreateOrder validates and stores a new pending order, then remembers its
// site as the last used one
func (s *OrderService) CreateOrder(input models.OrderInput) (*models.Order, error) {
	photos, err := s.photos.Verify(input.Photos)
	if err != nil {
		return nil, err
	}
	input.Photos = photos

	order := s.factory.New(input)
	if err := s.validate(order); err != nil {
		return nil, err
	}

	if err := s.insert(order, input.OrderNumber == ""); err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	site := order.Site
	if err := s.settings.Save(models.SettingsPatch{LastUsedSite: &site}); err != nil {
		s.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to remember last used site")
	}

	s.logger.Info().Str("order_number", order.OrderNumber).Str("site", order.Site).Msg("order created")
	return order, nil
}

// GetOrder returns the order with the given number or models.ErrNotFound
func (s *OrderService) GetOrder(orderNumber string) (*models.Order, error) {
	order, err := s.orders.Get(orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.ErrNotFound
	}
	return order, nil
}

// GetOrderByLink resolves a generated signature link to its order
func (s *OrderService) GetOrderByLink(link string) (*models.Order, error) {
	number, err := models.ParseOrderNumber(link)
	if err != nil {
		return nil, models.ErrNotFound
	}
	return s.GetOrder(number)
}

// ListOrders returns the orders matching filter, newest first
func (s *OrderService) ListOrders(filter models.OrderFilter) ([]*models.Order, error) {
	return s.orders.List(filter)
}

// UpdateOrder merges patch into a pending order, validates and stores it.
// Signed orders cannot be edited.
func (s *OrderService) UpdateOrder(orderNumber string, patch models.OrderPatch) (*models.Order, error) {
	if patch.Photos != nil {
		photos, err := s.photos.Verify(patch.Photos)
		if err != nil {
			return nil, err
		}
		patch.Photos = photos
	}

	order, err := s.update(orderNumber, func(order *models.Order) error {
		if order.IsSigned() {
			return models.ErrAlreadySigned
		}
		patch.Apply(order)
		order.Link = s.factory.Link(order.OrderNumber)
		return s.validate(order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_number", order.OrderNumber).Msg("order updated")
	return order, nil
}

// SignOrder records signature and the optional customer email against a
// pending order and stores it. A notification is sent afterwards when email
// is given; its failure is logged and does not undo the signing.
func (s *OrderService) SignOrder(ctx context.Context, orderNumber, signature, email string) (*models.Order, error) {
	email = strings.TrimSpace(email)

	order, err := s.update(orderNumber, func(order *models.Order) error {
		if order.IsSigned() {
			return models.ErrAlreadySigned
		}
		if strings.TrimSpace(signature) == "" {
			return models.ErrInvalidSignature
		}
		if email != "" && !utils.IsValidEmail(email) {
			return models.ErrInvalidEmail
		}
		return order.Sign(signature, email, s.factory.Timestamp())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_number", order.OrderNumber).Bool("email", email != "").Msg("order signed")

	if email != "" {
		s.notify(ctx, order, email)
	}
	return order, nil
}

func (s *OrderService) notify(ctx context.Context, order *models.Order, email string) {
	if s.notifier == nil {
		s.logger.Debug().Str("order_number", order.OrderNumber).Msg("no notifier configured, skipping email")
		return
	}
	if !s.settings.Get().EmailNotifications {
		s.logger.Debug().Str("order_number", order.OrderNumber).Msg("email notifications disabled in settings")
		return
	}

	if err := s.notifier.NotifySigned(ctx, order, email); err != nil {
		s.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to send signed order email")
		return
	}
	s.logger.Info().Str("order_number", order.OrderNumber).Msg("signed order email sent")
}

// DeleteOrder removes an order, signed or not
func (s *OrderService) DeleteOrder(orderNumber string) error {
	if _, err := s.GetOrder(orderNumber); err != nil {
		return err
	}
	if err := s.orders.Delete(orderNumber); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.Info().Str("order_number", orderNumber).Msg("order deleted")
	return nil
}

// DuplicateOrder stores a pending copy of an order with a fresh number,
// today's date, a fresh createdAt and link, and no signature or email
func (s *OrderService) DuplicateOrder(orderNumber string) (*models.Order, error) {
	source, err := s.GetOrder(orderNumber)
	if err != nil {
		return nil, err
	}

	duplicate := s.factory.Duplicate(source)
	if err := s.insert(duplicate, true); err != nil {
		return nil, fmt.Errorf("failed to save duplicated order: %w", err)
	}

	s.logger.Info().
		Str("order_number", duplicate.OrderNumber).
		Str("source_order_number", source.OrderNumber).
		Msg("order duplicated")
	return duplicate, nil
}

// AddPhotos attaches uploads to a pending order
func (s *OrderService) AddPhotos(orderNumber string, uploads []PhotoUpload) (*models.Order, error) {
	return s.update(orderNumber, func(order *models.Order) error {
		if order.IsSigned() {
			return models.ErrAlreadySigned
		}
		attached, err := s.photos.Attach(order.Photos, uploads)
		if err != nil {
			return err
		}
		order.Photos = attached
		return nil
	})
}

// RemovePhoto detaches one photo from a pending order
func (s *OrderService) RemovePhoto(orderNumber, photoID string) (*models.Order, error) {
	return s.update(orderNumber, func(order *models.Order) error {
		if order.IsSigned() {
			return models.ErrAlreadySigned
		}
		kept, found := s.photos.Remove(order.Photos, photoID)
		if !found {
			return &utils.PhotoUploadError{Code: "PHOTO_NOT_FOUND", Message: "照片不存在"}
		}
		order.Photos = kept
		return nil
	})
}

// GetOrderStatistics counts orders by status and in the current calendar
// month (by createdAt) and sums their amounts
func (s *OrderService) GetOrderStatistics() (OrderStatistics, error) {
	orders, err := s.orders.All()
	if err != nil {
		return OrderStatistics{}, err
	}

	now := s.factory.Timestamp()
	stats := OrderStatistics{Total: len(orders)}
	for _, order := range orders {
		switch order.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusSigned:
			stats.Signed++
		}
		created := order.CreatedAt.In(now.Location())
		if created.Year() == now.Year() && created.Month() == now.Month() {
			stats.ThisMonth++
		}
		stats.TotalAmount += order.Amount
	}
	if stats.Total > 0 {
		stats.AverageAmount = stats.TotalAmount / float64(stats.Total)
	}
	return stats, nil
}

// SearchOrders returns orders whose number, site, building, reason or staff
// contains keyword, ignoring case, newest first
func (s *OrderService) SearchOrders(keyword string) ([]*models.Order, error) {
	orders, err := s.orders.List(models.OrderFilter{})
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	matched := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		for _, field := range []string{o.OrderNumber, o.Site, o.Building, o.Reason, o.Staff} {
			if strings.Contains(strings.ToLower(field), keyword) {
				matched = append(matched, o)
				break
			}
		}
	}
	return matched, nil
}

// RecentOrders returns at most limit orders, newest first
func (s *OrderService) RecentOrders(limit int) ([]*models.Order, error) {
	orders, err := s.orders.List(models.OrderFilter{})
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ExportToCSV renders the orders matching filter as CSV: the header line and
// one canonical row per order
func (s *OrderService) ExportToCSV(filter models.OrderFilter) (string, error) {
	orders, err := s.orders.List(filter)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(models.CSVHeader())
	b.WriteString("\n")
	for _, order := range orders {
		b.WriteString(order.CSVRow())
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ExportToJSON renders the orders matching filter with the export metadata
func (s *OrderService) ExportToJSON(filter models.OrderFilter) ([]byte, error) {
	orders, err := s.orders.List(filter)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(OrderExport{
		ExportDate:  s.factory.Timestamp(),
		TotalOrders: len(orders),
		Filters:     filter,
		Orders:      orders,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

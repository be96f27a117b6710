package trackings

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/broker/messages"
	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/models"
	"github.com/BearBump/ShipBox/internal/storage"
)

const (
	DefaultBatchDelay     = time.Second
	DefaultCarrierTimeout = 10 * time.Second

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Notifier публикует уведомления об изменениях трекинга.
type Notifier interface {
	TrackingUpdated(ctx context.Context, msg messages.TrackingUpdated) error
}

// SyncRequester ставит внеочередную синхронизацию в очередь воркера.
type SyncRequester interface {
	RequestSync(ctx context.Context, code string) error
}

// RateLimiter: счётчик вызовов перевозчика в окне.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Service struct {
	repo     storage.TrackingRepository
	orders   storage.OrderRepository
	carrier  carrier.Client
	notifier Notifier
	requests SyncRequester

	limiter   RateLimiter
	perMinute int64

	batchDelay     time.Duration
	carrierTimeout time.Duration

	locks *codeLocks
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	log   *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithSyncRequester(r SyncRequester) Option { return func(s *Service) { s.requests = r } }

// WithRateLimit ограничивает вызовы перевозчика в BatchSync числом perMinute.
func WithRateLimit(l RateLimiter, perMinute int64) Option {
	return func(s *Service) {
		s.limiter = l
		s.perMinute = perMinute
	}
}

func WithBatchDelay(d time.Duration) Option { return func(s *Service) { s.batchDelay = d } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(repo storage.TrackingRepository, orders storage.OrderRepository, c carrier.Client, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		orders:         orders,
		carrier:        c,
		batchDelay:     DefaultBatchDelay,
		carrierTimeout: DefaultCarrierTimeout,
		locks:          newCodeLocks(),
		now:            time.Now,
		sleep:          sleepCtx,
		log:            slog.With("component", "trackings"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NormalizeCode: коды Correios регистронезависимы.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ordersUnavailable: без основной БД проверки заказов пропускаются.
func ordersUnavailable(err error) bool {
	return errors.Is(err, models.ErrOrdersUnavailable)
}

// CreateOrUpdate привязывает код к заказу. Повторный вызов с теми же
// данными не создаёт новых записей.
func (s *Service) CreateOrUpdate(ctx context.Context, orderID, code string) (*models.Tracking, error) {
	orderID = strings.TrimSpace(orderID)
	code = NormalizeCode(code)
	if orderID == "" || code == "" {
		return nil, models.Invalid("ID do pedido e código de rastreamento são obrigatórios")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	switch {
	case ordersUnavailable(err):
		order = nil
	case errors.Is(err, models.ErrNotFound):
		return nil, errors.Wrap(models.ErrNotFound, "pedido não encontrado")
	case err != nil:
		return nil, err
	}

	now := s.now().UTC()
	next := &models.Tracking{
		OrderID:      orderID,
		TrackingCode: code,
		Status:       models.TrackingStatusPending,
		Events:       []models.TrackingEvent{},
		LastChecked:  &now,
	}
	existing, err := s.repo.GetTrackingByOrder(ctx, orderID)
	switch {
	case err == nil:
		// код заказа мог смениться; история и статус сохраняются
		next.Status = existing.Status
		next.Servico = existing.Servico
		next.Events = existing.Events
		next.ErrorCount = existing.ErrorCount
		next.LastError = existing.LastError
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	saved, err := s.repo.UpsertTracking(ctx, next)
	if err != nil {
		return nil, err
	}

	if order != nil {
		if err := s.orders.SetOrderTracking(ctx, orderID, code, models.TrackingStatusPending, now); err != nil {
			s.log.Warn("annotate order", "order_id", orderID, "err", err)
		}
		s.notify(ctx, saved, order, nil, messages.KindConfirmation)
	}

	s.log.Info("tracking created or updated", "order_id", orderID, "code", code)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, code string) (*models.Tracking, error) {
	return s.repo.GetTrackingByCode(ctx, NormalizeCode(code))
}

type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

type ListPage struct {
	Trackings  []*models.Tracking `json:"trackings"`
	Pagination Pagination         `json:"pagination"`
}

func (s *Service) List(ctx context.Context, status string, page, limit int) (ListPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	items, total, err := s.repo.ListTrackings(ctx, models.TrackingFilter{Status: strings.TrimSpace(status)}, limit, (page-1)*limit)
	if err != nil {
		return ListPage{}, err
	}
	if items == nil {
		items = []*models.Tracking{}
	}
	return ListPage{
		Trackings: items,
		Pagination: Pagination{
			Current: page,
			Pages:   int(math.Ceil(float64(total) / float64(limit))),
			Total:   total,
		},
	}, nil
}

// Delete удаляет трекинг и снимает аннотацию с заказа.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	t, err := s.repo.GetTrackingByCode(ctx, code)
	if err != nil {
		return err
	}
	removed, err := s.repo.RemoveTrackingByCode(ctx, code)
	if err != nil {
		return err
	}
	if !removed {
		return errors.Wrapf(models.ErrNotFound, "tracking %s", code)
	}
	if t.OrderID != "" {
		if err := s.orders.ClearOrderTracking(ctx, t.OrderID); err != nil && !ordersUnavailable(err) {
			s.log.Warn("clear order tracking", "order_id", t.OrderID, "err", err)
		}
	}
	return nil
}

type UserTracking struct {
	*models.Tracking
	Order *models.Order `json:"order"`
}

// UserTrackings: трекинги отправленных и доставленных заказов пользователя.
// Без основной БД связать трекинги с пользователем нельзя: пустой список.
func (s *Service) UserTrackings(ctx context.Context, userID string) ([]UserTracking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.Invalid("ID do usuário é obrigatório")
	}
	orders, err := s.orders.ListUserOrders(ctx, userID, []string{models.OrderStatusShipped, models.OrderStatusDelivered})
	if ordersUnavailable(err) {
		return []UserTracking{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]UserTracking, 0, len(orders))
	for _, o := range orders {
		t, err := s.repo.GetTrackingByOrder(ctx, o.ID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, UserTracking{Tracking: t, Order: o})
	}
	return out, nil
}

// RequestSync ставит синхронизацию в очередь. Без очереди синхронизирует
// сразу; queued=false.
func (s *Service) RequestSync(ctx context.Context, code string) (bool, error) {
	code = NormalizeCode(code)
	if _, err := s.repo.GetTrackingByCode(ctx, code); err != nil {
		return false, err
	}
	if s.requests == nil {
		_, err := s.Sync(ctx, code)
		return false, err
	}
	if err := s.requests.RequestSync(ctx, code); err != nil {
		return false, errors.Wrap(err, "request sync")
	}
	return true, nil
}

func toMessageEvents(events []models.TrackingEvent) []messages.Event {
	out := make([]messages.Event, 0, len(events))
	for _, e := range events {
		out = append(out, messages.Event{
			Date:        e.Date,
			Time:        e.Time,
			Location:    e.Location,
			Status:      e.Status,
			SubStatus:   e.SubStatus,
			Observation: e.Observation,
		})
	}
	return out
}

// notify: ошибки уведомлений только логируются.
func (s *Service) notify(ctx context.Context, t *models.Tracking, order *models.Order, events []models.TrackingEvent, kind string) {
	if s.notifier == nil || order == nil {
		return
	}
	user, err := s.orders.GetUser(ctx, order.UserID)
	if err != nil {
		s.log.Debug("skip notification: user unavailable", "code", t.TrackingCode, "err", err)
		return
	}
	msg := messages.TrackingUpdated{
		Kind:          kind,
		TrackingCode:  t.TrackingCode,
		OrderID:       t.OrderID,
		Status:        t.Status,
		Service:       t.Servico,
		User:          &messages.User{ID: user.ID, Name: user.Name, Email: user.Email},
		NewEvents:     toMessageEvents(events),
		Notifications: order.TrackingNotifications,
		SentAt:        s.now().UTC(),
	}
	if err := s.notifier.TrackingUpdated(ctx, msg); err != nil {
		s.log.Warn("publish tracking notification", "code", t.TrackingCode, "err", err)
	}
}

package trackings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/broker/messages"
	"github.com/BearBump/ShipBox/internal/cache/rediscache"
	"github.com/BearBump/ShipBox/internal/integrations/carrier"
	"github.com/BearBump/ShipBox/internal/metrics"
	"github.com/BearBump/ShipBox/internal/models"
)

const carrierName = "correios"

type SyncResult struct {
	Tracking   *models.Tracking       `json:"tracking"`
	NewEvents  []models.TrackingEvent `json:"newEvents"`
	HasUpdates bool                   `json:"hasUpdates"`
}

func (s *Service) fetch(ctx context.Context, code string) (carrier.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.carrierTimeout)
	defer cancel()
	res, err := s.carrier.GetTracking(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrCarrier) {
			return carrier.Result{}, err
		}
		return carrier.Result{}, errors.Wrapf(models.ErrCarrier, "%v", err)
	}
	return res, nil
}

// Sync опрашивает перевозчика и дописывает новые события.
// Ошибки опроса и сохранения увеличивают errorCount и возвращаются.
func (s *Service) Sync(ctx context.Context, code string) (SyncResult, error) {
	code = NormalizeCode(code)
	unlock := s.locks.Lock(code)
	defer unlock()

	cur, err := s.repo.GetTrackingByCode(ctx, code)
	if err != nil {
		return SyncResult{}, err
	}

	res, err := s.fetch(ctx, code)
	if err != nil {
		return SyncResult{}, s.fail(ctx, cur, err)
	}

	merged, added := models.MergeEvents(cur.Events, res.Events)
	now := s.now().UTC()
	next := *cur
	next.Events = merged
	if res.Service != "" {
		next.Servico = res.Service
	}
	next.Status = Advance(ctx, cur.Status, Classify(merged))
	next.LastChecked = &now
	next.ErrorCount = 0
	next.LastError = nil

	saved, err := s.repo.UpsertTracking(ctx, &next)
	if err != nil {
		return SyncResult{}, s.fail(ctx, cur, err)
	}

	var order *models.Order
	if saved.OrderID != "" {
		// события уже сохранены; сбой аннотации заказа считается сбоем синхронизации
		if err := s.orders.UpdateOrderTrackingStatus(ctx, saved.OrderID, saved.Status, now); err != nil && !ordersUnavailable(err) {
			return SyncResult{}, s.fail(ctx, saved, errors.Wrapf(err, "update order %s tracking status", saved.OrderID))
		}
		if len(added) > 0 {
			order, err = s.orders.GetOrder(ctx, saved.OrderID)
			if err != nil {
				order = nil
			}
		}
	}

	metrics.TrackingSyncs.WithLabelValues("ok").Inc()
	metrics.TrackingNewEvents.Add(float64(len(added)))
	if added == nil {
		added = []models.TrackingEvent{}
	}
	if len(added) > 0 {
		s.notify(ctx, saved, order, added, messages.KindUpdate)
	}

	s.log.Info("tracking synced", "code", code, "status", saved.Status, "new_events", len(added))
	return SyncResult{Tracking: saved, NewEvents: added, HasUpdates: len(added) > 0}, nil
}

// fail фиксирует неудачную синхронизацию и возвращает исходную ошибку.
func (s *Service) fail(ctx context.Context, cur *models.Tracking, cause error) error {
	now := s.now().UTC()
	msg := cause.Error()
	next := *cur
	next.ErrorCount = cur.ErrorCount + 1
	next.LastError = &msg
	next.LastChecked = &now
	if _, err := s.repo.UpsertTracking(ctx, &next); err != nil {
		s.log.Error("record sync failure", "code", cur.TrackingCode, "err", err)
	}
	metrics.TrackingSyncs.WithLabelValues("error").Inc()
	s.log.Warn("tracking sync failed", "code", cur.TrackingCode, "error_count", next.ErrorCount, "err", cause)
	return cause
}

type BatchItem struct {
	TrackingCode   string `json:"trackingCode"`
	Success        bool   `json:"success"`
	HasUpdates     bool   `json:"hasUpdates"`
	NewEventsCount int    `json:"newEventsCount"`
	Error          string `json:"error,omitempty"`
}

type BatchResult struct {
	Total       int         `json:"total"`
	Updated     int         `json:"updated"`
	Errors      int         `json:"errors"`
	WithUpdates int         `json:"withUpdates"`
	Results     []BatchItem `json:"results"`
	Timestamp   time.Time   `json:"timestamp"`
}

// BatchSync синхронизирует все просроченные трекинги строго по очереди,
// с паузой между вызовами перевозчика. Ошибка одного кода не прерывает пачку.
// Отмена ctx возвращает то, что успели, вместе с ошибкой контекста.
func (s *Service) BatchSync(ctx context.Context) (BatchResult, error) {
	due, err := s.repo.ListDueForSync(ctx, s.now())
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "list due trackings")
	}

	out := BatchResult{Total: len(due), Results: make([]BatchItem, 0, len(due))}
	s.log.Info("batch sync started", "due", len(due))

	for i, t := range due {
		if i > 0 {
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				out.Timestamp = s.now().UTC()
				return out, err
			}
		}
		if err := s.waitRateLimit(ctx); err != nil {
			out.Timestamp = s.now().UTC()
			return out, err
		}

		item := BatchItem{TrackingCode: t.TrackingCode}
		res, err := s.Sync(ctx, t.TrackingCode)
		if err != nil {
			out.Errors++
			item.Error = err.Error()
		} else {
			out.Updated++
			item.Success = true
			item.HasUpdates = res.HasUpdates
			item.NewEventsCount = len(res.NewEvents)
			if res.HasUpdates {
				out.WithUpdates++
			}
		}
		out.Results = append(out.Results, item)
	}

	out.Timestamp = s.now().UTC()
	s.log.Info("batch sync finished", "total", out.Total, "updated", out.Updated, "errors", out.Errors, "with_updates", out.WithUpdates)
	return out, nil
}

// waitRateLimit ждёт следующей минуты, если лимит вызовов исчерпан.
// Сбой Redis не блокирует синхронизацию.
func (s *Service) waitRateLimit(ctx context.Context) error {
	if s.limiter == nil || s.perMinute <= 0 {
		return nil
	}
	for {
		now := s.now()
		ok, n, err := s.limiter.Allow(ctx, rediscache.MinuteKey(carrierName, now), s.perMinute, time.Minute)
		if err != nil {
			s.log.Warn("carrier rate limiter", "err", err)
			return nil
		}
		if ok {
			return nil
		}
		wait := now.Truncate(time.Minute).Add(time.Minute).Sub(now)
		s.log.Info("carrier rate limit reached, waiting", "count", n, "wait", wait)
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// HandleSyncRequested: обработчик сообщений tracking.sync.requested.
// Ошибки только логируются, чтобы сообщение было закоммичено.
func (s *Service) HandleSyncRequested(ctx context.Context, _, value []byte) error {
	var req messages.SyncRequested
	if err := json.Unmarshal(value, &req); err != nil {
		s.log.Warn("bad sync request message", "err", err)
		return nil
	}
	if req.TrackingCode == "" {
		return nil
	}
	if _, err := s.Sync(ctx, req.TrackingCode); err != nil {
		s.log.Warn("requested sync failed", "code", req.TrackingCode, "err", err)
	}
	return nil
}

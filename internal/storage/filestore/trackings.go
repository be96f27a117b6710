package filestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ShipBox/internal/models"
)

// Trackings: резервное хранилище трекингов, файл вида {"trackings": [...]}.
type Trackings struct {
	file *File
	now  func() time.Time
}

func NewTrackings(path string) *Trackings {
	return &Trackings{file: NewFile(path), now: time.Now}
}

func (s *Trackings) WithClock(now func() time.Time) *Trackings {
	s.now = now
	return s
}

type trackingsDoc struct {
	Trackings []*models.Tracking `json:"trackings"`
}

func (s *Trackings) decode(data []byte) []*models.Tracking {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var doc trackingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("fallback trackings file is corrupted, treating as empty", "path", s.file.Path(), "err", err)
		return nil
	}
	return doc.Trackings
}

func encodeTrackings(list []*models.Tracking) ([]byte, error) {
	if list == nil {
		list = []*models.Tracking{}
	}
	b, err := json.MarshalIndent(trackingsDoc{Trackings: list}, "", "  ")
	return b, errors.Wrap(err, "encode trackings")
}

func (s *Trackings) all() ([]*models.Tracking, error) {
	var out []*models.Tracking
	err := s.file.View(func(data []byte) error {
		out = s.decode(data)
		return nil
	})
	return out, err
}

// UpsertTracking ищет запись по коду или по заказу. События сливаются
// по ключу (дата, время, статус), остальные поля берутся из t.
func (s *Trackings) UpsertTracking(_ context.Context, t *models.Tracking) (*models.Tracking, error) {
	var saved models.Tracking
	err := s.file.Update(func(data []byte) ([]byte, error) {
		list := s.decode(data)
		now := s.now()
		idx := -1
		for i, cur := range list {
			if cur.TrackingCode == t.TrackingCode || (t.OrderID != "" && cur.OrderID == t.OrderID) {
				idx = i
				break
			}
		}
		// код уникален: чужой заказ с тем же кодом не перезаписываем
		for _, cur := range list {
			if cur.TrackingCode == t.TrackingCode && cur.OrderID != "" && t.OrderID != "" && cur.OrderID != t.OrderID {
				return nil, errors.Wrapf(models.ErrConflict, "tracking %s belongs to order %s", t.TrackingCode, cur.OrderID)
			}
		}
		saved = *t
		saved.LastUpdate = &now
		saved.UpdatedAt = now
		if idx >= 0 {
			cur := list[idx]
			saved.ID = cur.ID
			saved.CreatedAt = cur.CreatedAt
			saved.Events, _ = models.MergeEvents(cur.Events, t.Events)
			list[idx] = &saved
		} else {
			saved.ID = GenerateID(now)
			saved.CreatedAt = now
			saved.Events, _ = models.MergeEvents(nil, t.Events)
			list = append(list, &saved)
		}
		return encodeTrackings(list)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Trackings) find(match func(*models.Tracking) bool, what string) (*models.Tracking, error) {
	list, err := s.all()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if match(t) {
			return t, nil
		}
	}
	return nil, errors.Wrapf(models.ErrNotFound, "tracking %s", what)
}

func (s *Trackings) GetTrackingByCode(_ context.Context, code string) (*models.Tracking, error) {
	return s.find(func(t *models.Tracking) bool { return t.TrackingCode == code }, code)
}

func (s *Trackings) GetTrackingByOrder(_ context.Context, orderID string) (*models.Tracking, error) {
	return s.find(func(t *models.Tracking) bool { return t.OrderID == orderID }, "for order "+orderID)
}

func (s *Trackings) RemoveTrackingByCode(_ context.Context, code string) (bool, error) {
	removed := false
	err := s.file.Update(func(data []byte) ([]byte, error) {
		list := s.decode(data)
		kept := list[:0:0]
		for _, t := range list {
			if t.TrackingCode == code {
				removed = true
				continue
			}
			kept = append(kept, t)
		}
		if !removed {
			return nil, nil
		}
		return encodeTrackings(kept)
	})
	return removed, err
}

func (s *Trackings) ListDueForSync(_ context.Context, now time.Time) ([]*models.Tracking, error) {
	list, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []*models.Tracking
	for _, t := range list {
		if t.DueForSync(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListTrackings сортирует по lastChecked, свежие первыми; непроверенные в конце.
func (s *Trackings) ListTrackings(_ context.Context, f models.TrackingFilter, limit, offset int) ([]*models.Tracking, int, error) {
	list, err := s.all()
	if err != nil {
		return nil, 0, err
	}
	var filtered []*models.Tracking
	for _, t := range list {
		if f.Status == "" || t.Status == f.Status {
			filtered = append(filtered, t)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].LastChecked, filtered[j].LastChecked
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	total := len(filtered)
	if offset >= total {
		return []*models.Tracking{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return filtered[offset:end], total, nil
}

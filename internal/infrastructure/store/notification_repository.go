package store

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var (
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.ActivityRepository     = (*ActivityRepo)(nil)
)

// NotificationRepo implementación de NotificationRepository sobre notifications.
type NotificationRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewNotificationRepository construye el repositorio de notificaciones.
func NewNotificationRepository(kv repository.KeyValueStore, log *logger.Logger) *NotificationRepo {
	return &NotificationRepo{kv: kv, log: log}
}

func (r *NotificationRepo) load(ctx context.Context) ([]notificationRecord, error) {
	recs, _, err := readBlob[[]notificationRecord](ctx, r.kv, repository.KeyNotifications, r.log)
	return recs, err
}

func (r *NotificationRepo) List(ctx context.Context) ([]entity.Notification, error) {
	recs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Notification, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeNotification(rec))
	}
	return out, nil
}

func (r *NotificationRepo) Prepend(ctx context.Context, n entity.Notification, limit int) error {
	recs, err := r.load(ctx)
	if err != nil {
		return err
	}
	recs = append([]notificationRecord{encodeNotification(n)}, recs...)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return writeBlob(ctx, r.kv, repository.KeyNotifications, recs)
}

func (r *NotificationRepo) RemoveAt(ctx context.Context, index int) error {
	recs, err := r.load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(recs) {
		return domain.ErrNotFound
	}
	recs = append(recs[:index], recs[index+1:]...)
	return writeBlob(ctx, r.kv, repository.KeyNotifications, recs)
}

func (r *NotificationRepo) Clear(ctx context.Context) error {
	return writeBlob(ctx, r.kv, repository.KeyNotifications, []notificationRecord{})
}

// ActivityRepo implementación append-only de ActivityRepository sobre adminActivities.
type ActivityRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewActivityRepository construye el repositorio de actividades.
func NewActivityRepository(kv repository.KeyValueStore, log *logger.Logger) *ActivityRepo {
	return &ActivityRepo{kv: kv, log: log}
}

func (r *ActivityRepo) Append(ctx context.Context, a entity.Activity) error {
	recs, _, err := readBlob[[]activityRecord](ctx, r.kv, repository.KeyAdminActivities, r.log)
	if err != nil {
		return err
	}
	recs = append(recs, activityRecord{Action: a.Action, Username: a.Username, Type: a.Type, Timestamp: a.Timestamp.UTC()})
	return writeBlob(ctx, r.kv, repository.KeyAdminActivities, recs)
}

func (r *ActivityRepo) List(ctx context.Context) ([]entity.Activity, error) {
	recs, _, err := readBlob[[]activityRecord](ctx, r.kv, repository.KeyAdminActivities, r.log)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Activity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entity.Activity{Action: rec.Action, Username: rec.Username, Type: rec.Type, Timestamp: rec.Timestamp})
	}
	return out, nil
}

package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/persistence"
	"github.com/spec-kit/sweet-shop/internal/service"
)

// StartNotificationWorker builds the notification service and subscribes it
// to inventory events. Events go to the redis stream only when redis is up.
func StartNotificationWorker(dispatcher events.Dispatcher, rd *persistence.Redis, stream string, logger *zap.Logger) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}

	var sink service.EventSink
	if rd.Enabled() {
		sink = rd
		logger.Info("forwarding inventory events", zap.String("stream", stream))
	}

	notifications := service.NewNotificationService(dispatcher, logger, sink, stream)
	notifications.RegisterHandlers()
	return notifications
}

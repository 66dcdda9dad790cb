package service

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/metrics"
	"github.com/sliea/antennadesk/internal/models"
)

// Emitter delivers an event to every connection bound to a channel. The
// notification hub implements it; tests substitute a recorder.
type Emitter interface {
	EmitEvent(channel, eventType string, data json.RawMessage) error
}

// dispatch pushes a notification on a best-effort basis. Failures are
// logged and counted, never returned.
func (s *RequestService) dispatch(channel string, n *models.Notification) {
	if s.hub == nil {
		return
	}

	fields := logrus.Fields{
		"channel":    channel,
		"kind":       n.Kind,
		"request_id": n.Request.ID,
	}

	data, err := json.Marshal(n)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "error").Inc()
		s.log.WithError(err).WithFields(fields).Error("encoding notification")

		return
	}

	if err := s.hub.EmitEvent(channel, models.NotificationEvent, data); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
		s.log.WithError(err).WithFields(fields).Warn("notification dispatch failed")

		return
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "sent").Inc()
	s.log.WithFields(fields).Debug("notification dispatched")
}

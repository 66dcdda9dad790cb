package models

import (
	"fmt"
	"time"
)

// NotificationKind identifies a request lifecycle event.
type NotificationKind string

// Notification kinds.
const (
	KindNewRequest          NotificationKind = "new_request"
	KindRequestUpdate       NotificationKind = "request_update"
	KindRequestStatusChange NotificationKind = "request_status_change"
)

// Audience selects the wording of a notification.
type Audience int

// Notification audiences.
const (
	AudienceAdmins Audience = iota
	AudienceClient
)

// RequestSnapshot is the request state carried by a notification.
type RequestSnapshot struct {
	*Request
	PreviousStatus RequestStatus `json:"previous_status,omitempty"`
}

// Notification is an ephemeral event pushed to real-time connections. It is
// never persisted.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Request   RequestSnapshot  `json:"request"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewRequestNotification announces a newly created request to staff.
func NewRequestNotification(req *Request, now time.Time) *Notification {
	return &Notification{
		Kind:      KindNewRequest,
		Message:   "New request: " + req.Type.Label(),
		Request:   RequestSnapshot{Request: req},
		Timestamp: now,
	}
}

// RequestUpdateNotification announces edits to a request.
func RequestUpdateNotification(req *Request, audience Audience, now time.Time) *Notification {
	msg := fmt.Sprintf("Request %s updated", req.ID)
	if audience == AudienceClient {
		msg = "Your request has been updated: " + req.Status.Label()
	}

	return &Notification{
		Kind:      KindRequestUpdate,
		Message:   msg,
		Request:   RequestSnapshot{Request: req},
		Timestamp: now,
	}
}

// StatusChangeNotification announces a status transition.
func StatusChangeNotification(req *Request, previous RequestStatus, audience Audience, now time.Time) *Notification {
	msg := fmt.Sprintf("Request %s status changed to %q", req.ID, req.Status.Label())
	if audience == AudienceClient {
		msg = fmt.Sprintf("Your request status changed from %q to %q", previous.Label(), req.Status.Label())
	}

	return &Notification{
		Kind:      KindRequestStatusChange,
		Message:   msg,
		Request:   RequestSnapshot{Request: req, PreviousStatus: previous},
		Timestamp: now,
	}
}

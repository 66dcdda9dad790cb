package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/sliea/antennadesk/internal/models"
)

// Status machine events.
const (
	eventStart    = "start"
	eventComplete = "complete"
)

// StatusMachine validates request status transitions. The lifecycle only
// moves forward: pending -> in_progress -> completed, with pending ->
// completed allowed directly. Re-applying the current status is accepted
// for open requests so staff can be (re)assigned; completed is terminal.
type StatusMachine struct {
	events  fsm.Events
	eventTo map[models.RequestStatus]string
}

// NewStatusMachine creates the request lifecycle machine.
func NewStatusMachine() *StatusMachine {
	return &StatusMachine{
		events: fsm.Events{
			{
				Name: eventStart,
				Src:  []string{string(models.StatusPending)},
				Dst:  string(models.StatusInProgress),
			},
			{
				Name: eventComplete,
				Src:  []string{string(models.StatusPending), string(models.StatusInProgress)},
				Dst:  string(models.StatusCompleted),
			},
		},
		eventTo: map[models.RequestStatus]string{
			models.StatusInProgress: eventStart,
			models.StatusCompleted:  eventComplete,
		},
	}
}

// Transition checks that a request in status from may move to status to.
// Illegal moves are domain errors; unknown statuses are validation errors.
func (m *StatusMachine) Transition(ctx context.Context, from, to models.RequestStatus) error {
	if !to.Valid() {
		return models.NewValidationError("status must be one of %v, got %q", models.RequestStatuses(), to)
	}

	if from == to {
		if from == models.StatusCompleted {
			return models.NewDomainError("request is already completed")
		}

		return nil
	}

	event, ok := m.eventTo[to]
	if !ok {
		return models.NewDomainError("cannot move request from %s back to %s", from, to)
	}

	machine := fsm.NewFSM(string(from), m.events, fsm.Callbacks{})

	if err := machine.Event(ctx, event); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return models.NewDomainError("cannot move request from %s to %s", from, to)
		}

		return fmt.Errorf("checking transition %s -> %s: %w", from, to, err)
	}

	if machine.Current() != string(to) {
		return fmt.Errorf("transition %s -> %s ended in %s", from, to, machine.Current())
	}

	return nil
}

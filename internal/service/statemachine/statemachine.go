// Package statemachine holds the collection lifecycle rules. A mirror
// row only ever moves forward: once a terminal status is reached no
// webhook, sweep, or batch mutation may move it again.
package statemachine

import (
	"time"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/models"
)

var allowedTransitions = map[consts.CollectionStatus][]consts.CollectionStatus{
	consts.CollectionIssued: {
		consts.CollectionPayable,
		consts.CollectionReceived,
		consts.CollectionOverdue,
		consts.CollectionCanceled,
		consts.CollectionExpired,
	},
	consts.CollectionPayable: {
		consts.CollectionReceived,
		consts.CollectionOverdue,
		consts.CollectionCanceled,
		consts.CollectionExpired,
	},
	consts.CollectionOverdue: {
		consts.CollectionReceived,
		consts.CollectionCanceled,
		consts.CollectionExpired,
	},
	// RECEIVED, CANCELED and EXPIRED are terminal.
	consts.CollectionReceived: {},
	consts.CollectionCanceled: {},
	consts.CollectionExpired:  {},
}

// CanTransition reports whether a collection currently in from may move
// to target.
func CanTransition(from, target consts.CollectionStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from status.
func IsTerminal(status consts.CollectionStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// Validate checks one proposed transition, also rejecting events that
// carry an occurrence time older than the last applied event. Same
// state to same state is allowed through; the caller decides whether it
// is a redelivery or a further payment on an open installment.
func Validate(from, target consts.CollectionStatus, occurredAt, lastEventAt time.Time) error {
	if !occurredAt.IsZero() && !lastEventAt.IsZero() && occurredAt.Before(lastEventAt) {
		return &models.StaleEventError{
			OccurredAt:  occurredAt,
			LastEventAt: lastEventAt,
		}
	}
	if from == target {
		return nil
	}
	if !CanTransition(from, target) {
		return &models.IllegalTransitionError{From: string(from), To: string(target)}
	}
	return nil
}

// FromProviderStatus maps the provider's wire status to the internal
// lifecycle status. The second return is false for unknown values.
func FromProviderStatus(wire string) (consts.CollectionStatus, bool) {
	switch wire {
	case consts.ProviderStatusInProcessing:
		return consts.CollectionIssued, true
	case consts.ProviderStatusPayable:
		return consts.CollectionPayable, true
	case consts.ProviderStatusReceived:
		return consts.CollectionReceived, true
	case consts.ProviderStatusOverdue:
		return consts.CollectionOverdue, true
	case consts.ProviderStatusCanceled:
		return consts.CollectionCanceled, true
	case consts.ProviderStatusExpired:
		return consts.CollectionExpired, true
	default:
		return "", false
	}
}

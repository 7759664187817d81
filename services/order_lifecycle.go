package services

import (
	"github.com/kendall-kelly/home-therapy-api/models"
)

// Action names a lifecycle transition
type Action string

const (
	ActionAccept       Action = "accept"
	ActionStartJourney Action = "start_journey"
	ActionStartService Action = "start_service"
	ActionComplete     Action = "complete"
	ActionCancel       Action = "cancel"
)

type transition struct {
	actor models.Role
	from  []models.OrderStatus
	to    models.OrderStatus
}

// lifecycle is the complete set of allowed status changes. Anything not listed is rejected.
var lifecycle = map[Action]transition{
	ActionAccept: {
		actor: models.RoleTherapist,
		from:  []models.OrderStatus{models.OrderStatusPending},
		to:    models.OrderStatusAccepted,
	},
	ActionStartJourney: {
		actor: models.RoleTherapist,
		from:  []models.OrderStatus{models.OrderStatusAccepted},
		to:    models.OrderStatusOnTheWay,
	},
	ActionStartService: {
		actor: models.RoleTherapist,
		from:  []models.OrderStatus{models.OrderStatusOnTheWay},
		to:    models.OrderStatusInService,
	},
	ActionComplete: {
		actor: models.RoleTherapist,
		from:  []models.OrderStatus{models.OrderStatusInService},
		to:    models.OrderStatusCompleted,
	},
	ActionCancel: {
		actor: models.RoleUser,
		from: []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusAccepted,
			models.OrderStatusOnTheWay,
		},
		to: models.OrderStatusCancelled,
	},
}

// owner maps the caller onto the identity the transition is checked against.
// It returns false when the caller's role cannot perform the action at all.
func (t transition) owner(actor models.Actor) (models.Actor, bool) {
	switch t.actor {
	case models.RoleTherapist:
		if actor.Role != models.RoleTherapist {
			return models.Actor{}, false
		}
		return actor, true
	case models.RoleUser:
		if !actor.IsUser() {
			return models.Actor{}, false
		}
		return models.Actor{ID: actor.ID, Role: models.RoleUser}, true
	}
	return models.Actor{}, false
}

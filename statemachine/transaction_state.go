package statemachine

import (
	"fmt"
	"strings"

	"food-marketplace-api/models"
)

// Actors allowed to move a transaction between states
const (
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.TransactionStatus `json:"from"`
	To    models.TransactionStatus `json:"to"`
	Actor string                   `json:"actor"`
}

// validTransitions is the authoritative ledger state machine
var validTransitions = []Transition{
	// Order orchestrator confirms the payment once an order is created
	{From: models.TxnOpen, To: models.TxnConfirmed, Actor: ActorSystem},
	// Payment can be marked failed before an order consumes it
	{From: models.TxnOpen, To: models.TxnFailed, Actor: ActorSystem},
	{From: models.TxnOpen, To: models.TxnFailed, Actor: ActorAdmin},
	// Admin can reopen a failed payment (cash collected after all)
	{From: models.TxnFailed, To: models.TxnOpen, Actor: ActorAdmin},
}

type transitionKey struct {
	From  models.TransactionStatus
	To    models.TransactionStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// Normalize maps a stored status onto its canonical upper-case form
func Normalize(status models.TransactionStatus) models.TransactionStatus {
	return models.TransactionStatus(strings.ToUpper(strings.TrimSpace(string(status))))
}

// IsFailed compares case-insensitively; legacy rows may carry "failed"
func IsFailed(status models.TransactionStatus) bool {
	return Normalize(status) == models.TxnFailed
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.TransactionStatus) []models.TransactionStatus {
	status = Normalize(status)
	var nexts []models.TransactionStatus
	seen := map[models.TransactionStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.TransactionStatus, actor string) error {
	key := transitionKey{From: Normalize(from), To: Normalize(to), Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.TransactionStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

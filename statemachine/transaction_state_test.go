package statemachine

import (
	"testing"

	"food-marketplace-api/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.TransactionStatus
		to      models.TransactionStatus
		actor   string
		wantErr bool
	}{
		{"system confirms open", models.TxnOpen, models.TxnConfirmed, ActorSystem, false},
		{"admin fails open", models.TxnOpen, models.TxnFailed, ActorAdmin, false},
		{"admin cannot confirm", models.TxnOpen, models.TxnConfirmed, ActorAdmin, true},
		{"confirmed is terminal", models.TxnConfirmed, models.TxnFailed, ActorAdmin, true},
		{"lower-case source", "open", models.TxnConfirmed, ActorSystem, false},
		{"reopen failed", models.TxnFailed, models.TxnOpen, ActorAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanTransition() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsFailed(t *testing.T) {
	for _, s := range []models.TransactionStatus{"FAILED", "failed", " Failed "} {
		if !IsFailed(s) {
			t.Errorf("expected %q to be failed", s)
		}
	}
	for _, s := range []models.TransactionStatus{"OPEN", "CONFIRMED", " CONFIRMED", "PENDING"} {
		if IsFailed(s) {
			t.Errorf("expected %q not to be failed", s)
		}
	}
}

func TestValidTransitionsFromTerminal(t *testing.T) {
	if got := ValidTransitionsFrom(models.TxnConfirmed); len(got) != 0 {
		t.Fatalf("expected no transitions from CONFIRMED, got %v", got)
	}
	if got := ValidTransitionsFrom(models.TxnOpen); len(got) != 2 {
		t.Fatalf("expected two next states from OPEN, got %v", got)
	}
}

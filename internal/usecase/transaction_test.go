package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionRunsInOrder(t *testing.T) {
	var order []string

	txn := NewTransaction()
	txn.AddOperation("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	txn.AddOperation("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	err := txn.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestTransactionRollsBackCompletedSteps(t *testing.T) {
	var compensated []string

	txn := NewTransaction()
	txn.AddOperation("a", func(ctx context.Context) error { return nil })
	txn.AddCompensation("undo_a", func(ctx context.Context) error {
		compensated = append(compensated, "undo_a")
		return nil
	})
	txn.AddOperation("b", func(ctx context.Context) error { return nil })
	txn.AddCompensation("undo_b", func(ctx context.Context) error {
		compensated = append(compensated, "undo_b")
		return nil
	})
	txn.AddOperation("c", func(ctx context.Context) error { return errors.New("boom") })

	err := txn.Execute(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []string{"undo_b", "undo_a"}, compensated, "compensations run in reverse order")
}

func TestTransactionFailedStepNotCompensated(t *testing.T) {
	var compensated []string

	txn := NewTransaction()
	txn.AddOperation("a", func(ctx context.Context) error { return errors.New("boom") })
	txn.AddCompensation("undo_a", func(ctx context.Context) error {
		compensated = append(compensated, "undo_a")
		return nil
	})

	err := txn.Execute(context.Background())

	assert.Error(t, err)
	assert.Empty(t, compensated, "the failing step itself is never compensated")
}

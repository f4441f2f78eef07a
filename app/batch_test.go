package app

import (
	"context"
	"errors"
	"testing"

	"gosynergy/domain/core"
)

func TestBatchRunner_RunAll(t *testing.T) {
	svc := testService(t)

	ids := make([]core.ExperimentID, 0, 3)
	for i := 0; i < 3; i++ {
		exp, err := svc.CreateExperiment(testMeta())
		if err != nil {
			t.Fatalf("CreateExperiment: %v", err)
		}
		addConditions(t, svc, exp.ID)
		ids = append(ids, exp.ID)
	}
	ids = append(ids, "missing")

	runner := NewBatchRunner(svc, 2, nil)
	outcomes := runner.RunAll(context.Background(), ids)

	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	for i := 0; i < 3; i++ {
		if outcomes[i].ExperimentID != ids[i] {
			t.Errorf("outcome %d is for %s, want input order preserved", i, outcomes[i].ExperimentID)
		}
		if outcomes[i].Err != nil {
			t.Errorf("outcome %d failed: %v", i, outcomes[i].Err)
		}
		if outcomes[i].Result == nil {
			t.Errorf("outcome %d has no result", i)
		}
	}
	if !errors.Is(outcomes[3].Err, core.ErrExperimentNotFound) {
		t.Errorf("missing experiment: got %v, want ErrExperimentNotFound", outcomes[3].Err)
	}
}

func TestBatchRunner_CancelledContext(t *testing.T) {
	svc := testService(t)
	exp, err := svc.CreateExperiment(testMeta())
	if err != nil {
		t.Fatalf("CreateExperiment: %v", err)
	}
	addConditions(t, svc, exp.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewBatchRunner(svc, 1, nil)
	outcomes := runner.RunAll(ctx, []core.ExperimentID{exp.ID})

	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Err == nil {
		t.Error("cancelled context should surface as an error")
	}
}

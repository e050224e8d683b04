package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/repository/memory"
	"github.com/secmon-lab/riskassess/pkg/service/worker"
	"github.com/secmon-lab/riskassess/pkg/usecase"
)

type mockReclassifier struct {
	mu     sync.Mutex
	calls  int
	result error
}

func (m *mockReclassifier) ReclassifyAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.calls, m.result
}

func (m *mockReclassifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestReclassifyWorker_RunsImmediatelyAndPeriodically(t *testing.T) {
	mock := &mockReclassifier{}
	w := worker.NewReclassifyWorker(mock, 10*time.Millisecond)

	gt.NoError(t, w.Start(context.Background())).Required()
	waitFor(t, func() bool { return mock.callCount() >= 3 })
	w.Stop()

	stopped := mock.callCount()
	time.Sleep(30 * time.Millisecond)
	gt.V(t, mock.callCount()).Equal(stopped)
}

func TestReclassifyWorker_ContinuesAfterFailure(t *testing.T) {
	mock := &mockReclassifier{result: errors.New("firestore unavailable")}
	w := worker.NewReclassifyWorker(mock, 10*time.Millisecond)

	gt.NoError(t, w.Start(context.Background())).Required()
	waitFor(t, func() bool { return mock.callCount() >= 2 })
	w.Stop()
}

func TestReclassifyWorker_StopsOnContextCancel(t *testing.T) {
	mock := &mockReclassifier{}
	w := worker.NewReclassifyWorker(mock, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	gt.NoError(t, w.Start(ctx)).Required()
	waitFor(t, func() bool { return mock.callCount() == 1 })
	cancel()
	w.Stop()
}

func TestReclassifyWorker_InvalidInterval(t *testing.T) {
	w := worker.NewReclassifyWorker(&mockReclassifier{}, 0)
	gt.V(t, w.Start(context.Background())).NotNil()
}

func TestReclassifyWorker_UpdatesStoredRatings(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)

	_, err := repo.Risk().Put(ctx, &model.Risk{
		ID:                 "RSK-001",
		Title:              "Stale rating",
		Status:             types.RiskStatusCompleted,
		AssessmentStatus:   types.AssessmentStatusAssessed,
		InherentRiskRating: 60,
		RiskRating:         "Low Risk",
		ResidualRiskRating: 60,
		ResidualRating:     "Low Risk",
	})
	gt.NoError(t, err).Required()

	w := worker.NewReclassifyWorker(uc.Scoring, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()
	waitFor(t, func() bool {
		risk, err := repo.Risk().Get(ctx, "RSK-001")
		return err == nil && risk.RiskRating == "Very High"
	})
	w.Stop()
}

package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/data/repos/testutil"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
)

func TestJobRunRepoClaimOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()

	queued := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-3 * time.Hour),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	failed := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "failed",
		Stage:       "failed",
		Attempts:    1,
		LastErrorAt: testutil.PtrTime(now.Add(-2 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	staleRunning := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "running",
		Stage:       "running",
		Attempts:    1,
		HeartbeatAt: testutil.PtrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}

	created, err := repo.Create(dbc, []*types.JobRun{queued, failed, staleRunning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	claim1, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #1: %v", err)
	}
	if claim1 == nil || claim1.ID != queued.ID {
		t.Fatalf("ClaimNextRunnable #1: expected %v got %v", queued.ID, claim1)
	}

	claim2, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #2: %v", err)
	}
	if claim2 == nil || claim2.ID != failed.ID {
		t.Fatalf("ClaimNextRunnable #2: expected %v got %v", failed.ID, claim2)
	}

	claim3, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #3: %v", err)
	}
	if claim3 == nil || claim3.ID != staleRunning.ID {
		t.Fatalf("ClaimNextRunnable #3: expected %v got %v", staleRunning.ID, claim3)
	}

	claim4, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #4: %v", err)
	}
	if claim4 != nil {
		t.Fatalf("ClaimNextRunnable #4: expected nil, got %v", claim4)
	}
}

func TestJobRunRepoBackoffWindow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()

	// Failed 1s ago with a 1h backoff base: not yet retryable.
	recent := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     "test_job",
		Status:      "failed",
		Stage:       "failed",
		Attempts:    1,
		LastErrorAt: testutil.PtrTime(now.Add(-1 * time.Second)),
		Payload:     datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{recent}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected backoff to defer retry, claimed %v", claimed.ID)
	}

	if err := repo.UpdateFields(dbc, recent.ID, map[string]interface{}{"status": "succeeded", "stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	// A job that exhausted its attempts never comes back.
	exhausted := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     "test_job",
		Status:      "failed",
		Stage:       "failed",
		Attempts:    3,
		LastErrorAt: testutil.PtrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{exhausted}); err != nil {
		t.Fatalf("Create exhausted: %v", err)
	}

	claimed, err = repo.ClaimNextRunnable(dbc, 3, 1*time.Second, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable exhausted: %v", err)
	}
	if claimed != nil {
		t.Fatalf("claimed a job with no attempts left: %v", claimed.ID)
	}
}

func TestJobRunRepoSequenceGating(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()
	key := "session:" + uuid.NewString()

	first := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "queued",
		Stage:       "queued",
		SequenceKey: key,
		SequenceIdx: 0,
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-3 * time.Minute),
		UpdatedAt:   now.Add(-3 * time.Minute),
	}
	second := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "queued",
		Stage:       "queued",
		SequenceKey: key,
		SequenceIdx: 1,
		Payload:     datatypes.JSON([]byte("{}")),
		// Older created_at than first: sequence_idx must still win.
		CreatedAt: now.Add(-4 * time.Minute),
		UpdatedAt: now.Add(-4 * time.Minute),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{first, second}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claim1, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #1: %v", err)
	}
	if claim1 == nil || claim1.ID != first.ID {
		t.Fatalf("ClaimNextRunnable #1: expected idx 0 job %v, got %v", first.ID, claim1)
	}

	// While idx 0 is running with a fresh heartbeat the partition is closed.
	claim2, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #2: %v", err)
	}
	if claim2 != nil {
		t.Fatalf("ClaimNextRunnable #2: expected partition to block, got %v", claim2.ID)
	}

	if err := repo.UpdateFields(dbc, first.ID, map[string]interface{}{"status": "succeeded", "stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	claim3, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #3: %v", err)
	}
	if claim3 == nil || claim3.ID != second.ID {
		t.Fatalf("ClaimNextRunnable #3: expected idx 1 job %v, got %v", second.ID, claim3)
	}

	next, err := repo.NextSequenceIdx(dbc, key)
	if err != nil {
		t.Fatalf("NextSequenceIdx: %v", err)
	}
	if next != 2 {
		t.Fatalf("NextSequenceIdx: expected 2, got %d", next)
	}
}

func TestJobRunRepoSequenceReclaimsStaleRun(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()
	key := "session:" + uuid.NewString()

	// A worker died mid-run on idx 3: the row is still running but its
	// heartbeat is hours old. Idx 4 is queued behind it.
	orphaned := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "running",
		Stage:       "analyze",
		Attempts:    1,
		SequenceKey: key,
		SequenceIdx: 3,
		HeartbeatAt: testutil.PtrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-10 * time.Hour),
		UpdatedAt:   now.Add(-10 * time.Hour),
	}
	queued := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "queued",
		Stage:       "queued",
		SequenceKey: key,
		SequenceIdx: 4,
		Payload:     datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-9 * time.Hour),
		UpdatedAt:   now.Add(-9 * time.Hour),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{orphaned, queued}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The orphaned job must be re-claimed first; the queued later turn
	// stays parked behind it.
	claim1, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #1: %v", err)
	}
	if claim1 == nil || claim1.ID != orphaned.ID {
		t.Fatalf("ClaimNextRunnable #1: expected orphaned idx 3 job %v, got %v", orphaned.ID, claim1)
	}

	claim2, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #2: %v", err)
	}
	if claim2 != nil {
		t.Fatalf("ClaimNextRunnable #2: expected partition to block, got %v", claim2.ID)
	}

	if err := repo.UpdateFields(dbc, orphaned.ID, map[string]interface{}{"status": "succeeded", "stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	claim3, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Minute, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #3: %v", err)
	}
	if claim3 == nil || claim3.ID != queued.ID {
		t.Fatalf("ClaimNextRunnable #3: expected idx 4 job %v, got %v", queued.ID, claim3)
	}
}

func TestJobRunRepoCreateDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	id := uuid.New()
	mk := func() *types.JobRun {
		return &types.JobRun{
			ID:          id,
			OwnerUserID: uuid.New(),
			JobType:     "test_job",
			Status:      "queued",
			Stage:       "queued",
			Payload:     datatypes.JSON([]byte("{}")),
		}
	}

	inserted, err := repo.CreateDedup(dbc, mk())
	if err != nil {
		t.Fatalf("CreateDedup #1: %v", err)
	}
	if !inserted {
		t.Fatalf("CreateDedup #1: expected insert")
	}

	inserted, err = repo.CreateDedup(dbc, mk())
	if err != nil {
		t.Fatalf("CreateDedup #2: %v", err)
	}
	if inserted {
		t.Fatalf("CreateDedup #2: expected duplicate to be dropped")
	}
}

func TestJobRunRepoUpdateFieldsUnlessStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	canceled := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     "test_job",
		Status:      "canceled",
		Stage:       "canceled",
		Payload:     datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{canceled}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.UpdateFieldsUnlessStatus(dbc, canceled.ID, []string{"canceled"}, map[string]interface{}{"progress": 50})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if updated {
		t.Fatalf("expected canceled job to reject the update")
	}
}

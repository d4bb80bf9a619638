package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
)

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    chat.SessionInProgress,
		MoodState: analysis.MoodNeutral,
		Evidence:  datatypes.NewJSONType(analysis.EvidenceMap{}),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, turnIndex int, role, content string) *types.Message {
	tb.Helper()
	m := &types.Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		TurnIndex: turnIndex,
		Role:      role,
		Content:   content,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}

func SeedHook(tb testing.TB, ctx context.Context, tx *gorm.DB, code string, priority int, cond analysis.HookCondition) *types.Hook {
	tb.Helper()
	h := &types.Hook{
		ID:              uuid.New(),
		Code:            code,
		Title:           code,
		IsEnabled:       true,
		Priority:        priority,
		Condition:       datatypes.NewJSONType(cond),
		EvidenceCluster: analysis.ClusterDefault,
		EvidenceWeight:  1,
	}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed hook: %v", err)
	}
	return h
}

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, jobType, status, sequenceKey string, sequenceIdx int) *types.JobRun {
	tb.Helper()
	j := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		Status:      status,
		Stage:       "queued",
		SequenceKey: sequenceKey,
		SequenceIdx: sequenceIdx,
		Payload:     datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrFloat(v float64) *float64 { return &v }

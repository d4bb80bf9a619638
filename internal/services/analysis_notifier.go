package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/sse"
)

// AnalysisNotifier pushes per-message analysis results and end-of-session
// artifacts to the message owner as they land.
type AnalysisNotifier interface {
	MessageAnalyzed(userID uuid.UUID, msg *types.Message)
	MoodChanged(userID uuid.UUID, sessionID uuid.UUID, previous, current string)
	SessionFinalized(userID uuid.UUID, session *types.Session)
	InsightReady(userID uuid.UUID, insight *types.SessionInsight)
}

type analysisNotifier struct {
	emit SSEEmitter
}

func NewAnalysisNotifier(emit SSEEmitter) AnalysisNotifier {
	return &analysisNotifier{emit: emit}
}

func (n *analysisNotifier) MessageAnalyzed(userID uuid.UUID, msg *types.Message) {
	if n == nil || n.emit == nil || userID == uuid.Nil || msg == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventMessageAnalyzed,
		Data: map[string]any{
			"session_id": msg.SessionID,
			"message":    msg,
		},
	})
}

func (n *analysisNotifier) MoodChanged(userID uuid.UUID, sessionID uuid.UUID, previous, current string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventSessionMoodChanged,
		Data: map[string]any{
			"session_id": sessionID,
			"previous":   previous,
			"current":    current,
		},
	})
}

func (n *analysisNotifier) SessionFinalized(userID uuid.UUID, session *types.Session) {
	if n == nil || n.emit == nil || userID == uuid.Nil || session == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventSessionFinalized,
		Data: map[string]any{
			"session_id": session.ID,
			"end_reason": session.EndReason,
		},
	})
}

func (n *analysisNotifier) InsightReady(userID uuid.UUID, insight *types.SessionInsight) {
	if n == nil || n.emit == nil || userID == uuid.Nil || insight == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventSessionInsightReady,
		Data: map[string]any{
			"session_id": insight.SessionID,
			"insight":    insight,
		},
	})
}

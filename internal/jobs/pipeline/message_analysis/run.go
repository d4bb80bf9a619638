package message_analysis

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/veloria/rapport-backend/internal/jobs/runtime"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.db == nil || p.analysis == nil {
		jc.Fail("validate", fmt.Errorf("message_analysis: pipeline not configured"))
		return nil
	}

	sessionID, ok := jc.PayloadUUID("session_id")
	if !ok || sessionID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing session_id"))
		return nil
	}
	messageID, ok := jc.PayloadUUID("message_id")
	if !ok || messageID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing message_id"))
		return nil
	}
	turnIndex, ok := jc.PayloadInt("turn_index")
	if !ok || turnIndex < 0 {
		jc.Fail("validate", fmt.Errorf("missing or invalid turn_index"))
		return nil
	}

	jc.Progress("analyze", 10, "Analyzing message")

	out, err := p.analysis.AnalyzeMessage(dbctx.Context{Ctx: jc.Ctx}, sessionID, messageID, turnIndex)
	if err != nil {
		jc.Fail("analyze", err)
		return nil
	}
	if out.Skipped {
		p.log.Info("Message analysis skipped", "session_id", sessionID, "turn_index", turnIndex, "reason", out.SkipReason)
		jc.Succeed("skipped", map[string]any{"skipped": true, "reason": out.SkipReason})
		return nil
	}

	jc.Succeed("done", map[string]any{
		"session_id":  sessionID,
		"message_id":  messageID,
		"turn_index":  turnIndex,
		"score":       out.Message.Score,
		"label":       out.Message.Label,
		"mood_before": out.MoodBefore,
		"mood_after":  out.MoodAfter,
		"fired_hooks": out.FiredHooks,
	})
	return nil
}

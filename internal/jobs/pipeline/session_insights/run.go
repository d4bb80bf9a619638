package session_insights

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
		jc.Fail("validate", fmt.Errorf("session_insights: pipeline not configured"))
		return nil
	}

	sessionID, ok := jc.PayloadUUID("session_id")
	if !ok || sessionID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing session_id"))
		return nil
	}

	jc.Progress("gates", 20, "Evaluating session gates")

	out, err := p.analysis.BuildSessionInsights(dbctx.Context{Ctx: jc.Ctx}, sessionID)
	if err != nil {
		jc.Fail("build", err)
		return nil
	}
	if out.Skipped {
		p.log.Info("Session insights skipped", "session_id", sessionID, "reason", out.SkipReason)
		jc.Succeed("skipped", map[string]any{"skipped": true, "reason": out.SkipReason})
		return nil
	}

	jc.Succeed("done", map[string]any{
		"session_id":   sessionID,
		"final_status": out.FinalStatus,
		"insight_id":   out.Insight.ID,
	})
	return nil
}

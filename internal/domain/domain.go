package domain

import (
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
	"github.com/veloria/rapport-backend/internal/domain/config"
	"github.com/veloria/rapport-backend/internal/domain/jobs"
)

type Session = chat.Session
type SessionPayload = chat.SessionPayload
type Message = chat.Message

type TraitVector = analysis.TraitVector
type EvidenceMap = analysis.EvidenceMap
type Hook = analysis.Hook
type HookCondition = analysis.HookCondition
type HookTrigger = analysis.HookTrigger
type GateOutcome = analysis.GateOutcome
type GateContext = analysis.GateContext
type TraitHistory = analysis.TraitHistory
type TraitLongTermScore = analysis.TraitLongTermScore
type SessionInsight = analysis.SessionInsight
type InsightPayload = analysis.InsightPayload

type AppConfig = config.AppConfig
type ConfigDocument = config.Document
type ScoringProfile = config.ScoringProfile

type JobRun = jobs.JobRun

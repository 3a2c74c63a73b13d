package services

import "context"

// DetectionFeed receives detection outcomes for live observers (dashboard
// WebSocket clients). Publishing is fire-and-forget: feed failures never
// affect the ledger's state or the caller's result.
type DetectionFeed interface {
	PublishDetection(ctx context.Context, result DetectionResult)
}

package redis

import (
	"context"
	"encoding/json"

	"safesight/domain/services"
	"safesight/pkg/logger"
)

// DetectionChannel mirrors the channel the WebSocket manager subscribes to.
const DetectionChannel = "safesight:detections"

// DetectionFeedPublisher pushes detection outcomes onto the Redis live feed.
type DetectionFeedPublisher struct {
	client *RedisClient
}

func NewDetectionFeedPublisher(client *RedisClient) services.DetectionFeed {
	return &DetectionFeedPublisher{client: client}
}

func (p *DetectionFeedPublisher) PublishDetection(ctx context.Context, result services.DetectionResult) {
	payload, err := json.Marshal(map[string]interface{}{
		"outcome":        string(result.Outcome),
		"identity_code":  result.IdentityCode,
		"day":            result.Day,
		"marked_present": result.MarkedPresent,
	})
	if err != nil {
		return
	}

	if err := p.client.Publish(ctx, DetectionChannel, payload); err != nil {
		// Live feed is best effort; the ledger result already happened.
		logger.WebSocketError("publish_failed", "Failed to publish detection to feed", err, nil)
	}
}

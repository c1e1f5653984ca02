package alerts

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
)

// SlackAlerter posts operational anomalies to a Slack webhook. All
// notifications are fire-and-forget: posting happens on a goroutine and
// failures are logged, never propagated to the pipeline.
type SlackAlerter struct {
	config *common.AlertsConfig
	logger arbor.ILogger
}

// NewSlackAlerter creates the alerter. An empty webhook URL yields a
// disabled alerter that silently swallows every call.
func NewSlackAlerter(cfg *common.AlertsConfig, logger arbor.ILogger) *SlackAlerter {
	if cfg.WebhookURL == "" {
		logger.Debug().Msg("Slack alerting disabled (no webhook URL configured)")
	}
	return &SlackAlerter{
		config: cfg,
		logger: logger,
	}
}

var _ interfaces.Alerter = (*SlackAlerter)(nil)

// MatchVolume alerts on suspiciously small or large match counts.
func (a *SlackAlerter) MatchVolume(jobID string, resultsCount, aboveThreshold int) {
	if resultsCount < a.config.LowResultCount {
		a.post(fmt.Sprintf(":warning: Low match volume for job `%s`: %d candidates scored", jobID, resultsCount))
		return
	}
	if aboveThreshold > a.config.HighAboveThreshold {
		a.post(fmt.Sprintf(":warning: High match volume for job `%s`: %d candidates above threshold", jobID, aboveThreshold))
	}
}

// MissingVectors alerts when a large share of a candidate pool has no
// task vector. Small pools are skipped to avoid noise.
func (a *SlackAlerter) MissingVectors(jobID string, missing, pool int) {
	if pool < a.config.MissingVectorMinPool || pool == 0 {
		return
	}
	rate := float64(missing) / float64(pool)
	if rate >= a.config.MissingVectorRate {
		a.post(fmt.Sprintf(":rotating_light: Missing task vectors for job `%s`: %d of %d candidates (%.0f%%)",
			jobID, missing, pool, rate*100))
	}
}

// LowConfidence alerts on classifications below the confidence floor.
func (a *SlackAlerter) LowConfidence(entityID string, confidence float64) {
	if confidence < a.config.MinConfidence {
		a.post(fmt.Sprintf(":grey_question: Low classification confidence for `%s`: %.2f", entityID, confidence))
	}
}

// PendingBacklog alerts when qualified-but-unnotified rows accumulate.
func (a *SlackAlerter) PendingBacklog(jobID string, pending int) {
	if pending > 0 {
		a.post(fmt.Sprintf(":hourglass: Pending notification backlog for job `%s`: %d qualified users never notified", jobID, pending))
	}
}

func (a *SlackAlerter) post(text string) {
	if a.config.WebhookURL == "" {
		return
	}

	msg := &slack.WebhookMessage{
		Text:    text,
		Channel: a.config.Channel,
	}

	common.SafeGo(a.logger, "slackAlert", func() {
		if err := slack.PostWebhook(a.config.WebhookURL, msg); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to post Slack alert")
		}
	})
}

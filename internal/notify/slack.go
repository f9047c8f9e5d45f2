// Package notify pushes freshly created critical alerts to Slack. It is an
// optional outbound channel: posting failures are logged and never propagate
// into the scan.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/devdeck/devdeck/internal/alerting"
	"github.com/devdeck/devdeck/internal/model"
)

// SlackAPI abstracts the Slack API client for testing.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts new critical alerts to a configured Slack channel.
type Notifier struct {
	api     SlackAPI
	channel string
	logger  zerolog.Logger
}

// New creates a Notifier from a bot token and target channel.
func New(botToken, channel string, logger zerolog.Logger) *Notifier {
	return NewWithAPI(slack.New(botToken), channel, logger)
}

// NewWithAPI creates a Notifier over an existing API client.
func NewWithAPI(api SlackAPI, channel string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		api:     api,
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// NotifyNewAlerts posts the critical alerts among the batch. Best effort:
// each post failure is logged and the rest of the batch still goes out.
func (n *Notifier) NotifyNewAlerts(ctx context.Context, created []alerting.Candidate) {
	for _, c := range created {
		if c.Level != model.LevelCritical {
			continue
		}
		blocks := alertBlocks(c)
		if _, _, err := n.api.PostMessageContext(ctx, n.channel,
			slack.MsgOptionBlocks(blocks...),
			slack.MsgOptionText(c.Title, false),
		); err != nil {
			n.logger.Warn().Err(err).Str("category", string(c.Category)).Msg("failed to post alert to Slack")
			continue
		}
		n.logger.Info().Str("category", string(c.Category)).Msg("posted critical alert to Slack")
	}
}

func alertBlocks(c alerting.Candidate) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, ":rotating_light: "+c.Title, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, c.Message, false, false), nil, nil),
	}
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Category:*\n%s", c.Category), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Level:*\n%s", c.Level), false, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	if c.Action != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, "Suggested: "+c.Action, false, false)))
	}
	return blocks
}

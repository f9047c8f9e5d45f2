package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"

	"github.com/devdeck/devdeck/internal/alerting"
	"github.com/devdeck/devdeck/internal/model"
)

type fakeSlack struct {
	posts []string
	err   error
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.posts = append(f.posts, channelID)
	return channelID, "123.456", nil
}

func candidate(level model.AlertLevel) alerting.Candidate {
	return alerting.Candidate{
		Level:    level,
		Category: model.CategoryDeployFailed,
		Title:    "Deployment failing: demo",
		Message:  "The live deployment for demo is not responding.",
		Action:   "Check the deployment logs and roll back if needed",
	}
}

func TestNotifyNewAlerts_OnlyCriticals(t *testing.T) {
	api := &fakeSlack{}
	n := NewWithAPI(api, "#alerts", zerolog.Nop())

	n.NotifyNewAlerts(context.Background(), []alerting.Candidate{
		candidate(model.LevelInfo),
		candidate(model.LevelWarning),
		candidate(model.LevelCritical),
		candidate(model.LevelCritical),
	})

	assert.Equal(t, []string{"#alerts", "#alerts"}, api.posts)
}

func TestNotifyNewAlerts_PostFailureIsSwallowed(t *testing.T) {
	api := &fakeSlack{err: errors.New("channel_not_found")}
	n := NewWithAPI(api, "#alerts", zerolog.Nop())

	// Must not panic or propagate.
	n.NotifyNewAlerts(context.Background(), []alerting.Candidate{candidate(model.LevelCritical)})
	assert.Empty(t, api.posts)
}

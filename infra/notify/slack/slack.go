// Package slack delivers queue and charger notifications to a Slack
// incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chargeq/chargeq/core/notify"
)

const defaultTimeout = 5 * time.Second

// Notifier posts Block Kit messages to a Slack incoming webhook. A zero
// webhook URL disables delivery so the orchestrator can always hold a
// non-nil notifier.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Notifier for the given webhook URL. An empty URL yields a
// disabled notifier.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type block struct {
	Type   string      `json:"type"`
	Text   *blockText  `json:"text,omitempty"`
	Fields []blockText `json:"fields,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks,omitempty"`
}

func section(md string) block {
	return block{Type: "section", Text: &blockText{Type: "mrkdwn", Text: md}}
}

func fields(md ...string) block {
	b := block{Type: "section"}
	for _, f := range md {
		b.Fields = append(b.Fields, blockText{Type: "mrkdwn", Text: f})
	}
	return b
}

func (n *Notifier) post(ctx context.Context, p payload) error {
	if !n.Enabled() {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned %s", resp.Status)
	}
	return nil
}

func (n *Notifier) NotifyChargerJoin(ctx context.Context, ev notify.ChargerJoin) error {
	headline := fmt.Sprintf("%s plugged in at %s", ev.Requester.DisplayName, ev.SlotName)
	if ev.Promoted {
		headline = fmt.Sprintf("%s moved up from the queue to %s", ev.Requester.DisplayName, ev.SlotName)
	}
	return n.post(ctx, payload{
		Text: headline,
		Blocks: []block{
			section(":zap: " + headline),
			fields(
				fmt.Sprintf("*Charge:* %.0f%% → %.0f%%", ev.StartPercent, ev.TargetPercent),
				fmt.Sprintf("*Done around:* %s", ev.EstimatedEndAt.Format("15:04")),
			),
		},
	})
}

func (n *Notifier) NotifyChargerLeave(ctx context.Context, ev notify.ChargerLeave) error {
	outcome := fmt.Sprintf("stopped at %.0f%% (target was %.0f%%)", ev.FinalPercent, ev.TargetPercent)
	if ev.ReachedTarget {
		outcome = fmt.Sprintf("reached %.0f%%", ev.TargetPercent)
	}
	headline := fmt.Sprintf("%s left %s, %s", ev.Requester.DisplayName, ev.SlotName, outcome)
	return n.post(ctx, payload{
		Text:   headline,
		Blocks: []block{section(":electric_plug: " + headline)},
	})
}

func (n *Notifier) NotifyQueueJoin(ctx context.Context, ev notify.QueueJoin) error {
	headline := fmt.Sprintf("%s joined the queue at position %d", ev.Requester.DisplayName, ev.Position)
	return n.post(ctx, payload{
		Text: headline,
		Blocks: []block{
			section(":hourglass: " + headline),
			fields(fmt.Sprintf("*Wants:* %.0f%% → %.0f%%", ev.StartPercent, ev.TargetPercent)),
		},
	})
}

func (n *Notifier) NotifyQueueLeave(ctx context.Context, ev notify.QueueLeave) error {
	var headline string
	switch ev.Reason {
	case notify.ReasonMovedToCharger:
		headline = fmt.Sprintf("%s left the queue for a charger", ev.Requester.DisplayName)
	default:
		headline = fmt.Sprintf("%s left the queue (was position %d)", ev.Requester.DisplayName, ev.Position)
	}
	return n.post(ctx, payload{
		Text:   headline,
		Blocks: []block{section(":wave: " + headline)},
	})
}

func (n *Notifier) NotifyQueueEmpty(ctx context.Context, ev notify.QueueEmpty) error {
	headline := "The charging queue is empty"
	return n.post(ctx, payload{
		Text:   headline,
		Blocks: []block{section(":white_check_mark: " + headline)},
	})
}

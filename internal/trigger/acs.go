package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ACS posts a prompt built from the ingested entry to the external
// agent-execution service's job-trigger endpoint. It never surfaces an
// error to its caller; any failure is logged and reported as false.
type ACS struct {
	client  *resty.Client
	jobName string
}

// NewACS builds a Trigger pointed at baseURL/api/jobs/<jobName>/trigger,
// the teacher's resty client configuration (JSON headers, bounded
// timeout left to the caller-supplied context).
func NewACS(baseURL, jobName string) *ACS {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ACS{client: client, jobName: jobName}
}

type triggerBody struct {
	Args string `json:"args"`
}

// Invoke builds the single-line prompt spec.md §4.7 defines, escapes
// inner double-quotes, and POSTs it to the job-trigger endpoint.
func (a *ACS) Invoke(ctx context.Context, selfURL string, platform, platformChatID string, inReplyTo int64, text string) bool {
	escaped := strings.ReplaceAll(text, `"`, `\"`)
	prompt := fmt.Sprintf("[ROUTER=%s] [PLATFORM=%s] [CHAT_ID=%s] [IN_REPLY_TO=%s] User message: %s",
		selfURL, platform, platformChatID, strconv.FormatInt(inReplyTo, 10), escaped)

	body := triggerBody{Args: fmt.Sprintf(`-p "%s"`, prompt)}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/api/jobs/%s/trigger", a.jobName))
	if err != nil {
		slog.Error("external trigger request failed", "job", a.jobName, "error", err)
		return false
	}
	if resp.IsError() {
		slog.Error("external trigger returned non-2xx", "job", a.jobName, "status", resp.StatusCode())
		return false
	}
	return true
}

var _ Trigger = (*ACS)(nil)

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"studybrain/internal/config"
	"studybrain/pkg/types"
)

// Client is the typed REST client for the StudyBrain backend. One request,
// one outcome: no retry, no caching, no circuit breaking. Parallel
// independent calls go through FanOut so one failure never aborts siblings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.APIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// errorBody is the shape the backend uses for failures. Some endpoints say
// "error", some say "message"; both are accepted.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// do issues one request and decodes the response into out (if non-nil).
// Non-2xx responses become a *Error carrying status, code and message.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			if eb.Error != "" {
				apiErr.Message = eb.Error
			} else if eb.Message != "" {
				apiErr.Message = eb.Message
			}
			apiErr.Code = eb.Code
		}
		c.logger.Debug("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// GetGroup fetches a group fresh as seen by userID.
func (c *Client) GetGroup(ctx context.Context, groupID, userID string) (*types.Group, error) {
	path := fmt.Sprintf("/study-groups/%s?userId=%s", url.PathEscape(groupID), url.QueryEscape(userID))
	var group types.Group
	if err := c.do(ctx, http.MethodGet, path, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

type joinRequestBody struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// JoinGroup asks to join a group directly, or files a join request for
// invite-only groups. An "already a member" response is a success variant.
func (c *Client) JoinGroup(ctx context.Context, groupID, userID, userName string) (*types.JoinResult, error) {
	path := fmt.Sprintf("/study-groups/%s/join", url.PathEscape(groupID))
	var result types.JoinResult
	if err := c.do(ctx, http.MethodPost, path, &joinRequestBody{UserID: userID, UserName: userName}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JoinByInviteToken redeems an invite token for membership.
func (c *Client) JoinByInviteToken(ctx context.Context, token, userID, userName string) (*types.JoinResult, error) {
	path := fmt.Sprintf("/study-groups/join/%s", url.PathEscape(token))
	var result types.JoinResult
	if err := c.do(ctx, http.MethodPost, path, &joinRequestBody{UserID: userID, UserName: userName}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LeaveGroup removes the user from the group.
func (c *Client) LeaveGroup(ctx context.Context, groupID, userID string) error {
	path := fmt.Sprintf("/study-groups/%s/leave", url.PathEscape(groupID))
	body := struct {
		UserID string `json:"userId"`
	}{UserID: userID}
	return c.do(ctx, http.MethodPost, path, &body, nil)
}

// ManageJoinRequest approves or rejects a pending join request. The server
// enforces the admin/moderator restriction.
func (c *Client) ManageJoinRequest(ctx context.Context, groupID, requestUserID, action string) error {
	if action != types.RequestApprove && action != types.RequestReject {
		return fmt.Errorf("invalid join request action %q", action)
	}
	path := fmt.Sprintf("/study-groups/%s/requests/%s", url.PathEscape(groupID), url.PathEscape(requestUserID))
	body := struct {
		Action string `json:"action"`
	}{Action: action}
	return c.do(ctx, http.MethodPost, path, &body, nil)
}

// GetNotes fetches the durable copy of the shared notes document.
func (c *Client) GetNotes(ctx context.Context, groupID string) (*types.NotesDocument, error) {
	path := fmt.Sprintf("/study-groups/%s/notes", url.PathEscape(groupID))
	var doc types.NotesDocument
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveNotes persists the current notes content as the durable copy. The
// realtime path is live-only and not itself durable.
func (c *Client) SaveNotes(ctx context.Context, groupID string, doc *types.NotesDocument) error {
	path := fmt.Sprintf("/study-groups/%s/notes", url.PathEscape(groupID))
	return c.do(ctx, http.MethodPost, path, doc, nil)
}

// GetMessages returns the persisted chat history in stored order.
func (c *Client) GetMessages(ctx context.Context, groupID string) ([]types.ChatMessage, error) {
	path := fmt.Sprintf("/study-groups/%s/messages", url.PathEscape(groupID))
	var messages []types.ChatMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage persists a chat message. The live fan-out goes over the
// realtime channel independently; there is no shared transaction.
func (c *Client) SendMessage(ctx context.Context, msg *types.ChatMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	path := fmt.Sprintf("/study-groups/%s/messages", url.PathEscape(msg.GroupID))
	return c.do(ctx, http.MethodPost, path, msg, nil)
}

// GetStudyTime returns the user's logged study periods.
func (c *Client) GetStudyTime(ctx context.Context, userID string) ([]types.StudyTimeEntry, error) {
	var entries []types.StudyTimeEntry
	if err := c.do(ctx, http.MethodGet, "/studytime/"+url.PathEscape(userID), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LogStudyTime records a study period.
func (c *Client) LogStudyTime(ctx context.Context, userID string, entry *types.StudyTimeEntry) error {
	return c.do(ctx, http.MethodPost, "/studytime/"+url.PathEscape(userID), entry, nil)
}

// GetHomework returns the user's homework list.
func (c *Client) GetHomework(ctx context.Context, userID string) ([]types.HomeworkItem, error) {
	var items []types.HomeworkItem
	if err := c.do(ctx, http.MethodGet, "/homework/"+url.PathEscape(userID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// LogHomework records time spent on a homework item.
func (c *Client) LogHomework(ctx context.Context, userID string, entry *types.HomeworkLogEntry) error {
	return c.do(ctx, http.MethodPost, "/homeworklog/"+url.PathEscape(userID), entry, nil)
}

// GetAssessments returns the user's assessments.
func (c *Client) GetAssessments(ctx context.Context, userID string) ([]types.Assessment, error) {
	var assessments []types.Assessment
	if err := c.do(ctx, http.MethodGet, "/assessments/"+url.PathEscape(userID), nil, &assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

// SubmitAssessment submits answers for one assessment and returns the
// scored result.
func (c *Client) SubmitAssessment(ctx context.Context, userID, assessmentID string, submission *types.AssessmentSubmission) (*types.Assessment, error) {
	path := fmt.Sprintf("/assessments/%s/%s/submit", url.PathEscape(userID), url.PathEscape(assessmentID))
	var scored types.Assessment
	if err := c.do(ctx, http.MethodPost, path, submission, &scored); err != nil {
		return nil, err
	}
	return &scored, nil
}

// GetSubscriptionStatus looks up the user's billing state from the payment
// provider's session endpoints.
func (c *Client) GetSubscriptionStatus(ctx context.Context, userID string) (*types.SubscriptionStatus, error) {
	var status types.SubscriptionStatus
	if err := c.do(ctx, http.MethodGet, "/subscription/session/"+url.PathEscape(userID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

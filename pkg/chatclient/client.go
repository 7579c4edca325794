// Package chatclient is a Go client for the chat API: REST calls for
// persistence plus a live connection that feeds reconciled timelines.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets callers match API errors against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case chaterrors.ErrHistoryUnavailable:
		return e.Code == "HISTORY_UNAVAILABLE"
	case chaterrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case chaterrors.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	case chaterrors.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case chaterrors.ErrAlreadyExists:
		return e.Status == http.StatusConflict
	case chaterrors.ErrTooLarge:
		return e.Status == http.StatusRequestEntityTooLarge
	case chaterrors.ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	userID     string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserID names the user behind the client so live connections do not
// count their own messages as unread. Login sets it too.
func WithUserID(id string) Option {
	return func(c *Client) { c.userID = id }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("chatclient: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (httpdto.UserDTO, error) {
	var out httpdto.UserResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", httpdto.SignupRequest{Name: name, Email: email, Password: password}, &out)
	return out.User, err
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (httpdto.LoginResponse, error) {
	var out httpdto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", httpdto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return httpdto.LoginResponse{}, err
	}
	c.token = out.Token
	c.userID = out.User.ID
	return out, nil
}

func (c *Client) Contacts(ctx context.Context, except string) ([]httpdto.UserDTO, error) {
	var out []httpdto.UserDTO
	err := c.do(ctx, http.MethodGet, "/api/contacts?except="+url.QueryEscape(except), nil, &out)
	return out, err
}

func (c *Client) SendDirect(ctx context.Context, req httpdto.SendMessageRequest) (message.EnrichedDirect, error) {
	var out message.EnrichedDirect
	err := c.do(ctx, http.MethodPost, "/api/messages/send", req, &out)
	return out, err
}

func (c *Client) PrivateHistory(ctx context.Context, a, b string) ([]message.EnrichedDirect, error) {
	var out []message.EnrichedDirect
	err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(a)+"/"+url.PathEscape(b), nil, &out)
	return out, err
}

func (c *Client) CreateGroup(ctx context.Context, req httpdto.CreateGroupRequest) (group.Group, error) {
	var out httpdto.GroupResponse
	err := c.do(ctx, http.MethodPost, "/api/groups", req, &out)
	return out.Group, err
}

func (c *Client) Groups(ctx context.Context, member string) ([]group.Group, error) {
	var out []group.Group
	err := c.do(ctx, http.MethodGet, "/api/groups?member="+url.QueryEscape(member), nil, &out)
	return out, err
}

func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/groups/"+url.PathEscape(id), nil, nil)
}

func (c *Client) PostGroupMessage(ctx context.Context, groupID string, req httpdto.PostGroupMessageRequest) (message.EnrichedGroup, error) {
	var out message.EnrichedGroup
	err := c.do(ctx, http.MethodPost, "/api/groups/"+url.PathEscape(groupID)+"/message", req, &out)
	return out, err
}

func (c *Client) GroupHistory(ctx context.Context, groupID string) ([]message.EnrichedGroup, error) {
	var out []message.EnrichedGroup
	err := c.do(ctx, http.MethodGet, "/api/groups/"+url.PathEscape(groupID)+"/messages", nil, &out)
	return out, err
}

// Upload sends r as a multipart file part.
func (c *Client) Upload(ctx context.Context, uploadedBy, fileName string, r io.Reader) (httpdto.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("uploadedBy", uploadedBy); err != nil {
		return httpdto.UploadResponse{}, err
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return httpdto.UploadResponse{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return httpdto.UploadResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return httpdto.UploadResponse{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &body)
	if err != nil {
		return httpdto.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out httpdto.UploadResponse
	err = c.send(req, &out)
	return out, err
}

func (c *Client) OnlineUsers(ctx context.Context) ([]string, error) {
	var out httpdto.PresenceResponse
	err := c.do(ctx, http.MethodGet, "/api/presence", nil, &out)
	return out.Online, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return &APIError{Status: resp.StatusCode, Code: "BAD_RESPONSE", Message: err.Error()}
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

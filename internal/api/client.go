package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client talks to the chat server over its HTTP+JSON contract. The server
// authenticates via a session cookie set by Login, so the underlying
// http.Client carries a cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var u User
	err := c.postJSON(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var u User
	err := c.postJSON(ctx, "/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ClearActiveChat clears the server-side active-chat marker for this session.
func (c *Client) ClearActiveChat(ctx context.Context) error {
	return c.postJSON(ctx, "/clear_active_chat", nil, nil)
}

// UpdateActiveChat marks a chat active server-side.
func (c *Client) UpdateActiveChat(ctx context.Context, chatID int) error {
	return c.postJSON(ctx, "/update_active_chat", map[string]int{"chat_id": chatID}, nil)
}

// Chats returns the unfiltered chat directory.
func (c *Client) Chats(ctx context.Context) ([]ChatSummary, error) {
	var chats []ChatSummary
	if err := c.getJSON(ctx, "/get_chats", &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// SearchChats returns the directory filtered by name server-side.
func (c *Client) SearchChats(ctx context.Context, query string) ([]ChatSummary, error) {
	var chats []ChatSummary
	if err := c.getJSON(ctx, "/buscar_chat/"+url.PathEscape(query), &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ChatInfo returns header metadata for a chat.
func (c *Client) ChatInfo(ctx context.Context, chatID int) (*ChatInfo, error) {
	var info ChatInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/get_chat_info/%d", chatID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ChatMessages returns the full ordered history for a chat.
func (c *Client) ChatMessages(ctx context.Context, chatID int) ([]Message, error) {
	var msgs []Message
	if err := c.getJSON(ctx, fmt.Sprintf("/get_chat_messages/%d", chatID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage appends a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int, content string) error {
	return c.postJSON(ctx, "/send_message", map[string]any{
		"chat_id": chatID,
		"content": content,
	}, nil)
}

// SendImageMessage uploads an image as a message via multipart form.
func (c *Client) SendImageMessage(ctx context.Context, chatID int, filename string, r io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return fmt.Errorf("multipart image: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := mw.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("multipart chat_id: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mensaje_con_imagen", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

// UploadAvatar replaces the logged-in user's avatar image. The server
// answers with a redirect to the index page rather than JSON, so the body
// is discarded.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("multipart file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subir_imagen", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

// CreateChat creates a conversation with the given participants.
func (c *Client) CreateChat(ctx context.Context, name string, participants []int, isGroup bool) (*ChatSummary, error) {
	var created ChatSummary
	err := c.postJSON(ctx, "/create_chat", map[string]any{
		"name":         name,
		"participants": participants,
		"is_group":     isGroup,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteChat deletes a conversation for this user.
func (c *Client) DeleteChat(ctx context.Context, chatID int) error {
	return c.postJSON(ctx, fmt.Sprintf("/delete_chat/%d", chatID), nil, nil)
}

// UpdateStatus reports the presence heartbeat.
func (c *Client) UpdateStatus(ctx context.Context) error {
	return c.postJSON(ctx, "/update_status", nil, nil)
}

// Users lists selectable users for chat creation.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/get_users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Logout reports the session end. Fire-and-forget: it runs on teardown with
// its own short deadline and the result is discarded.
func (c *Client) Logout() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RejectedError{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
		}
	}
	return nil
}

// rejectionMessage extracts the server's error text. The server is not
// consistent: failures carry either {"error": ...} or {"message": ...}.
func rejectionMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

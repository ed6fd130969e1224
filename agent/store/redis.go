package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

var (
	ErrInvalidConversation = errors.New("conversation id is empty")
	ErrInvalidMessage      = errors.New("message is invalid")
)

const (
	defaultStoreKeyPrefix  = "shoptalk:"
	defaultConversationTTL = 24 * time.Hour
	defaultRetention       = 50
	maxResponseSizeBytes   = 2 << 20
)

// StoreOption customizes RedisConversationStore.
type StoreOption func(*RedisConversationStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisConversationStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *RedisConversationStore) {
		s.ttl = ttl
	}
}

// WithRetention bounds how many messages are kept per conversation. The
// retention cap is storage hygiene only; the per-turn window is enforced by
// the assembler.
func WithRetention(n int) StoreOption {
	return func(s *RedisConversationStore) {
		if n > 0 {
			s.retention = n
		}
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *RedisConversationStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// RedisConversationStore persists conversation metadata and message history
// in Upstash Redis via its REST protocol. Messages live in a per-conversation
// list; metadata in a companion key. Both carry the conversation TTL so the
// store expires idle dialogues without any sweeping from the core.
type RedisConversationStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	retention  int

	now func() time.Time
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewRedisConversationStore(cfg UpstashRedisConfig, opts ...StoreOption) (*RedisConversationStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &RedisConversationStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultConversationTTL,
		retention: defaultRetention,
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

// RecentMessages returns up to limit newest messages, oldest first.
func (s *RedisConversationStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]contractx.Message, error) {
	key, err := s.messagesKey(conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = contractx.ContextWindow
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, -limit, -1})
	if err != nil {
		return nil, err
	}

	var entries []string
	if len(bytes.TrimSpace(resp.Result)) > 0 {
		if err := json.Unmarshal(resp.Result, &entries); err != nil {
			return nil, fmt.Errorf("decode message list: %w", err)
		}
	}

	messages := make([]contractx.Message, 0, len(entries))
	for _, entry := range entries {
		var msg contractx.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AppendMessage pushes the message onto the conversation list, trims to the
// retention cap and refreshes the list TTL.
func (s *RedisConversationStore) AppendMessage(ctx context.Context, msg contractx.Message) error {
	if strings.TrimSpace(msg.ID) == "" || strings.TrimSpace(msg.Text) == "" {
		return ErrInvalidMessage
	}
	key, err := s.messagesKey(msg.ConversationID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if _, err := s.exec(ctx, []any{"RPUSH", key, string(payload)}); err != nil {
		return err
	}
	if _, err := s.exec(ctx, []any{"LTRIM", key, -s.retention, -1}); err != nil {
		return err
	}
	if s.ttl > 0 {
		if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
			return err
		}
	}
	return nil
}

// TouchConversation refreshes the last-activity timestamp and the expiry of
// the conversation record, creating the record on first touch.
func (s *RedisConversationStore) TouchConversation(ctx context.Context, conversationID string) error {
	key, err := s.metaKey(conversationID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	conv := contractx.Conversation{
		ID:        strings.TrimSpace(conversationID),
		CreatedAt: now,
	}

	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return err
	}
	if result := bytes.TrimSpace(resp.Result); len(result) > 0 && !bytes.Equal(result, []byte("null")) {
		var encoded string
		if err := json.Unmarshal(result, &encoded); err != nil {
			return fmt.Errorf("decode conversation payload: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &conv); err != nil {
			return fmt.Errorf("unmarshal conversation: %w", err)
		}
	}

	conv.LastActivity = now
	conv.TTLSeconds = ttlSeconds(s.ttl)

	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	if _, err := s.exec(ctx, cmd); err != nil {
		return err
	}
	return nil
}

func (s *RedisConversationStore) messagesKey(conversationID string) (string, error) {
	trimmed := strings.TrimSpace(conversationID)
	if trimmed == "" {
		return "", ErrInvalidConversation
	}
	return s.keyPrefix + "conv:" + trimmed + ":messages", nil
}

func (s *RedisConversationStore) metaKey(conversationID string) (string, error) {
	trimmed := strings.TrimSpace(conversationID)
	if trimmed == "" {
		return "", ErrInvalidConversation
	}
	return s.keyPrefix + "conv:" + trimmed + ":meta", nil
}

func (s *RedisConversationStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}

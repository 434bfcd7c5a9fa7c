package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub domain topic is required")
	errNotConnected      = errors.New("pubsub client not initialized")
)

// Client publishes outbox events. One ordered publisher is kept per topic so
// events for the same aggregate arrive in the order they were written.
type Client struct {
	conn      *pubsub.Client
	projectID string
	topic     string

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects and fails fast when the domain topic does not exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID, topic := strings.TrimSpace(gcp.ProjectID), strings.TrimSpace(cfg.DomainTopic)
	switch {
	case projectID == "":
		return nil, errProjectIDRequired
	case topic == "":
		return nil, errTopicRequired
	}

	conn, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub connect: %w", err)
	}
	c := &Client{
		conn:       conn,
		projectID:  projectID,
		topic:      topic,
		publishers: make(map[string]*pubsub.Publisher),
	}
	if err := c.checkTopic(ctx, topic); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", TopicResourceName(projectID, topic)), "pubsub.connected")
	}
	return c, nil
}

func (c *Client) checkTopic(ctx context.Context, name string) error {
	full := TopicResourceName(c.projectID, name)
	if full == "" {
		return fmt.Errorf("topic %q not configured", name)
	}
	_, err := c.conn.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
	switch {
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %s does not exist", full)
	case err != nil:
		return fmt.Errorf("get topic %s: %w", full, err)
	}
	return nil
}

func (c *Client) publisher(topic string) (*pubsub.Publisher, error) {
	full := TopicResourceName(c.projectID, topic)
	if full == "" {
		return nil, fmt.Errorf("topic %q not configured", topic)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[full]; ok {
		return pub, nil
	}
	pub := c.conn.Publisher(full)
	pub.EnableMessageOrdering = true
	c.publishers[full] = pub
	return pub, nil
}

// Send publishes msg and waits for the server id. A failed ordered publish
// pauses its ordering key; Send resumes it so the relay's retry can go out.
func (c *Client) Send(ctx context.Context, topic string, msg *pubsub.Message) (string, error) {
	if c == nil || c.conn == nil {
		return "", errNotConnected
	}
	pub, err := c.publisher(topic)
	if err != nil {
		return "", err
	}
	id, err := pub.Publish(ctx, msg).Get(ctx)
	if err != nil && msg.OrderingKey != "" {
		pub.ResumePublish(msg.OrderingKey)
	}
	return id, err
}

// Ping confirms the domain topic is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errNotConnected
	}
	return c.checkTopic(ctx, c.topic)
}

// Close flushes and stops every publisher before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.mu.Lock()
	for name, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.conn.Close()
}

// TopicResourceName expands a bare topic ID to projects/<p>/topics/<id>.
// Names that are already fully qualified pass through.
func TopicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}

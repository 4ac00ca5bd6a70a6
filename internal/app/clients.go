package app

import (
	"fmt"
	"os"
	"strings"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/caselens/caselens-backend/internal/clients/cms"
	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/clients/redis"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/temporalx"
)

type Clients struct {
	Bucket   gcp.BucketService
	DocParse gcp.DocParseService
	OpenAI   openai.Client
	CMS      cms.Client

	// EventBus is nil when REDIS_ADDR is unset; audit falls back to
	// DB-only logging. Temporal is nil without TEMPORAL_ADDRESS; the
	// durable workflow path then reports itself unavailable.
	EventBus redis.EventBus
	Temporal temporalclient.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	parser, err := gcp.NewDocParseService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init document parse client: %w", err)
	}

	llm, err := openai.NewClient(log)
	if err != nil {
		_ = parser.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	cmsClient, err := cms.NewClient(log)
	if err != nil {
		_ = parser.Close()
		return Clients{}, fmt.Errorf("init cms client: %w", err)
	}

	var bus redis.EventBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := redis.NewEventBus(log)
		if err != nil {
			_ = parser.Close()
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		bus = b
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		if bus != nil {
			_ = bus.Close()
		}
		_ = parser.Close()
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	return Clients{
		Bucket:   bucket,
		DocParse: parser,
		OpenAI:   llm,
		CMS:      cmsClient,
		EventBus: bus,
		Temporal: tc,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
	if c.DocParse != nil {
		_ = c.DocParse.Close()
	}
}

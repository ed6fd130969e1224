package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	assemblex "github.com/torqline/shoptalk/agent/assemble"
	contractx "github.com/torqline/shoptalk/agent/contract"
	corex "github.com/torqline/shoptalk/agent/core"
	deliverx "github.com/torqline/shoptalk/agent/deliver"
	gatewayx "github.com/torqline/shoptalk/agent/gateway"
	llmx "github.com/torqline/shoptalk/agent/llm"
	storex "github.com/torqline/shoptalk/agent/store"
	ablyx "github.com/torqline/shoptalk/pkg/ably"
	configx "github.com/torqline/shoptalk/pkg/config"
	_ "github.com/torqline/shoptalk/pkg/logger/autoload"
	openrouterx "github.com/torqline/shoptalk/pkg/openrouter"
	tavilyx "github.com/torqline/shoptalk/pkg/tavily"
)

type AppConfig struct {
	UserID         string `envconfig:"USER_ID" default:"local-user"`
	ConversationID string `envconfig:"CONVERSATION_ID"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	sdkClient := openrouterx.NewClient(llmCfg.OpenRouterFor(llmx.PhaseDecision))
	if sdkClient == nil {
		panic("failed to initialize openrouter client")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := openrouterx.Ping(pingCtx, sdkClient); err != nil {
		log.Warn().Err(err).Msg("openrouter not reachable at startup")
	}
	cancel()

	completer, err := llmx.NewCompleter(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create completer")
	}

	redisCfg := configx.MustNew[storex.UpstashRedisConfig]("UPSTASH_REDIS")
	conversations, err := storex.NewRedisConversationStore(*redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create conversation store")
	}

	pgCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
	profiles, err := storex.NewPostgresProfileStore(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create profile store")
	}
	defer profiles.Close()

	assembler, err := assemblex.New(conversations, profiles)
	if err != nil {
		log.Fatal().Err(err).Msg("create assembler")
	}

	searchCfg := configx.MustNew[tavilyx.Config]("TAVILY")
	tools, err := gatewayx.New(tavilyx.MustNew(*searchCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("create tool gateway")
	}

	ablyCfg := configx.MustNew[ablyx.Config]("ABLY")
	publisher, err := deliverx.NewAblyPublisher(ablyx.MustNew(*ablyCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("create publisher")
	}

	agent, err := corex.New(assembler, completer, tools, conversations, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("create agent")
	}

	conversationID := strings.TrimSpace(appCfg.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	log.Info().Str("conversation_id", conversationID).Msg("agent ready")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		resp, err := agent.Respond(ctx, conversationID, appCfg.UserID, text)
		switch {
		case errors.Is(err, contractx.ErrAgentUnavailable):
			fmt.Println("The assistant is temporarily unavailable, please try again.")
		case errors.Is(err, contractx.ErrContextUnavailable):
			fmt.Println("Something went wrong loading this conversation, please try again.")
		case err != nil:
			log.Error().Err(err).Msg("turn failed")
		default:
			fmt.Println(resp.Text)
		}
	}
}

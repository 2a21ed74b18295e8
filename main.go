package main

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/planvoy/retreat-planner/agent/agents/checkout"
	"github.com/planvoy/retreat-planner/agent/agents/discovery"
	"github.com/planvoy/retreat-planner/agent/agents/planner"
	"github.com/planvoy/retreat-planner/agent/agents/requirements"
	statex "github.com/planvoy/retreat-planner/agent/state"
	configx "github.com/planvoy/retreat-planner/pkg/config"
	_ "github.com/planvoy/retreat-planner/pkg/logger/autoload"
	openaix "github.com/planvoy/retreat-planner/pkg/openai"
	qstashx "github.com/planvoy/retreat-planner/pkg/qstash"
	tavilyx "github.com/planvoy/retreat-planner/pkg/tavily"
)

type AppConfig struct {
	// OfflineMode skips the LLM, search, and publisher clients; the planner
	// falls back to regex parsing and curated vendor catalogs.
	OfflineMode     bool   `envconfig:"OFFLINE_MODE"`
	PostgresDSN     string `envconfig:"POSTGRES_DSN"`
	ConfirmationURL string `envconfig:"CONFIRMATION_WEBHOOK_URL"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	var analystClient requirements.CompletionClient
	var searchClient discovery.SearchClient
	var checkoutOpts []checkout.GatewayOption

	if !appCfg.OfflineMode {
		openaiCfg := configx.MustNew[openaix.Config]("OPENAI")
		llm, err := openaix.NewClient(*openaiCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize openai client")
		}
		analystClient = llm

		tavilyCfg := configx.MustNew[tavilyx.Config]("TAVILY")
		search, err := tavilyx.NewClient(*tavilyCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize tavily client")
		}
		searchClient = search

		if appCfg.ConfirmationURL != "" {
			qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
			checkoutOpts = append(checkoutOpts,
				checkout.WithPublisher(qstashx.MustNew(*qstashCfg), appCfg.ConfirmationURL))
		}
	}

	store, closeStore := newStore(*appCfg)
	defer closeStore()

	p, err := planner.New(
		store,
		requirements.NewAnalyst(analystClient),
		discovery.NewAgent(searchClient),
		checkout.NewGateway(checkoutOpts...),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize planner")
	}

	request := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if request == "" {
		log.Info().Msg("planner ready; pass a retreat request as arguments to run the flow")
		return
	}

	sessionID := planner.NewSessionID()
	session, err := p.PlanRetreat(context.Background(), sessionID, request)
	if err != nil {
		log.Fatal().Err(err).Str("session_id", sessionID).Msg("planning flow failed")
	}

	top, ok := session.TopPackage()
	if !ok {
		log.Fatal().Str("session_id", sessionID).Msg("no packages were ranked")
	}
	log.Info().
		Str("session_id", sessionID).
		Int("packages", len(session.RankedPackages)).
		Str("top_package", top.PackageID).
		Float64("top_score", top.FinalScore).
		Float64("top_cost", top.TotalCost).
		Str("summary", top.Explanation.WhyRanked).
		Msg("retreat plan ready")
}

// newStore picks Postgres when a DSN is configured, otherwise an in-memory
// store good for one process lifetime.
func newStore(appCfg AppConfig) (statex.Store, func()) {
	if strings.TrimSpace(appCfg.PostgresDSN) == "" {
		return statex.NewMemoryStore(), func() {}
	}

	pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
	store, err := statex.NewPostgresStore(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize postgres session store")
	}
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate session store")
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session store")
		}
	}
}

package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strconv"

	"github.com/eskrenkovic/match-engine-go/internal/config"
	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	invitescommands "github.com/eskrenkovic/match-engine-go/internal/modules/invites/commands"
	invitesdomain "github.com/eskrenkovic/match-engine-go/internal/modules/invites/domain"
	invitesqueries "github.com/eskrenkovic/match-engine-go/internal/modules/invites/queries"
	matchcommands "github.com/eskrenkovic/match-engine-go/internal/modules/match/commands"
	matchdomain "github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
	matchqueries "github.com/eskrenkovic/match-engine-go/internal/modules/match/queries"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/store"
	"github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking"
	matchmakingcommands "github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking/commands"
	"github.com/eskrenkovic/match-engine-go/internal/modules/realtime"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for the application.
type HTTPServer struct {
	server *http.Server
}

func NewHTTPServer(config config.Config) (Server, error) {
	baseCtx := context.Background()

	core.SetLogger(config.Logger)

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
		return nil, err
	}

	hub := realtime.NewHub(config.Logger)
	matchStore := store.NewMatchStore(db)

	// The completion hook needs the registry and the registry needs the hook,
	// so the hook closes over the variable and the registry is built second.
	var registry *engine.Registry
	registry = engine.NewRegistry(engine.Config{
		TickInterval: config.TickInterval,
		Publisher:    hub,
		Logger:       config.Logger,
		OnFinished: func(snapshot matchdomain.Snapshot) {
			if err := matchStore.Finish(baseCtx, snapshot); err != nil {
				config.Logger.Error(
					"failed to persist finished match",
					zap.String("match_id", snapshot.ID.String()),
					zap.Error(err),
				)
			}
			registry.Remove(snapshot.ID)
		},
	})

	matchmaker := matchmaking.NewMatchmaker(registry)

	// A user dropping their last connection leaves the queue and pauses their
	// live match. Pausing an already paused match is rejected by the session,
	// which is fine here.
	hub.OnDisconnect(func(userID int64) {
		matchmaker.Dequeue(userID)

		if session, err := registry.FindByPlayer(userID); err == nil {
			_ = session.Pause(baseCtx, userID)
		}
	})

	if err := restoreUnfinishedMatches(baseCtx, config.Logger, matchStore, registry); err != nil {
		return nil, err
	}

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: config.Logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: config.Logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	// handler registration

	// match

	err = mediator.RegisterRequestHandler[matchcommands.MovePaddleCommand, core.Unit](
		matchcommands.NewMovePaddleCommandHandler(registry),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchcommands.SetReadyCommand, core.Unit](
		matchcommands.NewSetReadyCommandHandler(registry),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchcommands.PauseMatchCommand, core.Unit](
		matchcommands.NewPauseMatchCommandHandler(registry),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchcommands.AbandonMatchCommand, core.Unit](
		matchcommands.NewAbandonMatchCommandHandler(registry),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchqueries.GetMatchQuery, matchdomain.Snapshot](
		matchqueries.NewGetMatchQueryHandler(registry, matchStore),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchqueries.GetUserMatchesQuery, []store.MatchRecord](
		matchqueries.NewGetUserMatchesQueryHandler(matchStore),
	)
	if err != nil {
		return nil, err
	}

	// matchmaking

	err = mediator.RegisterRequestHandler[matchmakingcommands.EnterMatchmakingCommand, matchmakingcommands.EnterMatchmakingResponse](
		matchmakingcommands.NewEnterMatchmakingCommandHandler(matchmaker, registry, matchStore, hub),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[matchmakingcommands.LeaveMatchmakingCommand, core.Unit](
		matchmakingcommands.NewLeaveMatchmakingCommandHandler(matchmaker),
	)
	if err != nil {
		return nil, err
	}

	// invites

	err = mediator.RegisterRequestHandler[invitescommands.CreateInviteCommand, invitesdomain.Invite](
		invitescommands.NewCreateInviteCommandHandler(db, registry, matchmaker, hub),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[invitescommands.AcceptInviteCommand, matchdomain.Snapshot](
		invitescommands.NewAcceptInviteCommandHandler(db, registry, matchmaker, matchStore, hub),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[invitescommands.RefuseInviteCommand, core.Unit](
		invitescommands.NewRefuseInviteCommandHandler(db, hub),
	)
	if err != nil {
		return nil, err
	}

	err = mediator.RegisterRequestHandler[invitesqueries.GetPendingInvitesQuery, []invitesdomain.Invite](
		invitesqueries.NewGetPendingInvitesQueryHandler(db),
	)
	if err != nil {
		return nil, err
	}

	// http

	router := chi.NewRouter()
	router.Use(core.CorrelationIDHTTPMiddleware)
	router.Use(core.IdentityMiddleware)

	router.Post("/matchmaking", matchmakingcommands.HandleEnterMatchmaking)
	router.Delete("/matchmaking", matchmakingcommands.HandleLeaveMatchmaking)

	router.Get("/matches/{id}", matchqueries.HandleGetMatch)
	router.Get("/users/{userId}/matches", matchqueries.HandleGetUserMatches)

	router.Post("/matches/{id}/actions/move-paddle", matchcommands.HandleMovePaddle)
	router.Post("/matches/{id}/actions/ready", matchcommands.HandleSetReady)
	router.Post("/matches/{id}/actions/pause", matchcommands.HandlePauseMatch)
	router.Post("/matches/{id}/actions/abandon", matchcommands.HandleAbandonMatch)

	router.Post("/invites", invitescommands.HandleCreateInvite)
	router.Get("/invites", invitesqueries.HandleGetPendingInvites)
	router.Post("/invites/{id}/actions/accept", invitescommands.HandleAcceptInvite)
	router.Delete("/invites/{id}", invitescommands.HandleRefuseInvite)

	router.Get("/ws", hub.Handle)

	server := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler: router,
	}

	return &HTTPServer{server: &server}, nil
}

// restoreUnfinishedMatches brings matches that were live before the last
// process stop back as paused sessions. A single unrestorable match is logged
// and skipped rather than blocking startup.
func restoreUnfinishedMatches(
	ctx context.Context,
	logger *zap.Logger,
	matchStore *store.MatchStore,
	registry *engine.Registry,
) error {
	records, err := matchStore.ListUnfinished(ctx)
	if err != nil {
		return err
	}

	states := core.Map(records, func(record store.MatchRecord) *matchdomain.MatchState {
		state := matchdomain.NewMatchState(record.ID, record.PlayerA, record.PlayerB)
		state.ScoreA = record.ScoreA
		state.ScoreB = record.ScoreB
		return state
	})

	for _, state := range states {
		if _, err := registry.Restore(state); err != nil {
			logger.Error(
				"failed to restore unfinished match",
				zap.String("match_id", state.ID.String()),
				zap.Error(err),
			)
			continue
		}
	}

	if len(records) > 0 {
		logger.Info("restored unfinished matches", zap.Int("count", len(records)))
	}

	return nil
}

func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	return s.server.Close()
}

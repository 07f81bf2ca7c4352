// Package bootstrap wires configuration, logging, the environment probe and
// the transport into a running service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"companion-voice-go/internal/app/services"
	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/domain/assemble"
	"companion-voice-go/internal/domain/capture"
	"companion-voice-go/internal/domain/environ"
	"companion-voice-go/internal/domain/eventbus"
	"companion-voice-go/internal/domain/filter"
	"companion-voice-go/internal/domain/session"
	"companion-voice-go/internal/domain/speech"
	platformconfig "companion-voice-go/internal/platform/config"
	platformerrors "companion-voice-go/internal/platform/errors"
	platformlogging "companion-voice-go/internal/platform/logging"
	"companion-voice-go/internal/providers/audio/wssource"
	openaistt "companion-voice-go/internal/providers/stt/openai"
	"companion-voice-go/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string
	config     *platformconfig.Config
	logger     *platformlogging.Logger
	profile    environ.Profile
	catalog    filter.Catalog
	stt        providers.Transcriber
	bus        eventbus.Bus
}

// Options tunes Run; the zero value uses the default config path.
type Options struct {
	ConfigPath string
}

// Run starts the whole service lifecycle: init steps, transport, graceful
// shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	logger := state.logger
	defer logger.Close()

	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startTransport(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("boot", "service stopped cleanly")
	return nil
}

// InitGraph declares the ordered initialization steps and their dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "environ:probe",
			Title:     "Probe host environment",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   probeEnvironStep,
		},
		{
			ID:        "filter:load-catalog",
			Title:     "Load self-speech catalog",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindConfig,
			Execute:   loadCatalogStep,
		},
		{
			ID:        "stt:init-provider",
			Title:     "Initialise transcription provider",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindConfig,
			Execute:   initSTTStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	logger.InfoTag("boot", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("boot", "  %s: %s", step.ID, step.Title)
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithPath(state.configPath).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init", "config not loaded")
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}

	state.logger = logger
	logger.InfoTag("boot", "logging ready [%s] config=%s", state.config.Log.Level, state.configPath)
	return nil
}

func probeEnvironStep(_ context.Context, state *appState) error {
	state.profile = environ.Probe()
	state.logger.InfoTag("env", "host classified as %s", state.profile.Category)
	return nil
}

func loadCatalogStep(_ context.Context, state *appState) error {
	path := state.config.Filter.CatalogPath
	if path == "" {
		state.catalog = filter.DefaultCatalog()
		state.logger.InfoTag("filter", "using built-in phrase catalog %s", state.catalog.Version)
		return nil
	}

	catalog, err := filter.LoadCatalog(path)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "filter:load-catalog", "failed to load phrase catalog", err)
	}
	state.catalog = catalog
	state.logger.InfoTag("filter", "loaded phrase catalog %s from %s", catalog.Version, path)
	return nil
}

func initSTTStep(_ context.Context, state *appState) error {
	cfg := state.config.STT
	switch cfg.Type {
	case "", "openai":
		provider, err := openaistt.New(openaistt.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  state.logger,
		})
		if err != nil {
			return err
		}
		state.stt = provider
		return nil
	default:
		return platformerrors.New(
			platformerrors.KindConfig,
			"stt:init-provider",
			fmt.Sprintf("unknown stt provider type %q", cfg.Type),
		)
	}
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()
	return nil
}

// buildPipeline assembles the per-connection component graph. Each device
// connection gets its own capture engine, session manager and interrupt
// monitor; the transcription provider and bus are shared.
func buildPipeline(state *appState, conn *websocket.Conn, deviceID string) (ws.Runner, error) {
	cfg := state.config

	source := wssource.New(conn, cfg.Audio.SampleRate, cfg.Audio.Channels, state.logger)
	gate := speech.NewGate()
	// The device reports its own playback state inline with the audio
	// stream; without this the speaking gate would have no writer.
	source.HandleControl(playbackControl(gate, state.logger))

	selfFilter := filter.New(state.catalog,
		filter.WithMaxHumanWords(cfg.Filter.MaxHumanWords),
		filter.WithLogger(state.logger),
	)

	assembler := assemble.New(assemble.Config{
		STT:          state.stt,
		DialectHints: cfg.STT.DialectHints,
		Attempts:     cfg.STT.Retries,
		Logger:       state.logger,
	})

	hint := ""
	if len(cfg.STT.DialectHints) > 0 {
		hint = cfg.STT.DialectHints[0]
	}

	engine := capture.NewEngine(capture.Config{
		Source:       source,
		STT:          state.stt,
		Filter:       selfFilter,
		Speaking:     gate,
		Assembler:    assembler,
		Profile:      state.profile,
		LanguageHint: hint,
		Logger:       state.logger,
	})

	sessions := session.NewManager(session.Config{
		Triggers:   cfg.Session.Triggers,
		EndPhrases: cfg.Session.EndPhrases,
		Timeout:    cfg.Session.Timeout,
		Events:     services.BusSessionEvents{Bus: state.bus},
		Logger:     state.logger,
	})

	monitor := speech.NewMonitor(speech.MonitorConfig{
		Gate:             gate,
		Listener:         engine,
		Playback:         ws.NewDevicePlayback(conn),
		Phrases:          cfg.Interrupt.Phrases,
		SilenceThreshold: cfg.Interrupt.SilenceThreshold,
		MaxListenTime:    cfg.Interrupt.MaxListenTime,
		Bus:              state.bus,
		Logger:           state.logger,
	})

	logger := state.logger
	return services.NewPipeline(services.PipelineConfig{
		Listener: engine,
		Monitor:  monitor,
		Sessions: sessions,
		Speaking: gate,
		Bus:      state.bus,
		Handler: func(_ context.Context, identity, text string) {
			logger.InfoTag("session", "utterance device=%s identity=%s: %q", deviceID, identity, text)
		},
		Logger:           logger,
		PhraseTimeout:    cfg.Capture.PhraseTimeout,
		SilenceThreshold: cfg.Capture.SilenceThreshold,
		MaxTotalTime:     cfg.Capture.MaxTotalTime,
	}), nil
}

// playbackControl flips the speaking gate from device playback control
// frames: "start" when the device begins audio output, "stop" when it ends.
func playbackControl(gate *speech.Gate, logger *platformlogging.Logger) wssource.ControlHandler {
	return func(kind, state string) {
		if kind != "playback" {
			return
		}
		if gate.SetSpeaking(state == "start") {
			logger.DebugTag("capture", "device playback %s", state)
		}
	}
}

func startTransport(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	wsCfg := state.config.Transport.WebSocket
	if !wsCfg.Enabled {
		state.logger.WarnTag("transport", "websocket transport disabled, nothing to serve")
		return nil
	}

	server := ws.NewServer(ws.ServerConfig{
		Addr: net.JoinHostPort(wsCfg.IP, strconv.Itoa(wsCfg.Port)),
	}, func(conn *websocket.Conn, deviceID string) (ws.Runner, error) {
		return buildPipeline(state, conn, deviceID)
	}, state.logger)

	g.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return platformerrors.Wrap(platformerrors.KindTransport, "transport:start", "websocket server failed", err)
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("boot", "shutdown requested (%v), draining services", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("boot", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("boot", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("boot", "shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}

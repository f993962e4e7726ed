package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/silexa/internal/announce"
	"github.com/ayusman/silexa/internal/app"
	"github.com/ayusman/silexa/internal/capture"
	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/config"
	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/detector"
	"github.com/ayusman/silexa/internal/metrics"
	"github.com/ayusman/silexa/internal/plugin"
	"github.com/ayusman/silexa/internal/server"
	"github.com/ayusman/silexa/internal/stabilizer"
	"github.com/ayusman/silexa/internal/store"
	"github.com/ayusman/silexa/internal/training"
	"github.com/ayusman/silexa/internal/tray"
)

// announceQueue bounds the speech backlog; older gestures are not worth saying late.
const announceQueue = 4

func runServe(args []string) error {
	cfg, err := loadConfig("serve", args)
	if err != nil {
		return err
	}
	log.Info().Msg("SILEXA - Hand Gesture Recognition")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	handle, err := classifier.Open(cfg.Model.Path)
	if err != nil {
		// Degraded mode: collection and training work, prediction answers model_unavailable.
		log.Warn().Err(err).Str("path", cfg.Model.Path).Msg("no model loaded; train one to enable predictions")
		handle = classifier.NewHandle()
	} else {
		log.Info().Str("path", cfg.Model.Path).Strs("labels", handle.Labels()).Msg("model loaded")
	}
	m.SetModelLoaded(handle.Ready())

	for _, p := range []string{cfg.Dataset.Path, cfg.Model.Path, cfg.History.Path} {
		if err := ensureDir(p); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	history, err := store.New(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	ds := dataset.NewStore(cfg.Dataset.Path)
	pipeline := training.New(training.Config{
		Dataset:      ds,
		Handle:       handle,
		ArtifactPath: cfg.Model.Path,
		Params:       cfg.Params(),
		Runs:         history.Runs(),
		Metrics:      m,
	})

	hub := announce.NewHub()
	announcers := announce.Multi{announce.Log{}, hub, announce.NewRecorder(history.Announcements())}

	if speech := newSpeech(cfg.Speech); speech != nil {
		async := announce.NewAsync(speech, announceQueue)
		defer async.Close()
		announcers = append(announcers, async)
	}

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		tr = tray.New()
		announcers = append(announcers, tr)
	}

	sessions := stabilizer.NewRegistry(cfg.Stabilizer.Cooldown, cfg.Policy())
	recognizer := app.NewRecognizer(handle, sessions, announcers, m)

	var live *app.App
	if cfg.Camera.Enabled {
		live, err = newCameraSession(cfg, recognizer)
		if err != nil {
			log.Warn().Err(err).Msg("camera session disabled")
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info().Str("dir", staticDir).Msg("serving static files")
	}
	srvCfg := server.Config{
		StaticDir:  staticDir,
		Recognizer: recognizer,
		Dataset:    ds,
		Pipeline:   pipeline,
		History:    history,
		Hub:        hub,
		Metrics:    m,
	}
	if cfg.Server.Metrics {
		srvCfg.MetricsHandler = promhttp.Handler()
	}
	srv := server.New(srvCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		sweepSessions(gctx, recognizer, cfg.Stabilizer.SessionIdle)
		return nil
	})
	if live != nil {
		if err := live.Start(gctx); err != nil {
			log.Warn().Err(err).Msg("camera session failed to start")
			live = nil
		} else {
			defer live.Stop()
		}
	}

	if tr == nil {
		return g.Wait()
	}

	wireTray(gctx, tr, stop, live, pipeline, handle, cfg.Server.Addr)
	go func() {
		<-gctx.Done()
		tr.Quit()
	}()
	tr.Run()
	stop()
	return g.Wait()
}

// newSpeech returns the speech announcer, or nil when no speech plugin is installed.
func newSpeech(cfg config.Speech) *announce.Speech {
	manager := plugin.NewManager(cfg.PluginDir)
	if err := manager.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed")
		return nil
	}
	speech, err := announce.NewSpeech(manager, cfg.Plugin, cfg.Timeout)
	if err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			log.Info().Str("dir", cfg.PluginDir).Msg("no speech plugin installed; announcements are not spoken")
		} else {
			log.Warn().Err(err).Msg("speech disabled")
		}
		return nil
	}
	log.Info().Str("plugin", speech.Plugin().Manifest.Name).Msg("speech enabled")
	return speech
}

func newCameraSession(cfg config.Config, recognizer *app.Recognizer) (*app.App, error) {
	det, err := detector.NewMediaPipeDetector(detector.Config{
		Script:          cfg.Detector.Script,
		Python:          cfg.Detector.Python,
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinConfidence,
		IdleTimeout:     cfg.Detector.IdleTimeout,
	})
	if err != nil {
		return nil, err
	}

	camera := capture.NewCamera(capture.Config{
		Device: cfg.Camera.Device,
		FPS:    cfg.Camera.FPS,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		Mirror: cfg.Camera.Mirror,
	})
	gate := capture.NewGate(cfg.Camera.MotionThreshold, cfg.Camera.MotionHold)

	return app.New(app.Config{
		Source:     app.NewCameraSource(camera, gate, det),
		Recognizer: recognizer,
		Interval:   time.Second / time.Duration(cfg.Camera.FPS),
	}), nil
}

// sweepSessions drops idle per-session stabilizers until ctx is done.
func sweepSessions(ctx context.Context, r *app.Recognizer, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now, idle); n > 0 {
				log.Debug().Int("dropped", n).Msg("idle sessions swept")
			}
		}
	}
}

func wireTray(ctx context.Context, tr *tray.Tray, quit func(), live *app.App, pipeline *training.Pipeline, handle *classifier.Handle, addr string) {
	tr.SetStatus(modelStatus(handle))

	tr.OnToggle(func(enabled bool) {
		if live == nil {
			return
		}
		live.SetEnabled(enabled)
		log.Info().Bool("enabled", enabled).Msg("gesture detection toggled")
	})
	tr.OnRetrain(func() {
		go func() {
			tr.SetTraining(true)
			defer tr.SetTraining(false)

			result, err := pipeline.Run(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("retrain from tray failed")
				return
			}
			log.Info().Str("run_id", result.RunID).Float64("accuracy", result.Accuracy).Msg("retrained from tray")
			tr.SetStatus(modelStatus(handle))
		}()
	})
	tr.OnOpen(func() {
		if err := openBrowser(browserURL(addr)); err != nil {
			log.Warn().Err(err).Msg("failed to open browser")
		}
	})
	tr.OnQuit(quit)
}

func modelStatus(h *classifier.Handle) string {
	snap := h.Current()
	if snap == nil {
		return "Model: not loaded"
	}
	return fmt.Sprintf("Model: %s, %d labels", snap.Model.Kind(), len(snap.Labels))
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

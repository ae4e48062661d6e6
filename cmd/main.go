package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/jithu2111/SenseKey/controller"
	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/services/predict"
	"github.com/jithu2111/SenseKey/utils"
	"github.com/jithu2111/SenseKey/views"
)

func main() {
	// ── CLI flags ────────────────────────────────────────────────────
	sensorsPath := flag.String("sensors", "config/sensors.yaml", "path to sensors.yaml")
	sessionPath := flag.String("session", "config/session.yaml", "path to session.yaml")
	storagePath := flag.String("storage", "config/storage.yaml", "path to storage.yaml")
	predictPath := flag.String("predict", "config/predict.yaml", "path to predict.yaml")
	logFile := flag.String("log", "", "optional log file path (stdout is always included)")
	logLevel := flag.String("log-level", "info", "minimum log level (debug|info|warn|error)")
	monitorAddr := flag.String("monitor", "", "websocket monitor listen address (e.g. :8090), empty disables")
	demo := flag.Bool("demo", false, "run scripted PIN-entry trials against simulated channels")
	flag.Parse()

	// ── Logger ───────────────────────────────────────────────────────
	logger := utils.InitLogger(utils.ParseLevel(*logLevel), *logFile)
	defer logger.Close()

	utils.L().Info("═══════════════════════════════════════════════════")
	utils.L().Info("  SenseKey  ·  PIN-Entry Inertial Capture")
	utils.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	utils.L().Info("═══════════════════════════════════════════════════")

	// ── Load configs ─────────────────────────────────────────────────
	sensorsCfg, err := utils.LoadSensorsConfig(*sensorsPath)
	if err != nil {
		utils.L().Error("load sensors config: %v", err)
		os.Exit(1)
	}
	sessionCfg, err := utils.LoadSessionConfig(*sessionPath)
	if err != nil {
		utils.L().Error("load session config: %v", err)
		os.Exit(1)
	}
	storageCfg, err := utils.LoadStorageConfig(*storagePath)
	if err != nil {
		utils.L().Error("load storage config: %v", err)
		os.Exit(1)
	}
	predictCfg, err := utils.LoadPredictConfig(*predictPath)
	if err != nil {
		utils.L().Warn("load predict config: %v — remote prediction disabled", err)
		predictCfg = &utils.PredictConfig{}
	}

	// Resolve relative base_dir to absolute.
	if !filepath.IsAbs(storageCfg.Storage.BaseDir) {
		abs, _ := filepath.Abs(storageCfg.Storage.BaseDir)
		storageCfg.Storage.BaseDir = abs
	}

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ── Pipeline assembly ────────────────────────────────────────────
	//
	//  channel sources ──► typed channels ──► SessionController (run loop)
	//                                          │            │
	//                                    SensorBuffer     features.Pipeline
	//                                          │
	//                                     Exporter ──► CSV per trial
	//                                          │
	//                                  exported hook ──► remote prediction

	sources := controller.NewSourcesController(sensorsCfg)
	sources.Start(ctx)

	exporter, err := views.NewExporter(storageCfg)
	if err != nil {
		utils.L().Error("init exporter: %v", err)
		os.Exit(1)
	}

	sessionCtrl := controller.NewSessionController(sessionCfg, exporter, controller.NewRealClock(), nil)

	// Optional live websocket monitor.
	if *monitorAddr != "" {
		monitor := views.NewLiveMonitor()
		sessionCtrl.SetMonitor(monitor.Update)
		go monitor.Serve(*monitorAddr)
	}

	// Optional remote prediction on every exported trial.
	if predictCfg.Predict.Enabled {
		client := predict.NewClient(predictCfg)
		sessionCtrl.SetExportedHook(func(path string, records []models.SensorRecord, verdict views.Verdict) {
			pctx, pcancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer pcancel()
			pin, err := client.PredictPIN(pctx, records)
			if err != nil {
				utils.L().Warn("remote prediction: %v", err)
				return
			}
			utils.L().Info("remote prediction for %s: %s", filepath.Base(path), pin)
		})
	}

	go sessionCtrl.Run(ctx, sources)

	if *demo {
		if !sensorsCfg.Simulation.Enabled {
			utils.L().Warn("demo mode works best with simulation.enabled: true")
		}
		go runDemo(ctx, sessionCtrl, sessionCfg)
	}

	utils.L().Info("pipeline running — press Ctrl+C to stop")

	// ── Stats ticker ─────────────────────────────────────────────────
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case sig := <-sigCh:
			utils.L().Info("received signal: %v — shutting down…", sig)
			cancel()
			// Brief drain period for in-flight exports.
			time.Sleep(500 * time.Millisecond)
			fmt.Println("\n✓ SenseKey finished. Exports at:", exporter.Dir())
			return

		case <-statsTicker.C:
			utils.L().Info("── stats ─────────────────────────")
			sources.LogStats()
			utils.L().Info("  state=%s  trial=%d  target=%s",
				sessionCtrl.State(), sessionCtrl.Trial(), sessionCtrl.Target())
			utils.L().Info("──────────────────────────────────")
		}
	}
}

// runDemo drives scripted PIN entries: one correct trial, then one with a
// deliberate final-digit mistake, repeating until cancelled. Useful for
// validating the full capture-export path without a device.
func runDemo(ctx context.Context, sc *controller.SessionController, cfg *utils.SessionConfig) {
	settle := time.Duration(cfg.Session.SettleDelayMs) * time.Millisecond
	if settle <= 0 {
		settle = 800 * time.Millisecond
	}

	mistake := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}

		if err := sc.StartRecording(); err != nil {
			utils.L().Warn("demo: %v", err)
			continue
		}

		pin := []byte(sc.Target())
		if mistake {
			// Flip the last digit so the WRONG/retry path gets exercised.
			pin[3] = '0' + (pin[3]-'0'+1)%10
		}
		mistake = !mistake

		time.Sleep(800 * time.Millisecond) // baseline capture before first press

		for i, d := range pin {
			select {
			case <-ctx.Done():
				return
			case <-time.After(350 * time.Millisecond):
			}
			sc.KeyPress(models.KeyPress{
				TimestampMs: utils.NowMillis(),
				Digit:       d,
				Position:    i,
				TouchX:      100 + 40*float64(d-'0'),
				TouchY:      300 + 25*float64(i),
			})
		}

		// Settle period plus export headroom before the next trial.
		time.Sleep(settle + time.Second)
	}
}

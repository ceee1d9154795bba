package app

import (
	"context"
	"time"

	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/infrastructure/audit"
	"github.com/doeshing/warden-go/internal/infrastructure/config"
	"github.com/doeshing/warden-go/internal/infrastructure/executor"
	"github.com/doeshing/warden-go/internal/infrastructure/fileops"
	"github.com/doeshing/warden-go/internal/infrastructure/policy"
	"github.com/doeshing/warden-go/internal/infrastructure/security"
	"github.com/doeshing/warden-go/internal/infrastructure/watcher"
	"github.com/doeshing/warden-go/internal/pkg/logger"
	"github.com/doeshing/warden-go/internal/ports"
	"github.com/doeshing/warden-go/internal/services"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Orchestrator  *services.Orchestrator
	DoctorService *services.DoctorService
	Registry      *policy.Registry
	ConfigLoader  *config.FileLoader
	Classifier    ports.RiskClassifier
	FileManager   ports.FileManager
	AuditStore    ports.AuditRepository
	Prompter      ports.ConfirmationPrompter
	Logger        ports.Logger
	Config        domain.Config
}

// Options tweak container construction.
type Options struct {
	ConfigPath string
	Verbose    bool
	Prompter   ports.ConfirmationPrompter
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)
	auditStore := audit.NewSQLiteStore(cfg.Audit.Database)

	classifier, err := security.NewClassifier(cfg.Security.RulesFile)
	if err != nil {
		classifier, err = security.NewClassifier("")
		if err != nil {
			return nil, err
		}
	}

	fileManager := fileops.NewManager(cfg.Files.ProjectRoot, cfg.Files.BackupDir, cfg.Files.MaxBackupsPerFile, log)

	newWatcher := func(pc domain.PolicyConfig) *watcher.Watcher {
		var perf *watcher.PerfMonitor
		if cfg.Watch.EnableThrottle {
			perf = watcher.NewPerfMonitor(0)
		}
		return watcher.New(watcher.Options{
			Dir:       pc.WatchDir,
			Patterns:  pc.WatchPatterns,
			Debounce:  pc.WatchDebounce,
			QueueSize: cfg.Watch.QueueSize,
			Perf:      perf,
			Logger:    log,
		})
	}

	registry := policy.NewRegistry(policy.Deps{
		Classifier: classifier,
		Files:      fileManager,
		Prompter:   opts.Prompter,
		Logger:     log,
		NewWatcher: newWatcher,
	}, func(kind domain.PolicyKind) domain.PolicyConfig {
		pc := domain.DefaultPolicyConfig(kind)
		switch kind {
		case domain.PolicyPlan:
			pc.PlanOutputDir = cfg.Plan.OutputDir
		case domain.PolicyWatch:
			pc.WatchDir = cfg.Watch.Dir
			pc.WatchPatterns = cfg.Watch.Patterns
			pc.WatchDebounce = time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		}
		return pc
	})

	orchestrator := services.NewOrchestrator(registry, classifier, fileManager, executor.NewLocalExecutor(cfg.Execution.Shell), auditStore, log, cfg)

	doctorService := &services.DoctorService{
		ConfigProvider: cfgLoader,
		Classifier:     classifier,
		Audit:          auditStore,
	}

	return &Container{
		Orchestrator:  orchestrator,
		DoctorService: doctorService,
		Registry:      registry,
		ConfigLoader:  cfgLoader,
		Classifier:    classifier,
		FileManager:   fileManager,
		AuditStore:    auditStore,
		Prompter:      opts.Prompter,
		Logger:        log,
		Config:        cfg,
	}, nil
}

// Close shuts down background work.
func (c *Container) Close() error {
	if c.Registry != nil {
		return c.Registry.Shutdown()
	}
	return nil
}

// CargoFit plans how cargo is loaded into a trailer or container.
//
// It reads a placement request (JSON) or a cargo manifest (CSV or Excel)
// plus an equipment preset, places every piece with the greedy planner or
// the genetic optimizer, checks center of gravity and axle loads, runs the
// exception rules, and prints the outcome as JSON. Load sheets, piece
// labels and a DXF wireframe can be written alongside.
//
// Build:
//
//	go build -o cargofit ./cmd/cargofit
//
// Examples:
//
//	cargofit -request load.json
//	cargofit -manifest manifest.csv -equipment reefer-53 -algorithm genetic -pdf load.pdf
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/piwi3910/CargoFit/internal/engine"
	"github.com/piwi3910/CargoFit/internal/exceptions"
	"github.com/piwi3910/CargoFit/internal/export"
	"github.com/piwi3910/CargoFit/internal/importer"
	"github.com/piwi3910/CargoFit/internal/logging"
	"github.com/piwi3910/CargoFit/internal/model"
	"github.com/piwi3910/CargoFit/internal/project"
	"github.com/piwi3910/CargoFit/internal/validator"
)

var version = "dev"

// options are the parsed command line flags.
type options struct {
	configPath    string
	requestPath   string
	manifestPath  string
	equipmentID   string
	equipmentFile string
	algorithm     string
	seed          int64
	gridStep      float64
	timeout       time.Duration
	rulesPath     string
	axlePolicy    string
	volumeWeight  float64
	stabWeight    float64
	tournament    int
	elite         float64
	logLevel      string
	logFormat     string
	pdfPath       string
	labelsPath    string
	dxfPath       string
	planPath      string
	compare       bool
}

// output is the JSON document written to stdout.
type output struct {
	Result      model.Response    `json:"result"`
	Strategy    model.Algorithm   `json:"strategy"`
	Cancelled   bool              `json:"cancelled,omitempty"`
	Unplaced    []string          `json:"unplaced"`
	Metrics     model.LoadMetrics `json:"metrics"`
	Report      exceptions.Report `json:"report"`
	Comparisons []comparison      `json:"comparisons,omitempty"`
	Files       map[string]string `json:"files,omitempty"`
}

type comparison struct {
	Name              string  `json:"name"`
	VolumeUtilization float64 `json:"volumeUtilization"`
	WeightUtilization float64 `json:"weightUtilization"`
	UnplacedCount     int     `json:"unplacedCount"`
	WarningCount      int     `json:"warningCount"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "cargofit: reading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "cargofit: %v\n", err)
		os.Exit(1)
	}
}

// getEnv returns the environment value for key, or fallback when unset.
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("cargofit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	seed, _ := strconv.ParseInt(getEnv("CARGOFIT_SEED", "0"), 10, 64)
	timeout, _ := time.ParseDuration(getEnv("CARGOFIT_TIMEOUT", "0s"))

	fs.StringVar(&o.configPath, "config", getEnv("CARGOFIT_CONFIG", project.DefaultConfigPath()), "application config file")
	fs.StringVar(&o.requestPath, "request", "", "placement request JSON file")
	fs.StringVar(&o.manifestPath, "manifest", "", "cargo manifest (.csv or .xlsx)")
	fs.StringVar(&o.equipmentID, "equipment", getEnv("CARGOFIT_EQUIPMENT", ""), "equipment preset ID used with -manifest")
	fs.StringVar(&o.equipmentFile, "equipment-file", getEnv("CARGOFIT_EQUIPMENT_FILE", project.DefaultEquipmentPath()), "custom equipment library")
	fs.StringVar(&o.algorithm, "algorithm", getEnv("CARGOFIT_ALGORITHM", ""), "greedy or genetic")
	fs.Int64Var(&o.seed, "seed", seed, "genetic optimizer seed (0 = config default)")
	fs.Float64Var(&o.gridStep, "grid", 0, "position search step (0 = config default)")
	fs.DurationVar(&o.timeout, "timeout", timeout, "optimizer time limit (0 = config default)")
	fs.StringVar(&o.rulesPath, "rules", getEnv("CARGOFIT_RULES", ""), "YAML exception rule overrides")
	fs.StringVar(&o.axlePolicy, "axle-policy", getEnv("CARGOFIT_AXLE_POLICY", ""), "fixed-split or position-weighted")
	fs.Float64Var(&o.volumeWeight, "volume-weight", 0, "genetic fitness weight of volume utilization (0 = config default)")
	fs.Float64Var(&o.stabWeight, "stability-weight", 0, "genetic fitness weight of stability (0 = config default)")
	fs.IntVar(&o.tournament, "tournament", 0, "genetic tournament size (0 = config default)")
	fs.Float64Var(&o.elite, "elite", 0, "share of each generation kept unchanged (0 = config default)")
	fs.StringVar(&o.logLevel, "log-level", getEnv("CARGOFIT_LOG_LEVEL", ""), "debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", getEnv("CARGOFIT_LOG_FORMAT", ""), "text or json")
	fs.StringVar(&o.pdfPath, "pdf", "", "write a PDF load sheet")
	fs.StringVar(&o.labelsPath, "labels", "", "write QR piece labels (PDF)")
	fs.StringVar(&o.dxfPath, "dxf", "", "write a DXF wireframe")
	fs.StringVar(&o.planPath, "save-plan", "", "save request, settings and result as a plan file")
	fs.BoolVar(&o.compare, "compare", false, "also run the what-if scenarios")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if (o.requestPath == "") == (o.manifestPath == "") {
		return options{}, errors.New("exactly one of -request or -manifest is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := project.LoadAppConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCfg := logging.DefaultConfig("cargofit")
	logCfg.Version = version
	logCfg.Output = stderr
	logCfg.Level = firstNonEmpty(opts.logLevel, cfg.LogLevel, logCfg.Level)
	logCfg.Format = firstNonEmpty(opts.logFormat, cfg.LogFormat, logCfg.Format)
	logger := logging.New(logCfg)

	library, err := project.LoadEquipmentLibrary(opts.equipmentFile)
	if err != nil {
		logger.Warn("custom equipment not loaded", "path", opts.equipmentFile, "error", err)
	}

	req, err := loadRequest(opts, cfg, library, logger)
	if err != nil {
		return err
	}

	settings, err := buildSettings(opts, cfg)
	if err != nil {
		return err
	}
	timeout := opts.timeout
	if timeout == 0 && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := optimize(ctx, req, settings, logger)
	if err != nil {
		return err
	}
	if result.Cancelled {
		logger.Warn("optimization stopped early, returning best layout found", "generations", result.Generations)
	}

	metrics := validator.Validate(result, req.Container, settings.AxlePolicy)

	rulesPath := firstNonEmpty(opts.rulesPath, cfg.RulesFile)
	ruleCfg := exceptions.DefaultRuleConfig()
	if rulesPath != "" {
		if ruleCfg, err = exceptions.LoadRuleConfig(rulesPath); err != nil {
			return err
		}
	}
	rules, err := ruleCfg.RuleSet()
	if err != nil {
		return err
	}
	analyzer := exceptions.NewEngine(logger)
	analyzer.Library = library
	report := analyzer.Analyze(rules, exceptions.Input{Result: result, Metrics: metrics, Container: req.Container})

	out := output{
		Result:    result.Response(),
		Strategy:  result.Strategy,
		Cancelled: result.Cancelled,
		Unplaced:  result.Unplaced,
		Metrics:   metrics,
		Report:    report,
		Files:     map[string]string{},
	}

	if opts.compare {
		scenarios := engine.BuildDefaultScenarios(settings, req.Constraints)
		results, err := engine.CompareScenarios(ctx, req, scenarios)
		if err != nil {
			return fmt.Errorf("compare: %w", err)
		}
		for _, r := range results {
			out.Comparisons = append(out.Comparisons, comparison{
				Name:              r.Scenario.Name,
				VolumeUtilization: r.VolumeUtilization,
				WeightUtilization: r.WeightUtilization,
				UnplacedCount:     r.UnplacedCount,
				WarningCount:      r.WarningCount,
			})
		}
	}

	if err := writeFiles(opts, req, settings, result, metrics, report, out.Files); err != nil {
		return err
	}

	source := firstNonEmpty(opts.requestPath, opts.manifestPath)
	if err := project.SaveAppConfig(opts.configPath, project.AddRecentRequest(cfg, source)); err != nil {
		logger.Warn("config not saved", "path", opts.configPath, "error", err)
	}

	logger.Info("load planned",
		"strategy", result.Strategy,
		"placed", result.PlacedCount(),
		"unplaced", result.UnplacedCount(),
		"volume_pct", result.VolumeUtilization,
		"exceptions", len(report.Exceptions))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadRequest reads the request file, or builds a request from a manifest
// and an equipment preset.
func loadRequest(opts options, cfg model.AppConfig, library []model.Equipment, logger *slog.Logger) (model.Request, error) {
	if opts.requestPath != "" {
		return project.LoadRequest(opts.requestPath)
	}

	imported := importer.Import(opts.manifestPath)
	for _, w := range imported.Warnings {
		logger.Debug("manifest import", "warning", w)
	}
	if len(imported.Errors) > 0 {
		return model.Request{}, fmt.Errorf("import %s: %s", opts.manifestPath, strings.Join(imported.Errors, "; "))
	}

	id := firstNonEmpty(opts.equipmentID, cfg.DefaultEquipment)
	eq, ok := model.FindEquipment(library, id)
	if !ok {
		return model.Request{}, fmt.Errorf("unknown equipment %q", id)
	}
	logger.Info("manifest imported", "path", opts.manifestPath, "lines", len(imported.Items), "pieces", imported.Pieces(), "equipment", eq.ID)
	return model.NewRequest(eq.Container(), imported.Items), nil
}

func buildSettings(opts options, cfg model.AppConfig) (model.Settings, error) {
	s := model.DefaultSettings()
	cfg.ApplyToSettings(&s)
	if opts.algorithm != "" {
		s.Algorithm = model.Algorithm(opts.algorithm)
	}
	if opts.seed != 0 {
		s.Seed = opts.seed
	}
	if opts.gridStep > 0 {
		s.GridStep = opts.gridStep
	}
	if opts.axlePolicy != "" {
		s.AxlePolicy = model.AxlePolicy(opts.axlePolicy)
	}
	if opts.tournament > 0 {
		s.TournamentSize = opts.tournament
	}
	if opts.elite != 0 {
		s.EliteFraction = opts.elite
	}
	if opts.volumeWeight != 0 || opts.stabWeight != 0 {
		s.VolumeWeight, s.StabilityWeight = opts.volumeWeight, opts.stabWeight
	}

	switch {
	case !s.Algorithm.Valid():
		return model.Settings{}, fmt.Errorf("unknown algorithm %q (want greedy or genetic)", s.Algorithm)
	case !s.AxlePolicy.Valid():
		return model.Settings{}, fmt.Errorf("unknown axle policy %q (want fixed-split or position-weighted)", s.AxlePolicy)
	case s.VolumeWeight < 0 || s.StabilityWeight < 0:
		return model.Settings{}, errors.New("fitness weights must not be negative")
	case s.EliteFraction < 0 || s.EliteFraction > 1:
		return model.Settings{}, fmt.Errorf("elite fraction %g outside [0, 1]", s.EliteFraction)
	}
	return s, nil
}

// optimize runs the optimizer in the background and logs its progress.
func optimize(ctx context.Context, req model.Request, settings model.Settings, logger *slog.Logger) (model.PlacementResult, error) {
	defer logging.Timed(logger, "optimize", "algorithm", settings.Algorithm, "pieces", req.TotalPieces())()

	for msg := range engine.Start(ctx, req, settings) {
		switch msg.Kind {
		case engine.MessageProgress:
			logger.Debug("optimizer progress", "percent", msg.Progress)
		case engine.MessageResult:
			return *msg.Result, nil
		case engine.MessageError:
			return model.PlacementResult{}, msg.Err
		}
	}
	return model.PlacementResult{}, errors.New("optimizer stopped without a result")
}

func writeFiles(opts options, req model.Request, settings model.Settings, result model.PlacementResult,
	metrics model.LoadMetrics, report exceptions.Report, files map[string]string) error {

	if opts.pdfPath != "" {
		sheet := export.LoadSheet{Container: req.Container, Result: result, Metrics: metrics, Report: &report}
		if err := export.ExportPDF(opts.pdfPath, sheet); err != nil {
			return fmt.Errorf("write load sheet: %w", err)
		}
		files["pdf"] = opts.pdfPath
	}
	if opts.labelsPath != "" {
		if err := export.ExportLabels(opts.labelsPath, req.Container, result); err != nil {
			return fmt.Errorf("write labels: %w", err)
		}
		files["labels"] = opts.labelsPath
	}
	if opts.dxfPath != "" {
		if err := export.ExportDXF(opts.dxfPath, req.Container, result); err != nil {
			return fmt.Errorf("write dxf: %w", err)
		}
		files["dxf"] = opts.dxfPath
	}
	if opts.planPath != "" {
		plan := project.NewPlan("", req, settings)
		plan.Result = &result
		plan.Metrics = &metrics
		if err := project.SavePlan(opts.planPath, plan); err != nil {
			return err
		}
		files["plan"] = opts.planPath
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

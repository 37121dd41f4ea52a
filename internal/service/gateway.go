package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/spectral"
)

const (
	// ModelType is reported by ModelInfo
	ModelType = "Hyperspectral Crop Health Analysis"

	predictAllLimit = 4
	logSaveTimeout  = 5 * time.Second
)

// GatewayConfig tunes the model gateway
type GatewayConfig struct {
	// Wavelengths reported in model info
	Wavelengths []float64
	// CacheTTL keeps location predictions for this long, 0 disables caching
	CacheTTL time.Duration
}

type cachedPrediction struct {
	prediction domain.LocationPrediction
	expires    time.Time
}

// Gateway routes model requests to the engine and recovers every engine
// failure with the in-process fallback
type Gateway struct {
	engine   ModelBackend // nil when the engine is unavailable
	fallback ModelBackend
	logRepo  PredictionLogRepository
	cfg      GatewayConfig

	mu    sync.Mutex
	cache map[string]cachedPrediction

	wgBg sync.WaitGroup // tracks background log writes for graceful shutdown

	// now is replaceable in tests
	now func() time.Time
}

// NewGateway creates a new gateway. An engine that implements Prober and
// fails its probe is dropped at construction. logRepo may be nil.
func NewGateway(engine, fallback ModelBackend, logRepo PredictionLogRepository, cfg GatewayConfig) *Gateway {
	if p, ok := engine.(Prober); ok {
		if err := p.Probe(); err != nil {
			log.Printf("Model engine unavailable, using %s backend: %v", fallback.Name(), err)
			engine = nil
		}
	}
	if len(cfg.Wavelengths) == 0 {
		cfg.Wavelengths = spectral.DefaultWavelengths(spectral.DefaultBands)
	}

	return &Gateway{
		engine:   engine,
		fallback: fallback,
		logRepo:  logRepo,
		cfg:      cfg,
		cache:    make(map[string]cachedPrediction),
		now:      time.Now,
	}
}

// EngineAvailable reports whether an engine backend is in use
func (g *Gateway) EngineAvailable() bool {
	return g.engine != nil
}

// WaitBackground blocks until all background log writes complete
func (g *Gateway) WaitBackground() {
	g.wgBg.Wait()
}

// PredictLocation returns the prediction for a location name. Unknown names
// get the default location profile. It never fails.
func (g *Gateway) PredictLocation(ctx context.Context, name string) domain.LocationPrediction {
	loc := registry.Lookup(name)
	now := g.now()
	month := int(now.Month())

	key := strings.ToLower(loc.Name)
	if p, ok := g.cached(key, now); ok {
		return p
	}

	m, simulated := g.predictMetrics(ctx, loc, month)
	p := domain.NewLocationPrediction(loc, m, simulated)
	p.AnalysisTimestamp = now

	if g.cfg.CacheTTL > 0 {
		g.mu.Lock()
		g.cache[key] = cachedPrediction{prediction: p, expires: now.Add(g.cfg.CacheTTL)}
		g.mu.Unlock()
	}

	g.savePrediction(p)
	return p
}

func (g *Gateway) predictMetrics(ctx context.Context, loc domain.Location, month int) (domain.HealthMetrics, bool) {
	if g.engine != nil {
		m, err := g.engine.PredictLocation(ctx, loc, month)
		if err == nil {
			return m, false
		}
		log.Printf("Engine prediction for %s failed, using %s: %v", loc.Name, g.fallback.Name(), err)
	}

	m, err := g.fallback.PredictLocation(ctx, loc, month)
	if err != nil {
		// the fallback predictor is total; keep a neutral bundle if a custom one is not
		log.Printf("Fallback prediction for %s failed: %v", loc.Name, err)
		m = domain.HealthMetrics{}.Clamp()
	}
	return m, true
}

func (g *Gateway) cached(key string, now time.Time) (domain.LocationPrediction, bool) {
	if g.cfg.CacheTTL <= 0 {
		return domain.LocationPrediction{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.cache[key]
	if !ok {
		return domain.LocationPrediction{}, false
	}
	if !now.Before(c.expires) {
		delete(g.cache, key)
		return domain.LocationPrediction{}, false
	}
	return c.prediction, true
}

// savePrediction records a prediction asynchronously (tracked for graceful shutdown)
func (g *Gateway) savePrediction(p domain.LocationPrediction) {
	if g.logRepo == nil {
		return
	}
	g.wgBg.Add(1)
	go func() {
		defer g.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), logSaveTimeout)
		defer cancel()
		if err := g.logRepo.SavePredictionLog(bgCtx, p); err != nil {
			log.Printf("Failed to save prediction log for %s: %v", p.Location, err)
		}
	}()
}

// PredictAll predicts every registered location concurrently
func (g *Gateway) PredictAll(ctx context.Context) domain.PredictionSet {
	locs := registry.All()

	var (
		mu          sync.Mutex
		predictions = make(map[string]domain.LocationPrediction, len(locs))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(predictAllLimit)
	for _, loc := range locs {
		loc := loc
		eg.Go(func() error {
			p := g.PredictLocation(egCtx, loc.Name)
			mu.Lock()
			predictions[loc.Name] = p
			mu.Unlock()
			return nil
		})
	}
	// predictions never fail, so Wait only synchronizes
	_ = eg.Wait()

	return domain.PredictionSet{
		Status:      "success",
		Predictions: predictions,
		ModelInfo: domain.PredictionModelInfo{
			Wavelengths: g.cfg.Wavelengths,
			NumBands:    len(g.cfg.Wavelengths),
			Locations:   registry.Names(),
		},
		AnalysisTimestamp: g.now(),
	}
}

// AnalyzeImage analyzes an uploaded image. Engine failures fall back to the
// in-process pipeline; only a failing fallback returns an error.
func (g *Gateway) AnalyzeImage(ctx context.Context, req ImageRequest) (domain.ImageAnalysis, error) {
	if g.engine != nil {
		a, err := g.engine.AnalyzeImage(ctx, req)
		if err == nil {
			a.Simulated = false
			return a, nil
		}
		log.Printf("Engine image analysis of %s failed, using %s: %v", req.Filename, g.fallback.Name(), err)
	}

	a, err := g.fallback.AnalyzeImage(ctx, req)
	if err != nil {
		return domain.ImageAnalysis{}, err
	}
	a.Simulated = true
	return a, nil
}

// Train runs model training, simulating it when the engine is unavailable
func (g *Gateway) Train(ctx context.Context) domain.TrainingResult {
	if g.engine != nil {
		r, err := g.engine.Train(ctx)
		if err == nil {
			r.Simulated = false
			return r
		}
		log.Printf("Engine training failed, using %s: %v", g.fallback.Name(), err)
	}

	r, err := g.fallback.Train(ctx)
	if err != nil {
		log.Printf("Fallback training failed: %v", err)
		r = domain.TrainingResult{Status: "error", TrainingCompleted: g.now()}
	}
	r.Simulated = true
	return r
}

// ModelInfo describes the active model configuration
func (g *Gateway) ModelInfo() domain.ModelInfo {
	wl := g.cfg.Wavelengths
	return domain.ModelInfo{
		ModelType:          ModelType,
		SupportedLocations: registry.Names(),
		WavelengthRange:    [2]float64{wl[0], wl[len(wl)-1]},
		NumBands:           len(wl),
		HealthClasses:      domain.HealthClasses,
		LastUpdated:        g.now(),
		EngineAvailable:    g.EngineAvailable(),
	}
}

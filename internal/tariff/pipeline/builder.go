package pipeline

import (
	"database/sql"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/store"
	"tariff-workers/internal/tariff/matcher"
	"tariff-workers/internal/tariff/qualify"
	"tariff-workers/internal/tariff/rates"
	"tariff-workers/internal/tariff/scorer"
)

// Backends are the live connections a build may draw on. Any of them may be
// nil as long as the store config does not select it.
type Backends struct {
	Postgres      *sql.DB
	Elasticsearch *elasticsearch.Client
	Redis         redis.Cmdable
	Logger        logger.Logger
	RateObserver  rates.Observer
	StageObserver StageObserver
	Tracer        trace.Tracer
}

// Components is every stage built from one configuration. All of them are
// immutable and may be shared by concurrent workers.
type Components struct {
	Vocabulary      *matcher.Vocabulary
	Scorer          *scorer.Scorer
	Classifier      Classifier
	Resolver        *rates.Resolver
	Engine          *qualify.Engine
	Service         *Service
	SnapshotVersion string
}

// Build wires the stages from cfg.
func Build(cfg *config.Config, b Backends) (*Components, error) {
	log := b.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var snapshot *store.MemoryStore
	if cfg.Store.SearchBackend == config.BackendMemory || cfg.Store.LookupBackend == config.BackendMemory {
		m, err := store.LoadSnapshot(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, err
		}
		snapshot = m.WithLimit(cfg.Store.SearchLimit)
	}

	searcher, err := searchBackend(cfg, b, snapshot)
	if err != nil {
		return nil, err
	}
	lookup, err := lookupBackend(cfg, b, snapshot)
	if err != nil {
		return nil, err
	}

	vocab := VocabularyFromConfig(cfg.Classification)
	sc := scorer.New(searcher, vocab,
		scorer.WithRules(scorer.DefaultRules(WeightsFromConfig(cfg.Classification.Scoring), vocab)),
		scorer.WithMaxCandidates(cfg.Classification.MaxCandidates),
		scorer.WithScopedSearch(cfg.Classification.ScopeSearch),
		scorer.WithLogger(log.With(map[string]interface{}{"stage": StageClassify})),
	)

	tiers := rates.WithCache(rates.DefaultTiers(lookup), b.Redis,
		config.GetDuration(cfg.Rates.CacheTTL), log)
	resolver := rates.NewResolver(tiers,
		rates.WithTierTimeout(config.GetDuration(cfg.Rates.TierTimeout)),
		rates.WithConcurrency(cfg.Rates.BatchConcurrency),
		rates.WithObserver(b.RateObserver),
		rates.WithLogger(log.With(map[string]interface{}{"stage": StageRates})),
	)

	engine := qualify.NewEngine(QualifyConfig(cfg.Qualification))

	classifier := NewCachedClassifier(sc, b.Redis, config.GetDuration(cfg.Classification.CacheTTL), log)
	svc := NewService(classifier, resolver, engine,
		WithReviewThreshold(int(cfg.Notifications.ReviewConfidenceThreshold)),
		WithStageObserver(b.StageObserver),
		WithTracer(b.Tracer),
		WithLogger(log),
	)

	out := &Components{
		Vocabulary: vocab,
		Scorer:     sc,
		Classifier: classifier,
		Resolver:   resolver,
		Engine:     engine,
		Service:    svc,
	}
	if snapshot != nil {
		out.SnapshotVersion = snapshot.Version()
	}
	return out, nil
}

func searchBackend(cfg *config.Config, b Backends, snapshot *store.MemoryStore) (store.Searcher, error) {
	switch cfg.Store.SearchBackend {
	case config.BackendPostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("postgres search backend selected but no connection given")
		}
		return store.NewPostgresStore(b.Postgres, cfg.Store.Table, cfg.Store.SearchLimit), nil
	case config.BackendElasticsearch:
		if b.Elasticsearch == nil {
			return nil, fmt.Errorf("elasticsearch search backend selected but no client given")
		}
		return store.NewElasticsearchStore(b.Elasticsearch, cfg.Store.Index, cfg.Store.SearchLimit), nil
	case config.BackendMemory:
		return snapshot, nil
	}
	return nil, fmt.Errorf("unknown search backend %q", cfg.Store.SearchBackend)
}

func lookupBackend(cfg *config.Config, b Backends, snapshot *store.MemoryStore) (store.Lookup, error) {
	var primary store.RecordStore
	switch cfg.Store.LookupBackend {
	case config.BackendPostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("postgres lookup backend selected but no connection given")
		}
		primary = store.NewPostgresStore(b.Postgres, cfg.Store.Table, cfg.Store.SearchLimit)
	case config.BackendMemory:
		primary = snapshot
	default:
		return nil, fmt.Errorf("unsupported lookup backend %q", cfg.Store.LookupBackend)
	}

	if !cfg.Store.ChapterEstimates {
		return primary, nil
	}
	var averages map[string]float64
	if len(cfg.Rates.ChapterAverages) > 0 {
		averages = cfg.Rates.ChapterAverages
	}
	return store.Chain{primary, store.NewChapterAverages(averages)}, nil
}

// VocabularyFromConfig falls back to the built-in lists for anything unset.
func VocabularyFromConfig(c config.ClassificationConfig) *matcher.Vocabulary {
	return matcher.NewVocabulary(matcher.Options{
		StopWords:        c.StopWords,
		MinTermLength:    c.MinTermLength,
		MaxTerms:         c.MaxTerms,
		StrongTerms:      c.StrongTerms,
		CategoryChapters: c.CategoryChapters,
	})
}

func WeightsFromConfig(s config.ScoringConfig) scorer.Weights {
	return scorer.Weights{
		BaseFloor:               s.BaseFloor,
		BaseCeiling:             s.BaseCeiling,
		CategoryMatchBonus:      s.CategoryMatchBonus,
		StrongTermBonus:         s.StrongTermBonus,
		CorroborationBonus:      s.CorroborationBonus,
		ChapterHintBonus:        s.ChapterHintBonus,
		CategoryMismatchPenalty: s.CategoryMismatchPenalty,
		HintedFloor:             s.HintedFloor,
		Ceiling:                 s.Ceiling,
	}
}

func QualifyConfig(q config.QualificationConfig) qualify.Config {
	return qualify.Config{
		BlocName:         q.BlocName,
		Members:          q.BlocMembers,
		Aliases:          q.CountryAliases,
		Thresholds:       q.Thresholds,
		DefaultThreshold: q.DefaultThreshold,
	}
}

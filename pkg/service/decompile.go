package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/duynguyendang/gerd/internal/manager"
	"github.com/duynguyendang/gerd/pkg/catalog"
	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/dstmpl"
	"github.com/duynguyendang/gerd/pkg/erd"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CatalogManager abstracts the per-environment catalogs.
type CatalogManager interface {
	GetStore(env string) (*catalog.Store, error)
	Resolver(env string) (erd.SpecResolver, error)
	ListEnvironments() ([]manager.EnvironmentMetadata, error)
}

// DefaultBatchWorkers bounds concurrent decompiles within one batch.
const DefaultBatchWorkers = 10

// DecompileRequest is one event rule to decompile. Environment selects the
// catalog used for lookups; without it the rule is decompiled with no
// resolver. TemplateXML wins over TemplateName, which is loaded from the
// environment's catalog.
type DecompileRequest struct {
	ID           string   `json:"id,omitempty"`
	Environment  string   `json:"environment,omitempty"`
	Events       []string `json:"events"`
	TemplateXML  string   `json:"template_xml,omitempty"`
	TemplateName string   `json:"template_name,omitempty"`
}

// BatchItem is the outcome of one request in a batch. Exactly one of Result
// and Error is set.
type BatchItem struct {
	ID     string      `json:"id"`
	Result *erd.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchResult collects the items of a batch in request order.
type BatchResult struct {
	BatchID string      `json:"batch_id"`
	Items   []BatchItem `json:"items"`
	Failed  int         `json:"failed"`
}

// TemplateView is a template as exposed by the API.
type TemplateView struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []dstmpl.Item `json:"items"`
}

// DecompileService runs decompiles against the environment catalogs.
type DecompileService struct {
	manager CatalogManager
	workers int
	logger  *slog.Logger
}

// NewDecompileService creates a DecompileService. manager may be nil, in
// which case only requests without an environment succeed.
func NewDecompileService(manager CatalogManager) *DecompileService {
	return &DecompileService{
		manager: manager,
		workers: DefaultBatchWorkers,
		logger:  slog.Default(),
	}
}

// ListEnvironments returns the available environments.
func (s *DecompileService) ListEnvironments() ([]manager.EnvironmentMetadata, error) {
	if s.manager == nil {
		return []manager.EnvironmentMetadata{}, nil
	}
	return s.manager.ListEnvironments()
}

func (s *DecompileService) store(env string) (*catalog.Store, error) {
	if env == "" {
		return nil, fmt.Errorf("%w: environment is required", errors.ErrInvalidInput)
	}
	if s.manager == nil {
		return nil, fmt.Errorf("environment %s: %w", env, errors.ErrNotFound)
	}
	return s.manager.GetStore(env)
}

func (s *DecompileService) resolver(env string) (erd.SpecResolver, error) {
	if env == "" {
		return nil, nil
	}
	if s.manager == nil {
		return nil, fmt.Errorf("environment %s: %w", env, errors.ErrNotFound)
	}
	return s.manager.Resolver(env)
}

// Decompile runs a single request.
func (s *DecompileService) Decompile(ctx context.Context, req DecompileRequest) (*erd.Result, error) {
	return s.decompile(ctx, req, nil)
}

func (s *DecompileService) decompile(ctx context.Context, req DecompileRequest, cache *dstmpl.Cache) (*erd.Result, error) {
	if len(req.Events) == 0 {
		return nil, fmt.Errorf("%w: no event documents", errors.ErrInvalidInput)
	}

	resolver, err := s.resolver(req.Environment)
	if err != nil {
		return nil, err
	}

	templateXML := []byte(req.TemplateXML)
	if strings.TrimSpace(req.TemplateXML) == "" && req.TemplateName != "" {
		st, err := s.store(req.Environment)
		if err != nil {
			return nil, err
		}
		if templateXML, err = st.TemplateXML(req.TemplateName); err != nil {
			return nil, err
		}
	}

	events := make([][]byte, len(req.Events))
	for i, e := range req.Events {
		events[i] = []byte(e)
	}

	d := erd.New(resolver, erd.WithTemplateCache(cache), erd.WithLogger(s.logger))
	return d.Decompile(ctx, events, templateXML)
}

// DecompileBatch runs requests concurrently. A failing request is recorded
// in its item and does not stop the others; only cancellation of ctx fails
// the batch. env is the default environment for requests that name none.
func (s *DecompileService) DecompileBatch(ctx context.Context, env string, reqs []DecompileRequest) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", errors.ErrInvalidInput)
	}

	batch := &BatchResult{
		BatchID: uuid.NewString(),
		Items:   make([]BatchItem, len(reqs)),
	}
	// One template cache per environment for the lifetime of the batch.
	caches := make(map[string]*dstmpl.Cache)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	for i, req := range reqs {
		if req.Environment == "" {
			req.Environment = env
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		cache, ok := caches[req.Environment]
		if !ok {
			cache = dstmpl.NewCache(dstmpl.DefaultCacheSize)
			caches[req.Environment] = cache
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := BatchItem{ID: req.ID}
			res, err := s.decompile(gctx, req, cache)
			if err != nil {
				s.logger.Warn("batch item failed", "batch", batch.BatchID, "item", req.ID, "error", err)
				item.Error = err.Error()
			} else {
				item.Result = res
			}

			mu.Lock()
			batch.Items[i] = item
			if err != nil {
				batch.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("batch decompiled", "batch", batch.BatchID, "items", len(reqs), "failed", batch.Failed)
	return batch, nil
}

// ListTemplates returns the templates of an environment. A non-empty query
// ranks them by similarity instead.
func (s *DecompileService) ListTemplates(env, query string, limit int) ([]TemplateMatch, error) {
	st, err := s.store(env)
	if err != nil {
		return nil, err
	}
	names, err := st.ListTemplates()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) != "" {
		return SuggestTemplates(query, names, limit), nil
	}

	matches := make([]TemplateMatch, 0, len(names))
	for _, n := range names {
		matches = append(matches, TemplateMatch{Name: n})
	}
	return matches, nil
}

// GetTemplate returns one template of an environment.
func (s *DecompileService) GetTemplate(ctx context.Context, env, name string) (*TemplateView, error) {
	st, err := s.store(env)
	if err != nil {
		return nil, err
	}
	t, err := st.DataStructureTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TemplateView{Name: t.Name, Description: t.Description, Items: t.Items()}, nil
}

package services

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"glowshop/internal/cache"
	"glowshop/internal/domain"
	"glowshop/internal/repos"
)

// Store seams over the entity fetchers. The concrete repos satisfy these;
// tests substitute failing or slow variants.
type CategoryStore interface {
	List() ([]domain.Category, error)
	Create(name, description string) (domain.Category, error)
}

type BrandStore interface {
	List() ([]domain.Brand, error)
	Create(name, description string) (domain.Brand, error)
}

type ProductStore interface {
	List() ([]domain.ProductView, error)
	ListWithOffers(f repos.ProductFilters) ([]domain.ProductView, error)
	GetByID(id string) (domain.ProductView, error)
	ListByCategory() ([]domain.ProductView, error)
	Create(in domain.ProductInput) (domain.Product, error)
}

type AnalyticsStore interface {
	RegisterConsultation(productID string, meta domain.ConsultationMeta) error
	MostRequested(limit int) ([]domain.MostRequested, error)
}

// Snapshot is the read model handed to the presentation layer. Consumers
// only ever see copies; mutation happens through the service operations.
type Snapshot struct {
	Products           []domain.ProductView
	Categories         []domain.Category
	Brands             []domain.Brand
	MostRequested      []domain.MostRequested
	SelectedProduct    *domain.ProductView
	ProductsByCategory []domain.ProductView
	Loading            bool
	Err                string
}

// CatalogService is the aggregation layer: it owns the unified product list
// and the cache, orchestrates the fetchers, and exposes mutation operations
// that invalidate and refresh. Constructed once at startup; Close cancels
// the periodic cache sweep.
type CatalogService struct {
	cats      CategoryStore
	brands    BrandStore
	prods     ProductStore
	analytics AnalyticsStore
	cache     *cache.Manager

	mu    sync.Mutex
	state Snapshot

	// filterSeq tags each filtered fetch; responses carrying a stale tag
	// are discarded instead of overwriting a newer result.
	filterSeq atomic.Uint64

	sweepStop chan struct{}
	closeOnce sync.Once
}

func NewCatalogService(cats CategoryStore, brands BrandStore, prods ProductStore, analytics AnalyticsStore, cm *cache.Manager) *CatalogService {
	return &CatalogService{
		cats:      cats,
		brands:    brands,
		prods:     prods,
		analytics: analytics,
		cache:     cm,
		state:     Snapshot{Loading: true},
		sweepStop: make(chan struct{}),
	}
}

// StartSweep runs Cleanup on a fixed interval until Close.
func (s *CatalogService) StartSweep(interval time.Duration) {
	if interval <= 0 {
		interval = cache.DefaultSweepInterval
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.cache.Cleanup()
			case <-s.sweepStop:
				return
			}
		}
	}()
}

func (s *CatalogService) Close() {
	s.closeOnce.Do(func() { close(s.sweepStop) })
}

// Snapshot returns a copy of the current read model.
func (s *CatalogService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CatalogService) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()
}

// finish always clears the loading flag, success or failure.
func (s *CatalogService) finish(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	if err != nil {
		s.state.Err = humanMsg(op, err)
	}
}

// LoadAll fetches categories, brands, raw products and the most-requested
// ranking (cache-first), then joins brand/category display names onto each
// product against the just-fetched lists. The join is O(products x
// (brands+categories)); acceptable at catalog scale. Loading drops only
// after all four settle; individual failures land in the error state.
func (s *CatalogService) LoadAll() (err error) {
	s.begin()
	var errs []string
	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		if len(errs) > 0 {
			s.state.Err = strings.Join(errs, "; ")
		}
		s.mu.Unlock()
	}()

	cats, cerr := s.cachedCategories()
	if cerr != nil {
		errs = append(errs, humanMsg("loadAll.categories", cerr))
		err = cerr
	}
	brands, berr := s.cachedBrands()
	if berr != nil {
		errs = append(errs, humanMsg("loadAll.brands", berr))
		err = berr
	}

	var products []domain.ProductView
	if v, ok := s.cache.Get("products_raw"); ok {
		products = v.([]domain.ProductView)
	} else {
		var perr error
		products, perr = s.prods.List()
		if perr != nil {
			errs = append(errs, humanMsg("loadAll.products", perr))
			err = perr
		} else {
			s.cache.Set("products_raw", products, cache.TTLProducts)
		}
	}

	var most []domain.MostRequested
	if v, ok := s.cache.Get("most_requested"); ok {
		most = v.([]domain.MostRequested)
	} else {
		var merr error
		most, merr = s.analytics.MostRequested(10)
		if merr != nil {
			errs = append(errs, humanMsg("loadAll.mostRequested", merr))
			err = merr
		} else {
			s.cache.Set("most_requested", most, cache.TTLMostRequested)
		}
	}

	joined := joinNames(products, brands, cats)

	s.mu.Lock()
	s.state.Categories = cats
	s.state.Brands = brands
	s.state.Products = joined
	s.state.MostRequested = most
	s.mu.Unlock()
	return err
}

func (s *CatalogService) cachedCategories() ([]domain.Category, error) {
	if v, ok := s.cache.Get("categories"); ok {
		return v.([]domain.Category), nil
	}
	cats, err := s.cats.List()
	if err != nil {
		return nil, err
	}
	s.cache.Set("categories", cats, cache.TTLCategories)
	return cats, nil
}

func (s *CatalogService) cachedBrands() ([]domain.Brand, error) {
	if v, ok := s.cache.Get("brands"); ok {
		return v.([]domain.Brand), nil
	}
	brands, err := s.brands.List()
	if err != nil {
		return nil, err
	}
	s.cache.Set("brands", brands, cache.TTLBrands)
	return brands, nil
}

// joinNames fills brand and category display names from the entity lists.
func joinNames(products []domain.ProductView, brands []domain.Brand, cats []domain.Category) []domain.ProductView {
	out := make([]domain.ProductView, len(products))
	copy(out, products)
	for i := range out {
		if out[i].BrandName == "" {
			out[i].BrandName = domain.GenericBrand
			for _, b := range brands {
				if b.ID == out[i].BrandID {
					out[i].BrandName = b.Name
					break
				}
			}
		}
		if out[i].CategoryName == "" {
			for _, c := range cats {
				if c.ID == out[i].CategoryID {
					out[i].CategoryName = c.Name
					break
				}
			}
		}
	}
	return out
}

// FetchFiltered delegates to the server-side filtered fetch. The cache key
// incorporates the full criteria so distinct combinations cache
// independently, with the shortest TTL. A response that arrives after a
// newer request has started is returned to its caller but never overwrites
// the shared read model.
func (s *CatalogService) FetchFiltered(f repos.ProductFilters) (ps []domain.ProductView, err error) {
	tok := s.filterSeq.Add(1)
	s.begin()
	defer func() { s.finish("fetchFiltered", err) }()

	key := s.cache.GenerateKey("filtered_products", f)
	if v, ok := s.cache.Get(key); ok {
		ps = v.([]domain.ProductView)
		s.commitFiltered(tok, ps)
		return ps, nil
	}

	ps, err = s.prods.ListWithOffers(f)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, ps, cache.TTLFiltered)
	s.commitFiltered(tok, ps)
	return ps, nil
}

func (s *CatalogService) commitFiltered(tok uint64, ps []domain.ProductView) bool {
	if s.filterSeq.Load() != tok {
		return false
	}
	s.mu.Lock()
	s.state.Products = ps
	s.mu.Unlock()
	return true
}

// FetchByID is cache-first; a hit skips the data service entirely.
func (s *CatalogService) FetchByID(id string) (p domain.ProductView, err error) {
	s.begin()
	defer func() { s.finish("fetchProductById", err) }()

	key := "product_by_id_" + id
	if v, ok := s.cache.Get(key); ok {
		p = v.(domain.ProductView)
	} else {
		p, err = s.prods.GetByID(id)
		if err != nil {
			return domain.ProductView{}, err
		}
		s.cache.Set(key, p, cache.TTLProductByID)
	}

	s.mu.Lock()
	s.state.SelectedProduct = &p
	s.mu.Unlock()
	return p, nil
}

// FetchByCategory loads the most-stocked-first category listing.
func (s *CatalogService) FetchByCategory() (ps []domain.ProductView, err error) {
	s.begin()
	defer func() { s.finish("fetchProductsByCategory", err) }()

	if v, ok := s.cache.Get("products_by_category"); ok {
		ps = v.([]domain.ProductView)
	} else {
		ps, err = s.prods.ListByCategory()
		if err != nil {
			return nil, err
		}
		s.cache.Set("products_by_category", ps, cache.TTLByCategory)
	}

	s.mu.Lock()
	s.state.ProductsByCategory = ps
	s.mu.Unlock()
	return ps, nil
}

// productWritePrefixes are every cache prefix a product write could leave
// stale. Invalidate broad, reload everything: writes are rare relative to
// reads in this catalog.
var productWritePrefixes = []string{
	"products", "filtered_products", "products_raw", "products_by_category", "most_requested",
}

// CreateProduct performs the write, invalidates broadly and resynchronizes
// the whole read model. On failure nothing local is touched.
func (s *CatalogService) CreateProduct(in domain.ProductInput) (p domain.Product, err error) {
	s.begin()
	defer func() { s.finish("createProduct", err) }()

	p, err = s.prods.Create(in)
	if err != nil {
		return domain.Product{}, err
	}
	for _, prefix := range productWritePrefixes {
		s.cache.Invalidate(prefix)
	}
	_ = s.LoadAll()
	return p, nil
}

// CreateCategory appends optimistically and point-invalidates only the
// categories key. Deliberately asymmetric with CreateProduct's full reload;
// see DESIGN.md.
func (s *CatalogService) CreateCategory(name, description string) (c domain.Category, err error) {
	s.begin()
	defer func() { s.finish("createCategory", err) }()

	c, err = s.cats.Create(name, description)
	if err != nil {
		return domain.Category{}, err
	}
	s.cache.Invalidate("categories")
	s.mu.Lock()
	s.state.Categories = append(s.state.Categories, c)
	s.mu.Unlock()
	return c, nil
}

func (s *CatalogService) CreateBrand(name, description string) (b domain.Brand, err error) {
	s.begin()
	defer func() { s.finish("createBrand", err) }()

	b, err = s.brands.Create(name, description)
	if err != nil {
		return domain.Brand{}, err
	}
	s.cache.Invalidate("brands")
	s.mu.Lock()
	s.state.Brands = append(s.state.Brands, b)
	s.mu.Unlock()
	return b, nil
}

// RegisterConsultation records the inquiry event behind the WhatsApp
// hand-off. It reports success but never fails the caller: the hand-off
// must complete whether or not analytics does.
func (s *CatalogService) RegisterConsultation(productID string, meta domain.ConsultationMeta) bool {
	err := s.analytics.RegisterConsultation(productID, meta)
	if err != nil {
		s.mu.Lock()
		s.state.Err = humanMsg("registerConsultation", err)
		s.mu.Unlock()
		return false
	}
	s.cache.Invalidate("most_requested")
	return true
}

// RefreshData drops everything cached and reloads.
func (s *CatalogService) RefreshData() error {
	s.cache.Clear()
	return s.LoadAll()
}

func (s *CatalogService) CacheStats() cache.Stats           { return s.cache.Stats() }
func (s *CatalogService) InvalidateCache(prefix string) int { return s.cache.Invalidate(prefix) }

// humanMsg extracts a human-readable message, falling back to a generic
// per-operation string when the underlying error has none.
func humanMsg(op string, err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "error in " + op
}

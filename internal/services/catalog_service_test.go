package services_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"glowshop/internal/cache"
	"glowshop/internal/domain"
	"glowshop/internal/repos"
	"glowshop/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// One in-memory sqlite database per connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newCatalog(t *testing.T, db *sqlx.DB, prods services.ProductStore, analytics services.AnalyticsStore) (*services.CatalogService, *cache.Manager) {
	t.Helper()
	cm := cache.NewManager()
	if prods == nil {
		prods = repos.NewProductRepo(db)
	}
	if analytics == nil {
		analytics = repos.NewAnalyticsRepo(db)
	}
	svc := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewBrandRepo(db), prods, analytics, cm)
	t.Cleanup(svc.Close)
	return svc, cm
}

func TestLoadAllJoinsBrandAndCategoryNames(t *testing.T) {
	db := memdb(t)
	svc, _ := newCatalog(t, db, nil, nil)

	if err := svc.LoadAll(); err != nil {
		t.Fatalf("loadAll: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Loading {
		t.Fatal("loading must be false after loadAll settles")
	}
	if snap.Err != "" {
		t.Fatalf("unexpected error state: %s", snap.Err)
	}
	if len(snap.Products) != 3 || len(snap.Brands) != 3 || len(snap.Categories) != 4 {
		t.Fatalf("bad snapshot sizes: %d products, %d brands, %d categories",
			len(snap.Products), len(snap.Brands), len(snap.Categories))
	}
	var labial *domain.ProductView
	for i := range snap.Products {
		if snap.Products[i].ID == "labial-chanel-01" {
			labial = &snap.Products[i]
		}
	}
	if labial == nil {
		t.Fatal("seeded labial missing from snapshot")
	}
	if labial.BrandName != "Chanel" || labial.CategoryName != "Labiales" {
		t.Fatalf("local join failed: brand=%q category=%q", labial.BrandName, labial.CategoryName)
	}
}

// countingStore counts pass-throughs so tests can prove a cache hit skipped
// the data service.
type countingStore struct {
	services.ProductStore
	mu    sync.Mutex
	byID  int
	lists int
}

func (c *countingStore) GetByID(id string) (domain.ProductView, error) {
	c.mu.Lock()
	c.byID++
	c.mu.Unlock()
	return c.ProductStore.GetByID(id)
}

func (c *countingStore) List() ([]domain.ProductView, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.ProductStore.List()
}

func TestFetchByIDCacheHitSkipsDataService(t *testing.T) {
	db := memdb(t)
	cs := &countingStore{ProductStore: repos.NewProductRepo(db)}
	svc, _ := newCatalog(t, db, cs, nil)

	p1, err := svc.FetchByID("base-mac-01")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	p2, err := svc.FetchByID("base-mac-01")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if cs.byID != 1 {
		t.Fatalf("cache hit should skip the store, got %d calls", cs.byID)
	}
	if p1.ID != p2.ID || p2.BrandName != "MAC" {
		t.Fatalf("cached product differs: %+v vs %+v", p1, p2)
	}
	if sel := svc.Snapshot().SelectedProduct; sel == nil || sel.ID != "base-mac-01" {
		t.Fatal("selected product not tracked")
	}
}

func TestFetchByIDNotFoundSettlesState(t *testing.T) {
	db := memdb(t)
	svc, _ := newCatalog(t, db, nil, nil)

	_, err := svc.FetchByID("no-such-product")
	if err == nil {
		t.Fatal("want error for unknown id")
	}
	if !repos.IsNotFound(err) {
		t.Fatalf("want not-found kind, got %v", err)
	}
	snap := svc.Snapshot()
	if snap.Loading {
		t.Fatal("loading must reset after a failed operation")
	}
	if snap.Err == "" {
		t.Fatal("error state must carry a message")
	}
}

func TestFetchFilteredUsesCachePerCriteria(t *testing.T) {
	db := memdb(t)
	svc, cm := newCatalog(t, db, nil, nil)

	onSale := false
	f := repos.ProductFilters{Search: "labial", OnSale: &onSale}
	ps, err := svc.FetchFiltered(f)
	if err != nil {
		t.Fatalf("filtered fetch: %v", err)
	}
	if len(ps) != 1 || ps[0].ID != "labial-chanel-01" {
		t.Fatalf("bad filtered result: %+v", ps)
	}
	key := cm.GenerateKey("filtered_products", f)
	if _, ok := cm.Get(key); !ok {
		t.Fatal("filtered result not cached under its criteria key")
	}
	// A different combination caches independently.
	other := cm.GenerateKey("filtered_products", repos.ProductFilters{Search: "base"})
	if key == other {
		t.Fatal("distinct criteria must not share a cache key")
	}
}

// gatedStore holds a chosen filtered fetch open until released, simulating
// a slow earlier response arriving after a newer one.
type gatedStore struct {
	services.ProductStore
	gate chan struct{}
	slow string
}

func (g *gatedStore) ListWithOffers(f repos.ProductFilters) ([]domain.ProductView, error) {
	if f.Search == g.slow {
		<-g.gate
	}
	return g.ProductStore.ListWithOffers(f)
}

func TestStaleFilteredResponseDoesNotOverwriteNewer(t *testing.T) {
	db := memdb(t)
	gs := &gatedStore{ProductStore: repos.NewProductRepo(db), gate: make(chan struct{}), slow: "base"}
	svc, _ := newCatalog(t, db, gs, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Older request, slow response.
		_, _ = svc.FetchFiltered(repos.ProductFilters{Search: "base"})
	}()
	time.Sleep(50 * time.Millisecond) // let the old request take its token

	// Newer request wins the read model.
	if _, err := svc.FetchFiltered(repos.ProductFilters{Search: "labial"}); err != nil {
		t.Fatalf("newer fetch: %v", err)
	}
	close(gs.gate)
	wg.Wait()

	snap := svc.Snapshot()
	if len(snap.Products) != 1 || snap.Products[0].ID != "labial-chanel-01" {
		t.Fatalf("stale response overwrote newer result: %+v", snap.Products)
	}
}

func TestCreateProductInvalidatesAndResyncs(t *testing.T) {
	db := memdb(t)
	svc, cm := newCatalog(t, db, nil, nil)
	if err := svc.LoadAll(); err != nil {
		t.Fatalf("loadAll: %v", err)
	}

	p, err := svc.CreateProduct(domain.ProductInput{
		Name: "Serum Vitamina C", CategoryID: "cuidado-piel", BrandID: "maybelline",
		Qty: 5, BasePrice: 22.00, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := svc.Snapshot()
	if len(snap.Products) != 4 {
		t.Fatalf("read model not resynced, got %d products", len(snap.Products))
	}
	found := false
	for _, pv := range snap.Products {
		if pv.ID == p.ID {
			found = true
			if pv.BrandName != "Maybelline" || pv.CategoryName != "Cuidado de Piel" {
				t.Fatalf("new product not joined: %+v", pv)
			}
		}
	}
	if !found {
		t.Fatal("created product missing after resync")
	}
	// Resync repopulates the raw products key with the fresh list.
	if v, ok := cm.Get("products_raw"); !ok || len(v.([]domain.ProductView)) != 4 {
		t.Fatal("stale products cache survived the write")
	}
}

func TestCreateProductFailureDoesNotTouchState(t *testing.T) {
	db := memdb(t)
	svc, _ := newCatalog(t, db, nil, nil)
	if err := svc.LoadAll(); err != nil {
		t.Fatalf("loadAll: %v", err)
	}

	_, err := svc.CreateProduct(domain.ProductInput{Name: "", BasePrice: 10})
	if err == nil {
		t.Fatal("want validation failure")
	}
	snap := svc.Snapshot()
	if len(snap.Products) != 3 {
		t.Fatal("failed create must not change the read model")
	}
	if snap.Loading || snap.Err == "" {
		t.Fatalf("failed create must settle with an error message: %+v", snap.Err)
	}
}

func TestCreateCategoryAppendsLocally(t *testing.T) {
	db := memdb(t)
	svc, _ := newCatalog(t, db, nil, nil)
	if err := svc.LoadAll(); err != nil {
		t.Fatalf("loadAll: %v", err)
	}

	c, err := svc.CreateCategory("Esmaltes", "Esmaltes de uñas")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	snap := svc.Snapshot()
	if len(snap.Categories) != 5 {
		t.Fatalf("optimistic append missing, got %d categories", len(snap.Categories))
	}
	if snap.Categories[len(snap.Categories)-1].ID != c.ID {
		t.Fatal("appended category is not the created one")
	}
	// No full reload: product list untouched.
	if len(snap.Products) != 3 {
		t.Fatal("category create must not reload products")
	}
}

type failingAnalytics struct{}

func (failingAnalytics) RegisterConsultation(string, domain.ConsultationMeta) error {
	return errors.New("rpc unavailable")
}
func (failingAnalytics) MostRequested(int) ([]domain.MostRequested, error) {
	return nil, nil
}

func TestConsultationFailureIsNonFatal(t *testing.T) {
	db := memdb(t)
	svc, _ := newCatalog(t, db, nil, failingAnalytics{})

	ok := svc.RegisterConsultation("base-mac-01", domain.ConsultationMeta{SessionID: "s1"})
	if ok {
		t.Fatal("want failure report")
	}
	snap := svc.Snapshot()
	if !strings.Contains(snap.Err, "rpc unavailable") {
		t.Fatalf("failure not recorded in error state: %q", snap.Err)
	}
}

func TestConsultationSuccessInvalidatesRanking(t *testing.T) {
	db := memdb(t)
	svc, cm := newCatalog(t, db, nil, nil)
	cm.Set("most_requested", []domain.MostRequested{}, time.Minute)

	if !svc.RegisterConsultation("base-mac-01", domain.ConsultationMeta{UserAgent: "test"}) {
		t.Fatal("consultation should register")
	}
	if _, ok := cm.Get("most_requested"); ok {
		t.Fatal("ranking cache must be invalidated after a consultation")
	}
	// The ranking now reflects the appended event.
	most, err := repos.NewAnalyticsRepo(db).MostRequested(5)
	if err != nil {
		t.Fatalf("most requested: %v", err)
	}
	if len(most) != 1 || most[0].ProductID != "base-mac-01" || most[0].TotalConsultations != 1 {
		t.Fatalf("ranking wrong: %+v", most)
	}
}

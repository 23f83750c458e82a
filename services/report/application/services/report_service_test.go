package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/foundly/pkg/config"
	"github.com/ghuser/foundly/pkg/logger"
	"github.com/ghuser/foundly/pkg/storage"
	reportdomain "github.com/ghuser/foundly/services/report/domain"
	domainevents "github.com/ghuser/foundly/services/report/domain/events"
	"github.com/ghuser/foundly/services/report/domain/models"
	"github.com/ghuser/foundly/services/report/domain/repositories"
)

// --- fakes ---

// fakeTxRunner runs the transaction body directly with a nil *sql.Tx; the
// fake repositories ignore the tx handle.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeReportRepo struct {
	reports map[uuid.UUID]*models.Report

	createErr error
	updateErr error

	deleted     []uuid.UUID
	findAllSeen repositories.ListParams
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*models.Report)}
}

func (f *fakeReportRepo) Create(_ context.Context, _ *sql.Tx, report *models.Report) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, reportdomain.ErrReportNotFound
	}
	return r, nil
}

func (f *fakeReportRepo) GetOwned(_ context.Context, _ *sql.Tx, id, reporterID uuid.UUID) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok || r.ReporterID != reporterID {
		return nil, reportdomain.ErrReportNotFound
	}
	return r, nil
}

func (f *fakeReportRepo) FindByReporter(_ context.Context, reporterID uuid.UUID) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range f.reports {
		if r.ReporterID == reporterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) Update(_ context.Context, _ *sql.Tx, id, reporterID uuid.UUID, _ models.ReportPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	r, ok := f.reports[id]
	if !ok || r.ReporterID != reporterID {
		return reportdomain.ErrReportNotFound
	}
	return nil
}

func (f *fakeReportRepo) Delete(_ context.Context, _ *sql.Tx, id uuid.UUID) error {
	if _, ok := f.reports[id]; !ok {
		return reportdomain.ErrReportNotFound
	}
	delete(f.reports, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeReportRepo) FindAll(_ context.Context, params repositories.ListParams) ([]*models.Report, int, error) {
	f.findAllSeen = params
	var out []*models.Report
	for _, r := range f.reports {
		out = append(out, r)
	}
	return out, len(out), nil
}

type fakeItemRepo struct {
	items map[uuid.UUID]*models.Item

	createErr error
	updateErr error

	updateCalls int
	deleted     []uuid.UUID
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*models.Item)}
}

func (f *fakeItemRepo) Create(_ context.Context, _ *sql.Tx, item *models.Item) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	i, ok := f.items[id]
	if !ok {
		return nil, reportdomain.ErrItemNotFound
	}
	return i, nil
}

func (f *fakeItemRepo) Update(_ context.Context, _ *sql.Tx, id uuid.UUID, _ models.ItemPatch, newImages []models.Image) (*models.Item, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	i, ok := f.items[id]
	if !ok {
		return nil, reportdomain.ErrItemNotFound
	}
	if !i.CanAddImages(len(newImages)) {
		return nil, reportdomain.ErrTooManyImages
	}
	i.Images = append(i.Images, newImages...)
	return i, nil
}

func (f *fakeItemRepo) Delete(_ context.Context, _ *sql.Tx, id uuid.UUID) (*models.Item, error) {
	i, ok := f.items[id]
	if !ok {
		return nil, reportdomain.ErrItemNotFound
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return i, nil
}

type fakeUploader struct {
	uploadErr error

	uploads int
	deletes [][]string
}

func (f *fakeUploader) UploadMany(_ context.Context, files []storage.File, folder string, maxCount int) ([]storage.ImageHandle, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if len(files) > maxCount {
		return nil, storage.ErrTooManyFiles
	}
	f.uploads += len(files)
	handles := make([]storage.ImageHandle, len(files))
	for i := range files {
		id := fmt.Sprintf("%s/up-%d", folder, i)
		handles[i] = storage.ImageHandle{PublicID: id, URL: "http://example/" + id}
	}
	return handles, nil
}

func (f *fakeUploader) DeleteMany(_ context.Context, ids []string) {
	f.deletes = append(f.deletes, ids)
}

type fakeCache struct {
	store map[uuid.UUID][]byte

	getErr error
	delErr error

	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[uuid.UUID][]byte)}
}

func (f *fakeCache) Get(_ context.Context, userID uuid.UUID) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	payload, ok := f.store[userID]
	if !ok {
		return nil, redis.Nil
	}
	return payload, nil
}

func (f *fakeCache) Set(_ context.Context, userID uuid.UUID, payload []byte) error {
	f.sets++
	f.store[userID] = payload
	return nil
}

func (f *fakeCache) Delete(_ context.Context, userID uuid.UUID) error {
	f.deletes++
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.store, userID)
	return nil
}

// fakeBus records every message published through its tx publishers.
type fakeBus struct {
	published map[string][]*message.Message
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: make(map[string][]*message.Message)}
}

func (f *fakeBus) NewTxPublisher(_ *sql.Tx) (message.Publisher, error) {
	return &fakePublisher{bus: f}, nil
}

type fakePublisher struct{ bus *fakeBus }

func (p *fakePublisher) Publish(topic string, messages ...*message.Message) error {
	p.bus.published[topic] = append(p.bus.published[topic], messages...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// --- harness ---

type serviceHarness struct {
	svc      *ReportService
	reports  *fakeReportRepo
	items    *fakeItemRepo
	uploader *fakeUploader
	cache    *fakeCache
	tx       *fakeTxRunner
	bus      *fakeBus
}

func newHarness() *serviceHarness {
	h := &serviceHarness{
		reports:  newFakeReportRepo(),
		items:    newFakeItemRepo(),
		uploader: &fakeUploader{},
		cache:    newFakeCache(),
		tx:       &fakeTxRunner{},
		bus:      newFakeBus(),
	}
	log := logger.New(&config.Config{LogLevel: "error"})
	h.svc = NewReportService(h.reports, h.items, h.uploader, h.cache, h.tx, h.bus, log)
	return h
}

func validInput() CreateReportInput {
	return CreateReportInput{
		Title:       "lost backpack",
		Type:        "lost",
		Location:    "Central Station",
		Date:        time.Now().Add(-time.Hour),
		ContactInfo: "call 555-0101",
		Item: CreateItemInput{
			Name:        "backpack",
			Description: "black backpack",
			CategoryID:  uuid.New(),
		},
	}
}

func testFiles(n int) []storage.File {
	files := make([]storage.File, n)
	for i := range files {
		files[i] = storage.File{Name: fmt.Sprintf("photo-%d.jpg", i), ContentType: "image/jpeg"}
	}
	return files
}

// seedReport puts a committed report + item pair into the fakes.
func (h *serviceHarness) seedReport(t *testing.T, reporterID uuid.UUID, imageCount int) *models.Report {
	t.Helper()
	item, err := models.NewItem("backpack", "black backpack", uuid.New(), "", "", "", nil)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	for i := 0; i < imageCount; i++ {
		item.Images = append(item.Images, models.Image{PublicID: fmt.Sprintf("reports/seed-%d", i)})
	}
	h.items.items[item.ID] = item

	report, err := models.NewReport("lost backpack", models.TypeLost, "Central Station",
		time.Now().Add(-time.Hour), "call 555-0101", "", reporterID, item.ID)
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}
	h.reports.reports[report.ID] = report
	return report
}

// --- Create ---

func TestCreate_PersistsItemAndReportAtomically(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()

	report, err := h.svc.Create(context.Background(), reporterID, validInput(), testFiles(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.reports.reports) != 1 {
		t.Errorf("expected 1 report persisted, got %d", len(h.reports.reports))
	}
	if len(h.items.items) != 1 {
		t.Errorf("expected 1 item persisted, got %d", len(h.items.items))
	}
	if report.ReporterID != reporterID {
		t.Errorf("expected reporter %v, got %v", reporterID, report.ReporterID)
	}
	if h.tx.calls != 1 {
		t.Errorf("expected 1 transaction, got %d", h.tx.calls)
	}
	if h.uploader.uploads != 2 {
		t.Errorf("expected 2 uploads, got %d", h.uploader.uploads)
	}
	if len(h.bus.published[domainevents.TopicReportCreated]) != 1 {
		t.Errorf("expected 1 report.created event, got %d", len(h.bus.published[domainevents.TopicReportCreated]))
	}
}

func TestCreate_InvalidType(t *testing.T) {
	h := newHarness()
	input := validInput()
	input.Type = "stolen"

	_, err := h.svc.Create(context.Background(), uuid.New(), input, nil)
	if !errors.Is(err, reportdomain.ErrInvalidReportType) {
		t.Fatalf("expected ErrInvalidReportType, got %v", err)
	}
	if h.uploader.uploads != 0 {
		t.Error("expected no uploads for rejected type")
	}
	if h.tx.calls != 0 {
		t.Error("expected no transaction for rejected type")
	}
}

func TestCreate_ReportWriteFailureRollsBackAndDiscardsUploads(t *testing.T) {
	h := newHarness()
	h.reports.createErr = errors.New("unique violation")

	_, err := h.svc.Create(context.Background(), uuid.New(), validInput(), testFiles(3))
	if err == nil {
		t.Fatal("expected error")
	}

	// Nothing committed: the item write from the same transaction must not
	// survive the report failure. The fake runner applied it, the real
	// database rolls it back; either way no report row exists.
	if len(h.reports.reports) != 0 {
		t.Error("expected no report persisted")
	}
	// The pre-transaction uploads must be compensated.
	if len(h.uploader.deletes) != 1 || len(h.uploader.deletes[0]) != 3 {
		t.Fatalf("expected one compensating delete of 3 objects, got %v", h.uploader.deletes)
	}
	if h.cache.deletes != 0 {
		t.Error("expected no cache invalidation on failed create")
	}
}

func TestCreate_InvalidItemDiscardsUploads(t *testing.T) {
	h := newHarness()
	input := validInput()
	input.Item.Name = ""

	_, err := h.svc.Create(context.Background(), uuid.New(), input, testFiles(1))
	if !errors.Is(err, reportdomain.ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport, got %v", err)
	}
	if len(h.uploader.deletes) != 1 {
		t.Fatalf("expected compensating delete, got %v", h.uploader.deletes)
	}
}

func TestCreate_TooManyImages(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Create(context.Background(), uuid.New(), validInput(), testFiles(models.MaxItemImages+1))
	if !errors.Is(err, storage.ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	if h.tx.calls != 0 {
		t.Error("expected no transaction when upload is rejected")
	}
}

func TestCreate_InvalidatesCache(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()
	h.cache.store[reporterID] = []byte(`[]`)

	if _, err := h.svc.Create(context.Background(), reporterID, validInput(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.cache.store[reporterID]; ok {
		t.Error("expected reporter's cache entry to be invalidated")
	}
}

// --- FindMine ---

func TestFindMine_CacheHit(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()
	h.seedReport(t, reporterID, 0)
	h.cache.store[reporterID] = []byte(`[{"id":"` + uuid.NewString() + `","title":"cached title"}]`)

	list, err := h.svc.FindMine(context.Background(), reporterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !list.Cached {
		t.Error("expected cached result")
	}
	if len(list.Reports) != 1 || list.Reports[0].Title != "cached title" {
		t.Fatalf("expected the cached payload to be served, got %+v", list.Reports)
	}
}

func TestFindMine_CacheMissPopulatesCache(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()
	h.seedReport(t, reporterID, 0)

	list, err := h.svc.FindMine(context.Background(), reporterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Cached {
		t.Error("expected uncached result on miss")
	}
	if len(list.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(list.Reports))
	}
	if h.cache.sets != 1 {
		t.Errorf("expected cache population after miss, got %d sets", h.cache.sets)
	}
}

func TestFindMine_NoReports(t *testing.T) {
	h := newHarness()

	_, err := h.svc.FindMine(context.Background(), uuid.New())
	if !errors.Is(err, reportdomain.ErrNoReports) {
		t.Fatalf("expected ErrNoReports, got %v", err)
	}
	if h.cache.sets != 0 {
		t.Error("expected no cache write for empty result")
	}
}

func TestFindMine_CacheFailureFallsThrough(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()
	h.seedReport(t, reporterID, 0)
	h.cache.getErr = errors.New("redis down")

	list, err := h.svc.FindMine(context.Background(), reporterID)
	if err != nil {
		t.Fatalf("expected repository fallback, got error: %v", err)
	}
	if list.Cached {
		t.Error("expected uncached result when cache is down")
	}
	if len(list.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(list.Reports))
	}
}

func TestFindMine_UndecodableCacheEntryDiscarded(t *testing.T) {
	h := newHarness()
	reporterID := uuid.New()
	h.seedReport(t, reporterID, 0)
	h.cache.store[reporterID] = []byte(`{not json`)

	list, err := h.svc.FindMine(context.Background(), reporterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Cached {
		t.Error("expected repository result for corrupt cache entry")
	}
}

// --- FindAll ---

func TestFindAll_NormalizesParams(t *testing.T) {
	h := newHarness()
	h.seedReport(t, uuid.New(), 0)

	page, err := h.svc.FindAll(context.Background(), repositories.ListParams{Page: -1, Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.reports.findAllSeen.Page != 1 || h.reports.findAllSeen.Limit != 10 {
		t.Errorf("expected normalized params, repo saw %+v", h.reports.findAllSeen)
	}
	if page.Total != 1 {
		t.Errorf("expected total 1, got %d", page.Total)
	}
}

// --- Update ---

func TestUpdate_NonOwnerSeesNotFound(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)
	intruder := uuid.New()

	title := "hijacked"
	_, err := h.svc.Update(context.Background(), report.ID, intruder, models.ReportPatch{Title: &title}, nil)
	if !errors.Is(err, reportdomain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound for non-owner, got %v", err)
	}
	if h.items.updateCalls != 0 {
		t.Error("expected no item update for non-owner")
	}
}

func TestUpdate_ItemPatchReachesItemRepo(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)

	brand := "Osprey"
	patch := models.ReportPatch{Item: &models.ItemPatch{Brand: &brand}}
	if _, err := h.svc.Update(context.Background(), report.ID, owner, patch, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.items.updateCalls != 1 {
		t.Errorf("expected 1 item update, got %d", h.items.updateCalls)
	}
}

func TestUpdate_ReportOnlyPatchSkipsItemRepo(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)

	title := "new title"
	if _, err := h.svc.Update(context.Background(), report.ID, owner, models.ReportPatch{Title: &title}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.items.updateCalls != 0 {
		t.Errorf("expected no item update, got %d", h.items.updateCalls)
	}
}

func TestUpdate_ImageCapEnforcedAgainstExisting(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, models.MaxItemImages-1)

	_, err := h.svc.Update(context.Background(), report.ID, owner, models.ReportPatch{}, testFiles(2))
	if !errors.Is(err, reportdomain.ErrTooManyImages) {
		t.Fatalf("expected ErrTooManyImages, got %v", err)
	}
	// The two pre-transaction uploads must be compensated after the abort.
	if len(h.uploader.deletes) != 1 || len(h.uploader.deletes[0]) != 2 {
		t.Fatalf("expected compensating delete of 2 objects, got %v", h.uploader.deletes)
	}
}

func TestUpdate_NewImagesWithinCapAppended(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 2)

	if _, err := h.svc.Update(context.Background(), report.ID, owner, models.ReportPatch{}, testFiles(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := h.items.items[report.ItemID]
	if len(item.Images) != models.MaxItemImages {
		t.Errorf("expected %d images after append, got %d", models.MaxItemImages, len(item.Images))
	}
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)
	h.cache.store[owner] = []byte(`[]`)

	title := "updated"
	if _, err := h.svc.Update(context.Background(), report.ID, owner, models.ReportPatch{Title: &title}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.cache.store[owner]; ok {
		t.Error("expected owner's cache entry to be invalidated")
	}
}

// --- Delete ---

func TestDelete_CascadesAndPurgesImages(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 3)

	if err := h.svc.Delete(context.Background(), report.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.reports.reports) != 0 {
		t.Error("expected report removed")
	}
	if len(h.items.items) != 0 {
		t.Error("expected item removed")
	}
	if len(h.uploader.deletes) != 1 || len(h.uploader.deletes[0]) != 3 {
		t.Fatalf("expected purge of 3 image objects, got %v", h.uploader.deletes)
	}

	msgs := h.bus.published[domainevents.TopicReportDeleted]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 report.deleted event, got %d", len(msgs))
	}
}

func TestDelete_NonOwnerSeesNotFound(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 1)

	err := h.svc.Delete(context.Background(), report.ID, uuid.New())
	if !errors.Is(err, reportdomain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound for non-owner, got %v", err)
	}
	if len(h.reports.reports) != 1 || len(h.items.items) != 1 {
		t.Error("expected nothing deleted for non-owner")
	}
	if len(h.uploader.deletes) != 0 {
		t.Error("expected no image purge for non-owner")
	}
}

func TestDelete_InvalidatesCache(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)
	h.cache.store[owner] = []byte(`[]`)

	if err := h.svc.Delete(context.Background(), report.ID, owner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.cache.store[owner]; ok {
		t.Error("expected owner's cache entry to be invalidated")
	}
}

func TestDelete_CacheFailureDoesNotFailDelete(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 0)
	h.cache.delErr = errors.New("redis down")

	if err := h.svc.Delete(context.Background(), report.ID, owner); err != nil {
		t.Fatalf("expected delete to succeed despite cache failure, got %v", err)
	}
	if len(h.reports.reports) != 0 {
		t.Error("expected report removed")
	}
}

// --- AdminDelete ---

func TestAdminDelete_BypassesOwnershipAndInvalidatesOwnerCache(t *testing.T) {
	h := newHarness()
	owner := uuid.New()
	report := h.seedReport(t, owner, 2)
	h.cache.store[owner] = []byte(`[]`)

	if err := h.svc.AdminDelete(context.Background(), report.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.reports.reports) != 0 || len(h.items.items) != 0 {
		t.Error("expected report and item removed")
	}
	if _, ok := h.cache.store[owner]; ok {
		t.Error("expected owner's cache entry to be invalidated by admin delete")
	}
	if len(h.uploader.deletes) != 1 || len(h.uploader.deletes[0]) != 2 {
		t.Fatalf("expected purge of 2 image objects, got %v", h.uploader.deletes)
	}
}

func TestAdminDelete_MissingReport(t *testing.T) {
	h := newHarness()

	err := h.svc.AdminDelete(context.Background(), uuid.New())
	if !errors.Is(err, reportdomain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/foundly/pkg/logger"
	"github.com/ghuser/foundly/pkg/storage"
	reportdomain "github.com/ghuser/foundly/services/report/domain"
	domainevents "github.com/ghuser/foundly/services/report/domain/events"
	"github.com/ghuser/foundly/services/report/domain/models"
	"github.com/ghuser/foundly/services/report/domain/repositories"
	domainsvcs "github.com/ghuser/foundly/services/report/domain/services"
)

// imageFolder is the object-store prefix for report item photos.
const imageFolder = "reports"

// TxRunner runs a function inside a database transaction that commits when
// the function returns nil and rolls back otherwise. *database.Database
// satisfies this; tests substitute a fake.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ImageUploader is the object-store collaborator contract.
// *storage.ImageStore satisfies this.
type ImageUploader interface {
	UploadMany(ctx context.Context, files []storage.File, folder string, maxCount int) ([]storage.ImageHandle, error)
	DeleteMany(ctx context.Context, ids []string)
}

// ListCache is the per-user report list cache contract.
// *cache.ReportListCache satisfies this.
type ListCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Set(ctx context.Context, userID uuid.UUID, payload []byte) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// TxPublisher hands out Watermill publishers bound to a transaction so domain
// events commit atomically with the rows they describe (outbox pattern).
// *events.EventBus satisfies this; nil disables publishing.
type TxPublisher interface {
	NewTxPublisher(tx *sql.Tx) (message.Publisher, error)
}

// CreateItemInput carries the item fields of a new report.
type CreateItemInput struct {
	Name        string
	Description string
	CategoryID  uuid.UUID
	Brand       string
	Color       string
	UniqueMarks string
}

// CreateReportInput carries the fields of a new report and its embedded item.
type CreateReportInput struct {
	Title       string
	Type        string
	Location    string
	Date        time.Time
	ContactInfo string
	Reward      string
	Item        CreateItemInput
}

// ReportList is the result of a cache-aware own-reports read.
type ReportList struct {
	Reports []*models.Report
	Cached  bool
}

// ReportService coordinates Item + Report mutations as one transactional
// unit, owns the image lifecycle around those mutations, enforces ownership,
// and keeps the per-user listing cache coherent with writes.
//
// Consistency rules:
//   - Failures inside the transaction window always propagate and roll back
//     both writes; no Item-without-Report or Report-without-Item persists.
//   - Failures in post-commit cleanup (image purge, cache invalidation) are
//     always logged and swallowed; the committed state is authoritative.
type ReportService struct {
	reports  repositories.ReportRepository
	items    repositories.ItemRepository
	uploader ImageUploader
	cache    ListCache
	tx       TxRunner
	bus      TxPublisher
	log      logger.Logger
}

// NewReportService wires a ReportService from its collaborators.
// cache and bus may be nil, which disables caching and event publishing.
func NewReportService(
	reports repositories.ReportRepository,
	items repositories.ItemRepository,
	uploader ImageUploader,
	listCache ListCache,
	tx TxRunner,
	bus TxPublisher,
	log logger.Logger,
) *ReportService {
	return &ReportService{
		reports:  reports,
		items:    items,
		uploader: uploader,
		cache:    listCache,
		tx:       tx,
		bus:      bus,
		log:      log,
	}
}

// Create uploads the images, then creates the Item and the Report in one
// transaction and invalidates the reporter's listing cache.
//
// Uploads happen before the transaction because object-store writes cannot
// roll back; if the transaction aborts, the just-uploaded objects are removed
// best-effort so an aborted create leaves no orphans behind.
func (s *ReportService) Create(ctx context.Context, reporterID uuid.UUID, input CreateReportInput, files []storage.File) (*models.Report, error) {
	typ, err := models.NewReportType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reportdomain.ErrInvalidReportType, err)
	}

	var uploaded []storage.ImageHandle
	if len(files) > 0 {
		uploaded, err = s.uploader.UploadMany(ctx, files, imageFolder, models.MaxItemImages)
		if err != nil {
			return nil, fmt.Errorf("upload images: %w", err)
		}
	}

	item, err := models.NewItem(
		input.Item.Name, input.Item.Description, input.Item.CategoryID,
		input.Item.Brand, input.Item.Color, input.Item.UniqueMarks,
		toImages(uploaded),
	)
	if err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, fmt.Errorf("%w: %w", reportdomain.ErrInvalidReport, err)
	}

	report, err := models.NewReport(
		input.Title, typ, input.Location, input.Date,
		input.ContactInfo, input.Reward, reporterID, item.ID,
	)
	if err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, fmt.Errorf("%w: %w", reportdomain.ErrInvalidReport, err)
	}
	if err := domainsvcs.ValidateReportForCreation(report); err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, fmt.Errorf("%w: %w", reportdomain.ErrInvalidReport, err)
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.items.Create(ctx, tx, item); err != nil {
			return err
		}
		if err := s.reports.Create(ctx, tx, report); err != nil {
			return err
		}
		return s.publishCreated(tx, report)
	})
	if err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, err
	}

	s.invalidate(ctx, reporterID)

	// Re-read with joins for a consistent response shape.
	return s.reports.GetByID(ctx, report.ID)
}

// FindMine returns the caller's reports, served from cache when possible.
// Cache failures fall through to the repository; correctness never depends
// on Redis. Returns ErrNoReports when the user has none.
func (s *ReportService) FindMine(ctx context.Context, reporterID uuid.UUID) (*ReportList, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, reporterID)
		switch {
		case err == nil:
			var reports []*models.Report
			if err := json.Unmarshal(payload, &reports); err == nil {
				return &ReportList{Reports: reports, Cached: true}, nil
			}
			s.log.WarnContext(ctx, "discarding undecodable report list cache entry", "reporter_id", reporterID)
		case !errors.Is(err, redis.Nil):
			s.log.WarnContext(ctx, "report list cache read failed", "reporter_id", reporterID, "error", err)
		}
	}

	reports, err := s.reports.FindByReporter(ctx, reporterID)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	if len(reports) == 0 {
		return nil, reportdomain.ErrNoReports
	}

	if s.cache != nil {
		if payload, err := json.Marshal(reports); err == nil {
			if err := s.cache.Set(ctx, reporterID, payload); err != nil {
				s.log.WarnContext(ctx, "report list cache write failed", "reporter_id", reporterID, "error", err)
			}
		}
	}

	return &ReportList{Reports: reports}, nil
}

// FindOne returns any report by id, fully joined. Public read path.
func (s *ReportService) FindOne(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// FindAll returns a filtered, searched, paginated listing. Public/admin path,
// no transaction or ownership concerns.
func (s *ReportService) FindAll(ctx context.Context, params repositories.ListParams) (repositories.Page[*models.Report], error) {
	params = params.Normalize()
	reports, total, err := s.reports.FindAll(ctx, params)
	if err != nil {
		return repositories.Page[*models.Report]{}, fmt.Errorf("list reports: %w", err)
	}
	return repositories.NewPage(reports, total, params), nil
}

// Update mutates an owned report and, when the patch or new images touch it,
// the owned item, as one transaction. The (id, reporter) compound predicate
// is checked on the initial locked read and re-asserted by the report UPDATE;
// a non-owner caller sees ErrReportNotFound.
func (s *ReportService) Update(ctx context.Context, reportID, reporterID uuid.UUID, patch models.ReportPatch, files []storage.File) (*models.Report, error) {
	var uploaded []storage.ImageHandle
	if len(files) > 0 {
		var err error
		uploaded, err = s.uploader.UploadMany(ctx, files, imageFolder, models.MaxItemImages)
		if err != nil {
			return nil, fmt.Errorf("upload images: %w", err)
		}
	}

	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		report, err := s.reports.GetOwned(ctx, tx, reportID, reporterID)
		if err != nil {
			return err
		}

		if patch.Item != nil || len(uploaded) > 0 {
			var itemPatch models.ItemPatch
			if patch.Item != nil {
				itemPatch = *patch.Item
			}
			if _, err := s.items.Update(ctx, tx, report.ItemID, itemPatch, toImages(uploaded)); err != nil {
				return err
			}
		}

		return s.reports.Update(ctx, tx, reportID, reporterID, patch)
	})
	if err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, err
	}

	s.invalidate(ctx, reporterID)

	return s.reports.GetByID(ctx, reportID)
}

// Delete removes an owned report, cascading to its item, in one transaction,
// then purges the item's images from the object store best-effort. The purge
// runs after commit: the row deletions are authoritative even when storage
// cleanup partially fails. A report.deleted event carrying the handles is
// committed with the deletion so the worker can retry the purge.
func (s *ReportService) Delete(ctx context.Context, reportID, reporterID uuid.UUID) error {
	var purge []string

	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		report, err := s.reports.GetOwned(ctx, tx, reportID, reporterID)
		if err != nil {
			return err
		}

		// The report row goes first so the item's FK reference is gone
		// before the item row is removed.
		if err := s.reports.Delete(ctx, tx, reportID); err != nil {
			return err
		}
		item, err := s.items.Delete(ctx, tx, report.ItemID)
		if err != nil {
			return err
		}
		purge = item.PublicIDs()

		return s.publishDeleted(tx, report, purge)
	})
	if err != nil {
		return err
	}

	s.purgeImages(ctx, purge)
	s.invalidate(ctx, reporterID)
	return nil
}

// AdminDelete removes any report, bypassing the ownership check. The owner's
// listing cache is still invalidated so admin deletions never leave a stale
// per-user cache entry behind.
func (s *ReportService) AdminDelete(ctx context.Context, reportID uuid.UUID) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}

	var purge []string
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.reports.Delete(ctx, tx, reportID); err != nil {
			return err
		}
		item, err := s.items.Delete(ctx, tx, report.ItemID)
		if err != nil {
			return err
		}
		purge = item.PublicIDs()

		return s.publishDeleted(tx, report, purge)
	})
	if err != nil {
		return err
	}

	s.purgeImages(ctx, purge)
	s.invalidate(ctx, report.ReporterID)
	return nil
}

// invalidate drops the reporter's cached listing. Best-effort: a failed
// invalidation is logged and absorbed, the TTL bounds the staleness window.
func (s *ReportService) invalidate(ctx context.Context, reporterID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, reporterID); err != nil {
		s.log.WarnContext(ctx, "report list cache invalidation failed", "reporter_id", reporterID, "error", err)
	}
}

// discardUploads removes objects uploaded for an operation whose transaction
// aborted, so aborted writes do not strand objects in the store.
func (s *ReportService) discardUploads(ctx context.Context, uploaded []storage.ImageHandle) {
	if len(uploaded) == 0 {
		return
	}
	ids := make([]string, len(uploaded))
	for i, h := range uploaded {
		ids[i] = h.PublicID
	}
	s.uploader.DeleteMany(context.WithoutCancel(ctx), ids)
}

// purgeImages deletes committed-away image handles best-effort.
func (s *ReportService) purgeImages(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	s.uploader.DeleteMany(context.WithoutCancel(ctx), ids)
}

func (s *ReportService) publishCreated(tx *sql.Tx, report *models.Report) error {
	if s.bus == nil {
		return nil
	}
	event := domainevents.ReportCreatedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ReportID:   report.ID,
		ReporterID: report.ReporterID,
		ItemID:     report.ItemID,
		OccurredAt: report.CreatedAt,
	}
	return s.publish(tx, domainevents.TopicReportCreated, event, event.EventID)
}

func (s *ReportService) publishDeleted(tx *sql.Tx, report *models.Report, imageIDs []string) error {
	if s.bus == nil {
		return nil
	}
	event := domainevents.ReportDeletedEvent{
		EventID:        uuid.New(),
		Version:        1,
		ReportID:       report.ID,
		ReporterID:     report.ReporterID,
		ImagePublicIDs: imageIDs,
		OccurredAt:     time.Now().UTC(),
	}
	return s.publish(tx, domainevents.TopicReportDeleted, event, event.EventID)
}

func (s *ReportService) publish(tx *sql.Tx, topic string, event any, eventID uuid.UUID) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", eventID.String())
	msg.Metadata.Set("event_version", "1")
	p, err := s.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func toImages(handles []storage.ImageHandle) []models.Image {
	images := make([]models.Image, len(handles))
	for i, h := range handles {
		images[i] = models.Image{PublicID: h.PublicID, URL: h.URL}
	}
	return images
}

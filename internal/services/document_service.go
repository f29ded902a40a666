package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes caps a single document upload.
const DefaultMaxUploadBytes int64 = 10 << 20

// DocumentServiceImpl implements domain.DocumentService
type DocumentServiceImpl struct {
	documents domain.DocumentRepository
	blobs     domain.BlobStore
	guard     domain.AccessGuard
	clock     domain.Clock
	maxBytes  int64
	log       *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documents domain.DocumentRepository,
	blobs domain.BlobStore,
	guard domain.AccessGuard,
	clock domain.Clock,
	maxBytes int64,
	log *zap.Logger,
) domain.DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentServiceImpl{
		documents: documents,
		blobs:     blobs,
		guard:     guard,
		clock:     clock,
		maxBytes:  maxBytes,
		log:       log.Named("documents"),
	}
}

// storageKey builds patients/<id>/<folder>/<uuid>-<name>. Medical records
// get their own folder.
func storageKey(patientID uint, t domain.DocumentType, name string) string {
	folder := "documents"
	if t == domain.DocumentMedicalRecord {
		folder = "records"
	}
	base := strings.Map(func(r rune) rune {
		if r == ' ' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("patients/%d/%s/%s-%s", patientID, folder, uuid.NewString(), base)
}

// Upload stores body and records its metadata. The stored object is removed
// again if the metadata cannot be saved.
func (s *DocumentServiceImpl) Upload(ctx context.Context, actor domain.Actor, doc *domain.Document, body io.Reader) (*domain.Document, error) {
	if err := s.guard.RequireAccess(ctx, actor, doc.PatientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, domain.NewValidationError("document name is required")
	}
	if doc.Size <= 0 {
		return nil, domain.NewValidationError("document is empty")
	}
	if doc.Size > s.maxBytes {
		return nil, domain.ErrDocumentTooLarge
	}
	contentType, category, err := domain.ClassifyUpload(doc.Name, doc.ContentType)
	if err != nil {
		return nil, err
	}
	if doc.Type, err = domain.ParseDocumentType(string(doc.Type)); err != nil {
		return nil, err
	}

	doc.ContentType = contentType
	doc.Category = category
	doc.Description = strings.TrimSpace(doc.Description)
	doc.UploadedBy = actor.ID
	doc.StorageKey = storageKey(doc.PatientID, doc.Type, doc.Name)
	doc.CreatedAt = s.clock.Now()

	if err := s.blobs.Put(ctx, doc.StorageKey, doc.ContentType, io.LimitReader(body, doc.Size), doc.Size); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, doc.StorageKey); delErr != nil {
			s.log.Error("orphaned document object", zap.String("key", doc.StorageKey), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

// List implements domain.DocumentService
func (s *DocumentServiceImpl) List(ctx context.Context, actor domain.Actor, patientID uint, filter domain.DocumentFilter) ([]domain.Document, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.documents.ListByPatient(ctx, patientID, filter)
}

// Download returns a document's metadata and contents. The caller closes the reader.
func (s *DocumentServiceImpl) Download(ctx context.Context, actor domain.Actor, id uint) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}

// Delete removes the stored object and then the metadata row.
func (s *DocumentServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("failed to delete document object: %w", err)
	}
	return s.documents.Delete(ctx, doc.ID)
}

func (s *DocumentServiceImpl) load(ctx context.Context, actor domain.Actor, id uint) (*domain.Document, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, doc.PatientID); err != nil {
		return nil, err
	}
	return doc, nil
}

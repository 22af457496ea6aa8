// Package catalog coordinates product mutations that span the catalog store
// and the asset store. Neither store can join a transaction owned by the
// other, so every image-carrying operation runs as a small saga: upload
// first, commit second, compensate the upload if the commit fails.
package catalog

import (
	"context"
	"io"
	"log"
	"strings"

	"hardware-catalog/internal/assetstore"
	"hardware-catalog/internal/domain"
	productrepo "hardware-catalog/internal/repository/product"
)

const defaultPageSize = 20

// Input carries the writable product fields plus an optional new image.
type Input struct {
	Code        string
	Name        string
	Description string
	Price       float64
	Image       []byte
}

type Service struct {
	products productrepo.Repository
	assets   assetstore.Store
	logger   *log.Logger
}

func New(products productrepo.Repository, assets assetstore.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{products: products, assets: assets, logger: logger}
}

// Create adds a product, optionally with an image. The image is uploaded
// before the insert; a duplicate code (or any other insert failure) deletes
// the just-uploaded asset again.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p, err := normalize(in)
	if err != nil {
		return nil, err
	}

	saga := newImageSaga(s.assets, s.logger)
	if len(in.Image) > 0 {
		ref, err := saga.uploadNew(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		p.ImageRef = ref
	}

	saga.writing()
	created, err := s.products.Insert(ctx, p)
	if err != nil {
		return nil, saga.catalogFailed(ctx, err)
	}
	saga.committed()
	return created, nil
}

// Update rewrites a product's fields and optionally replaces its image.
// With a new image the old asset is deleted only after the catalog update
// committed; that deletion's failure never undoes the commit.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Product, error) {
	p, err := normalize(in)
	if err != nil {
		return nil, err
	}

	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ImageRef = current.ImageRef

	saga := newImageSaga(s.assets, s.logger)
	if len(in.Image) > 0 {
		ref, err := saga.uploadNew(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		p.ImageRef = ref
	}

	saga.writing()
	updated, err := s.products.Update(ctx, id, p)
	if err != nil {
		return nil, saga.catalogFailed(ctx, err)
	}
	saga.committed()

	if len(in.Image) > 0 && current.ImageRef != "" {
		s.cleanupAsset(ctx, current.ImageRef)
	}
	return updated, nil
}

// ReplaceImage swaps a product's image for a new one, keeping the other
// fields untouched.
func (s *Service) ReplaceImage(ctx context.Context, id int64, image []byte) (*domain.Product, error) {
	if len(image) == 0 {
		return nil, &domain.ValidationError{Field: "image", Reason: "required"}
	}

	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	saga := newImageSaga(s.assets, s.logger)
	ref, err := saga.uploadNew(ctx, image)
	if err != nil {
		return nil, err
	}

	saga.writing()
	if err := s.products.SetImageRef(ctx, id, ref); err != nil {
		return nil, saga.catalogFailed(ctx, err)
	}
	saga.committed()

	if current.ImageRef != "" {
		s.cleanupAsset(ctx, current.ImageRef)
	}
	current.ImageRef = ref
	return current, nil
}

// RemoveImage detaches a product's image. The catalog commits first; the
// asset deletion afterward is best effort. A record without an image
// reports the distinct ErrNothingToRemove outcome.
func (s *Service) RemoveImage(ctx context.Context, id int64) error {
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.ImageRef == "" {
		return domain.ErrNothingToRemove
	}

	saga := newImageSaga(s.assets, s.logger)
	saga.writing()
	if err := s.products.SetImageRef(ctx, id, ""); err != nil {
		return saga.catalogFailed(ctx, err)
	}
	saga.committed()

	s.cleanupAsset(ctx, current.ImageRef)
	return nil
}

// Delete removes the product record first, then its asset. The asset
// deletion never rolls back the already-committed catalog delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}

	saga := newImageSaga(s.assets, s.logger)
	saga.writing()
	if err := s.products.Delete(ctx, id); err != nil {
		return saga.catalogFailed(ctx, err)
	}
	saga.committed()

	if current.ImageRef != "" {
		s.cleanupAsset(ctx, current.ImageRef)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.products.GetByCode(ctx, code)
}

// List returns one page of products plus the total count for the filter.
func (s *Service) List(ctx context.Context, filter string, page, pageSize int) ([]domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	filter = strings.TrimSpace(filter)

	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.products.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// cleanupAsset deletes an old asset after a committed catalog change.
// Failure degrades to a warning: the primary outcome is already decided.
func (s *Service) cleanupAsset(ctx context.Context, ref string) {
	if err := s.assets.Delete(ctx, ref); err != nil {
		comp := &domain.CompensationFailedError{Ref: ref, Cause: err}
		s.logger.Printf("WARNING: %v (asset orphaned, reclaim out of band)", comp)
	}
}

func normalize(in Input) (domain.Product, error) {
	p := domain.Product{
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
	}
	switch {
	case p.Code == "":
		return p, &domain.ValidationError{Field: "code", Reason: "required"}
	case p.Name == "":
		return p, &domain.ValidationError{Field: "name", Reason: "required"}
	case p.Price < 0:
		return p, &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return p, nil
}

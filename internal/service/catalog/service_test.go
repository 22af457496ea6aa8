package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"hardware-catalog/internal/domain"
)

type stubRepo struct {
	byID      map[int64]*domain.Product
	insertErr error
	updateErr error
	deleteErr error
	setRefErr error

	inserted   []domain.Product
	updated    []domain.Product
	setRefs    []string
	deletedIDs []int64
	calls      []string

	listTotal int
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[int64]*domain.Product{}}
}

func (s *stubRepo) GetByCode(_ context.Context, code string) (*domain.Product, error) {
	for _, p := range s.byID {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) Insert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.calls = append(s.calls, "insert")
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	p.ID = int64(len(s.byID) + 1)
	s.inserted = append(s.inserted, p)
	cp := p
	s.byID[p.ID] = &cp
	return &p, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, p domain.Product) (*domain.Product, error) {
	s.calls = append(s.calls, "update")
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	if _, ok := s.byID[id]; !ok {
		return nil, domain.ErrNotFound
	}
	p.ID = id
	s.updated = append(s.updated, p)
	cp := p
	s.byID[id] = &cp
	return &p, nil
}

func (s *stubRepo) SetImageRef(_ context.Context, id int64, ref string) error {
	s.calls = append(s.calls, "setImageRef")
	if s.setRefErr != nil {
		return s.setRefErr
	}
	p, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ImageRef = ref
	s.setRefs = append(s.setRefs, ref)
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	s.calls = append(s.calls, "delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubRepo) BulkInsertIgnoreDuplicates(_ context.Context, _ []domain.Product) (int64, error) {
	return 0, nil
}

func (s *stubRepo) List(_ context.Context, _ string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	for i := offset; i < s.listTotal && i < offset+limit; i++ {
		out = append(out, domain.Product{ID: int64(i + 1), Code: fmt.Sprintf("C%d", i+1), Name: "Item"})
	}
	return out, nil
}

func (s *stubRepo) Count(_ context.Context, _ string) (int, error) {
	return s.listTotal, nil
}

type stubAssets struct {
	uploads   int
	deleted   []string
	calls     *[]string
	uploadErr error
	deleteErr error
}

func (s *stubAssets) Upload(_ context.Context, _ []byte) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads++
	return fmt.Sprintf("assets/ref-%d", s.uploads), nil
}

func (s *stubAssets) Delete(_ context.Context, ref string) error {
	if s.calls != nil {
		*s.calls = append(*s.calls, "assetDelete")
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, ref)
	return nil
}

func TestCreate_WithImage(t *testing.T) {
	repo := newStubRepo()
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	p, err := svc.Create(context.Background(), Input{Code: " X1 ", Name: "Widget", Price: 10.5, Image: []byte("png")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Code != "X1" || p.Price != 10.5 {
		t.Fatalf("unexpected product %+v", p)
	}
	if p.ImageRef != "assets/ref-1" {
		t.Fatalf("expected image ref, got %q", p.ImageRef)
	}
	if len(assets.deleted) != 0 {
		t.Fatalf("no asset should be deleted on success, got %v", assets.deleted)
	}
}

func TestCreate_DuplicateCodeCompensatesUpload(t *testing.T) {
	repo := newStubRepo()
	repo.insertErr = domain.ErrDuplicateCode
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	_, err := svc.Create(context.Background(), Input{Code: "X1", Name: "Widget", Price: 1, Image: []byte("png")})
	if !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}
	// Upload and compensating delete cancel out.
	if assets.uploads != 1 || len(assets.deleted) != 1 || assets.deleted[0] != "assets/ref-1" {
		t.Fatalf("expected speculative upload compensated, uploads=%d deleted=%v", assets.uploads, assets.deleted)
	}
}

func TestCreate_CompensationFailureKeepsPrimaryError(t *testing.T) {
	repo := newStubRepo()
	repo.insertErr = domain.ErrDuplicateCode
	assets := &stubAssets{deleteErr: errors.New("network down")}
	svc := New(repo, assets, nil)

	_, err := svc.Create(context.Background(), Input{Code: "X1", Name: "Widget", Price: 1, Image: []byte("png")})
	if !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("compensation failure must not replace the catalog error, got %v", err)
	}
}

func TestCreate_ValidationBeforeSideEffects(t *testing.T) {
	repo := newStubRepo()
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	cases := []Input{
		{Name: "No Code", Price: 1},
		{Code: "X1", Price: 1},
		{Code: "X1", Name: "Negative", Price: -0.01},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if assets.uploads != 0 || len(repo.calls) != 0 {
		t.Fatalf("validation must fail before any side effect, uploads=%d calls=%v", assets.uploads, repo.calls)
	}
}

func TestCreate_UploadFailureStopsBeforeCatalog(t *testing.T) {
	repo := newStubRepo()
	assets := &stubAssets{uploadErr: fmt.Errorf("%w: status 500", domain.ErrUploadFailed)}
	svc := New(repo, assets, nil)

	_, err := svc.Create(context.Background(), Input{Code: "X1", Name: "Widget", Price: 1, Image: []byte("png")})
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected upload failure, got %v", err)
	}
	if len(repo.calls) != 0 {
		t.Fatalf("catalog must not be touched after a failed upload, calls=%v", repo.calls)
	}
}

func TestUpdate_NewImageDeletesOldAfterCommit(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	p, err := svc.Update(context.Background(), 7, Input{Code: "X1", Name: "Widget v2", Price: 2, Image: []byte("png")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.ImageRef != "assets/ref-1" {
		t.Fatalf("expected new ref, got %q", p.ImageRef)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "assets/old" {
		t.Fatalf("expected old asset deleted after commit, got %v", assets.deleted)
	}
}

func TestUpdate_NoImageKeepsExistingRef(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	p, err := svc.Update(context.Background(), 7, Input{Code: "X1", Name: "Renamed", Price: 2})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.ImageRef != "assets/old" {
		t.Fatalf("expected existing ref preserved, got %q", p.ImageRef)
	}
	if assets.uploads != 0 || len(assets.deleted) != 0 {
		t.Fatalf("no asset traffic expected, uploads=%d deleted=%v", assets.uploads, assets.deleted)
	}
}

func TestUpdate_DuplicateCompensatesNewKeepsOld(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	repo.updateErr = domain.ErrDuplicateCode
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	_, err := svc.Update(context.Background(), 7, Input{Code: "X2", Name: "Widget", Price: 1, Image: []byte("png")})
	if !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "assets/ref-1" {
		t.Fatalf("expected the new upload compensated and the old asset kept, got %v", assets.deleted)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := New(newStubRepo(), &stubAssets{}, nil)
	_, err := svc.Update(context.Background(), 99, Input{Code: "X1", Name: "Widget", Price: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceImage_DeletesOldAfterCommit(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	p, err := svc.ReplaceImage(context.Background(), 7, []byte("png"))
	if err != nil {
		t.Fatalf("replace image: %v", err)
	}
	if p.ImageRef != "assets/ref-1" {
		t.Fatalf("expected new ref, got %q", p.ImageRef)
	}
	if len(repo.setRefs) != 1 || repo.setRefs[0] != "assets/ref-1" {
		t.Fatalf("expected catalog ref updated, got %v", repo.setRefs)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "assets/old" {
		t.Fatalf("expected old asset deleted, got %v", assets.deleted)
	}
}

func TestReplaceImage_CatalogFailureCompensatesUpload(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1}
	repo.setRefErr = errors.New("connection reset")
	assets := &stubAssets{}
	svc := New(repo, assets, nil)

	_, err := svc.ReplaceImage(context.Background(), 7, []byte("png"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "assets/ref-1" {
		t.Fatalf("expected speculative upload compensated, got %v", assets.deleted)
	}
}

func TestRemoveImage_NothingToRemove(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1}
	svc := New(repo, &stubAssets{}, nil)

	err := svc.RemoveImage(context.Background(), 7)
	if !errors.Is(err, domain.ErrNothingToRemove) {
		t.Fatalf("expected nothing-to-remove outcome, got %v", err)
	}
}

func TestRemoveImage_AssetFailureDoesNotUndoCommit(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	assets := &stubAssets{deleteErr: errors.New("network down")}
	svc := New(repo, assets, nil)

	if err := svc.RemoveImage(context.Background(), 7); err != nil {
		t.Fatalf("asset cleanup failure must degrade to a warning, got %v", err)
	}
	if repo.byID[7].ImageRef != "" {
		t.Fatalf("expected catalog ref cleared")
	}
}

func TestDelete_CatalogFirstThenAsset(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	// Asset store appends into the repo's call log so ordering is observable.
	assets := &stubAssets{calls: &repo.calls}
	svc := New(repo, assets, nil)

	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := strings.Join(repo.calls, ","); got != "delete,assetDelete" {
		t.Fatalf("expected catalog delete before asset delete, got %s", got)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "assets/old" {
		t.Fatalf("expected asset deleted, got %v", assets.deleted)
	}
}

func TestDelete_AssetFailureDoesNotUndoCatalogDelete(t *testing.T) {
	repo := newStubRepo()
	repo.byID[7] = &domain.Product{ID: 7, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	assets := &stubAssets{deleteErr: errors.New("network down")}
	svc := New(repo, assets, nil)

	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("expected success despite asset failure, got %v", err)
	}
	if _, ok := repo.byID[7]; ok {
		t.Fatalf("expected catalog record gone")
	}
}

func TestList_Pagination(t *testing.T) {
	repo := newStubRepo()
	repo.listTotal = 45
	svc := New(repo, &stubAssets{}, nil)

	items, total, err := svc.List(context.Background(), "", 3, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 45 {
		t.Fatalf("expected total 45, got %d", total)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items on page 3, got %d", len(items))
	}

	// Page below 1 is clamped.
	items, _, err = svc.List(context.Background(), "", 0, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("expected full first page, got %d", len(items))
	}
}

func TestRemoveImageAndDelete_LogSagaTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	repo := newStubRepo()
	repo.byID[1] = &domain.Product{ID: 1, Code: "X1", Name: "Widget", Price: 1, ImageRef: "assets/old"}
	svc := New(repo, &stubAssets{}, logger)

	if err := svc.RemoveImage(context.Background(), 1); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Mutations without an upload still walk CatalogWriting -> Committed,
	// once per operation.
	logged := buf.String()
	if n := strings.Count(logged, "saga: Idle -> CatalogWriting"); n != 2 {
		t.Fatalf("expected 2 writing transitions, got %d:\n%s", n, logged)
	}
	if n := strings.Count(logged, "saga: CatalogWriting -> Committed"); n != 2 {
		t.Fatalf("expected 2 commit transitions, got %d:\n%s", n, logged)
	}
}

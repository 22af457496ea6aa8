package catalog

import (
	"context"
	"log"

	"hardware-catalog/internal/assetstore"
	"hardware-catalog/internal/domain"
)

// sagaState tracks a mutating call across the asset and catalog stores.
// No atomic transaction spans both, so consistency comes from ordering
// (upload before commit) plus forward compensation on catalog failure.
type sagaState int

const (
	stateIdle sagaState = iota
	stateAssetUploading
	stateAssetUploaded
	stateCatalogWriting
	stateCommitted
	stateCatalogFailed
	stateCompensating
	stateCompensationDone
	stateCompensationFailed
)

var sagaStateNames = map[sagaState]string{
	stateIdle:               "Idle",
	stateAssetUploading:     "AssetUploading",
	stateAssetUploaded:      "AssetUploaded",
	stateCatalogWriting:     "CatalogWriting",
	stateCommitted:          "Committed",
	stateCatalogFailed:      "CatalogFailed",
	stateCompensating:       "Compensating",
	stateCompensationDone:   "CompensationDone",
	stateCompensationFailed: "CompensationFailed",
}

func (s sagaState) String() string { return sagaStateNames[s] }

// imageSaga is a single-use tracker for one mutating operation that may
// touch the asset store. Terminal states are Committed, CompensationDone
// and CompensationFailed.
type imageSaga struct {
	assets assetstore.Store
	logger *log.Logger
	state  sagaState

	// newRef is the speculative upload that must be compensated if the
	// subsequent catalog write fails.
	newRef string
}

func newImageSaga(assets assetstore.Store, logger *log.Logger) *imageSaga {
	return &imageSaga{assets: assets, logger: logger, state: stateIdle}
}

func (s *imageSaga) transition(next sagaState) {
	s.logger.Printf("saga: %s -> %s", s.state, next)
	s.state = next
}

// uploadNew uploads the incoming image before any catalog write. On failure
// the saga stays clean: nothing to compensate, nothing committed.
func (s *imageSaga) uploadNew(ctx context.Context, data []byte) (string, error) {
	s.transition(stateAssetUploading)
	ref, err := s.assets.Upload(ctx, data)
	if err != nil {
		s.transition(stateIdle)
		return "", err
	}
	s.newRef = ref
	s.transition(stateAssetUploaded)
	return ref, nil
}

func (s *imageSaga) writing() {
	s.transition(stateCatalogWriting)
}

func (s *imageSaga) committed() {
	s.transition(stateCommitted)
}

// catalogFailed compensates the speculative upload (best effort, not
// retried) and always returns the original catalog error. A compensation
// failure is logged as an operator-visible warning; it never replaces or
// wraps the primary outcome.
func (s *imageSaga) catalogFailed(ctx context.Context, cause error) error {
	s.transition(stateCatalogFailed)
	if s.newRef == "" {
		s.transition(stateCompensationDone)
		return cause
	}

	s.transition(stateCompensating)
	if err := s.assets.Delete(ctx, s.newRef); err != nil {
		comp := &domain.CompensationFailedError{Ref: s.newRef, Cause: err}
		s.logger.Printf("WARNING: %v (asset orphaned, reclaim out of band)", comp)
		s.transition(stateCompensationFailed)
		return cause
	}
	s.transition(stateCompensationDone)
	return cause
}

package cache

import (
	"context"
	"sync"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

// Service wraps an api.Service, answering keyword and contents lookups from
// the store when possible. Lists and counts always go to the backend since
// polling depends on them being fresh.
//
// Keywords of references last listed as unindexed bypass the store: they
// are still being extracted.
type Service struct {
	api.Service
	store *Store

	mu         sync.Mutex
	processing map[string]struct{}
}

var _ api.Service = (*Service)(nil)

func NewService(next api.Service, store *Store) *Service {
	return &Service{Service: next, store: store, processing: make(map[string]struct{})}
}

func (s *Service) ListReferences(ctx context.Context, keywords []string) ([]api.Reference, error) {
	refs, err := s.Service.ListReferences(ctx, keywords)
	if err != nil {
		return nil, err
	}
	s.track(refs)
	return refs, nil
}

// track records which references are processing and drops keywords cached
// for a reference whose indexing state changed.
func (s *Service) track(refs []api.Reference) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range refs {
		_, wasProcessing := s.processing[ref.ID]
		switch {
		case !ref.Indexed && !wasProcessing:
			s.processing[ref.ID] = struct{}{}
			s.invalidate(ref.ID)
		case ref.Indexed && wasProcessing:
			delete(s.processing, ref.ID)
			s.invalidate(ref.ID)
		}
	}
}

func (s *Service) isProcessing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processing[id]
	return ok
}

func (s *Service) ReferenceKeywords(ctx context.Context, id string) ([]string, error) {
	if s.isProcessing(id) {
		return s.Service.ReferenceKeywords(ctx, id)
	}
	if keywords, ok := s.store.Keywords(id); ok {
		return keywords, nil
	}

	keywords, err := s.Service.ReferenceKeywords(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.isProcessing(id) {
		return keywords, nil
	}
	if err := s.store.PutKeywords(id, keywords); err != nil {
		logging.Warn("Failed to cache keywords for %s: %v", id, err)
	}
	return keywords, nil
}

func (s *Service) GetReference(ctx context.Context, id string, withContents bool) (*api.Reference, error) {
	if withContents {
		if ref, ok := s.store.Contents(id); ok {
			return ref, nil
		}
	}

	ref, err := s.Service.GetReference(ctx, id, withContents)
	if err != nil {
		return nil, err
	}
	if withContents {
		if err := s.store.PutContents(ref); err != nil {
			logging.Warn("Failed to cache reference %s: %v", id, err)
		}
	}
	return ref, nil
}

func (s *Service) DeleteReference(ctx context.Context, id string) error {
	if err := s.Service.DeleteReference(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *Service) ReindexReference(ctx context.Context, id string) (*api.Reference, error) {
	ref, err := s.Service.ReindexReference(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(id)
	return ref, nil
}

func (s *Service) invalidate(id string) {
	if err := s.store.Invalidate(id); err != nil {
		logging.Warn("Failed to invalidate cache for %s: %v", id, err)
	}
}

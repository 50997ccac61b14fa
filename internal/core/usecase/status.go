package usecase

import (
	"context"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/core/ports"
)

// StatusUseCase reports document store readiness for the health endpoint.
type StatusUseCase struct {
	store ports.DocumentStore
}

func NewStatusUseCase(store ports.DocumentStore) *StatusUseCase {
	return &StatusUseCase{store: store}
}

func (uc *StatusUseCase) Check(ctx context.Context) domain.StoreHealth {
	var health domain.StoreHealth

	if err := uc.store.Ready(ctx); err != nil {
		health.Error = err.Error()
	} else {
		health.Ready = true
	}

	exists, err := uc.store.CollectionExists(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	health.CollectionExists = exists

	return health
}

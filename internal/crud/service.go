package crud

import (
	"context"
	"time"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
)

type Service[T any] struct {
	Store  Store[T]
	Entity Entity[T]
	Now    func() time.Time
}

func (s *Service[T]) Create(ctx context.Context, v *T) (*T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, s.Entity.Label()+" is required")
	}

	s.Entity.Normalize(v)
	if err := s.Entity.Validate(v); err != nil {
		return nil, err
	}
	s.Entity.PrepareCreate(v, s.now())

	if err := s.Store.Create(ctx, v); err != nil {
		telemetry.LogError(ctx, s.Entity.Label()+" create failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to create "+s.Entity.Label())
	}
	return v, nil
}

func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, s.invalidID()
	}
	return s.load(ctx, id)
}

func (s *Service[T]) List(ctx context.Context) ([]*T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.Store.List(ctx)
	if err != nil {
		telemetry.LogError(ctx, s.Entity.Label()+" list failed", telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to list "+s.Entity.Label()+"s")
	}
	if list == nil {
		list = []*T{}
	}
	return list, nil
}

func (s *Service[T]) Update(ctx context.Context, id int64, v *T) (*T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, s.invalidID()
	}
	if v == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, s.Entity.Label()+" is required")
	}

	s.Entity.Normalize(v)
	if err := s.Entity.Validate(v); err != nil {
		return nil, err
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Entity.PrepareUpdate(existing, v, s.now())

	if err := s.Store.Update(ctx, id, v); err != nil {
		if IsNotFound(err) {
			return nil, s.notFound()
		}
		telemetry.LogError(ctx, s.Entity.Label()+" update failed", telemetry.LogInt64("id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to update "+s.Entity.Label())
	}
	return v, nil
}

func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if id <= 0 {
		return s.invalidID()
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return s.notFound()
		}
		telemetry.LogError(ctx, s.Entity.Label()+" delete failed", telemetry.LogInt64("id", id), telemetry.LogErr(err))
		return apperrors.New(apperrors.KindInternal, "failed to delete "+s.Entity.Label())
	}
	return nil
}

func (s *Service[T]) load(ctx context.Context, id int64) (*T, error) {
	v, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, s.notFound()
		}
		telemetry.LogError(ctx, s.Entity.Label()+" load failed", telemetry.LogInt64("id", id), telemetry.LogErr(err))
		return nil, apperrors.New(apperrors.KindInternal, "failed to load "+s.Entity.Label())
	}
	return v, nil
}

func (s *Service[T]) ready() error {
	if s.Store == nil || s.Entity == nil {
		return apperrors.New(apperrors.KindInternal, "store not configured")
	}
	return nil
}

func (s *Service[T]) invalidID() error {
	return apperrors.New(apperrors.KindInvalidInput, "invalid "+s.Entity.Label()+" id")
}

func (s *Service[T]) notFound() error {
	return apperrors.New(apperrors.KindNotFound, s.Entity.Label()+" not found")
}

func (s *Service[T]) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

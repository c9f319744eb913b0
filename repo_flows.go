package usermanagement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Flows is the registration flow store. Email lookups back the superseding
// behavior of submit, token lookups back activation and confirmation.
type Flows interface {
	repository.Repository[*RegistrationFlow]

	FindByEmail(ctx context.Context, email string) ([]*RegistrationFlow, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) ([]*RegistrationFlow, error)
	FindOneByToken(ctx context.Context, token string) (*RegistrationFlow, error)
	FindOneByTokenTx(ctx context.Context, tx bun.IDB, token string) (*RegistrationFlow, error)
	Remove(ctx context.Context, flow *RegistrationFlow) error
	RemoveTx(ctx context.Context, tx bun.IDB, flow *RegistrationFlow) error
}

type flows struct {
	repository.Repository[*RegistrationFlow]
	db *bun.DB
}

var (
	_ Flows                                    = (*flows)(nil)
	_ repository.Repository[*RegistrationFlow] = (*flows)(nil)
)

func NewFlowsRepository(db *bun.DB) Flows {
	repo := repository.NewRepository[*RegistrationFlow](db, repository.ModelHandlers[*RegistrationFlow]{
		NewRecord: func() *RegistrationFlow { return &RegistrationFlow{} },
		GetID: func(f *RegistrationFlow) uuid.UUID {
			if f == nil {
				return uuid.Nil
			}
			return f.ID
		},
		SetID: func(f *RegistrationFlow, id uuid.UUID) {
			if f != nil {
				f.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &flows{
		Repository: repo,
		db:         db,
	}
}

func (r *flows) FindByEmail(ctx context.Context, email string) ([]*RegistrationFlow, error) {
	return r.FindByEmailTx(ctx, r.db, email)
}

func (r *flows) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) ([]*RegistrationFlow, error) {
	records := []*RegistrationFlow{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.email = ?", email).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *flows) FindOneByToken(ctx context.Context, token string) (*RegistrationFlow, error) {
	return r.FindOneByTokenTx(ctx, r.db, token)
}

func (r *flows) FindOneByTokenTx(ctx context.Context, tx bun.IDB, token string) (*RegistrationFlow, error) {
	record := &RegistrationFlow{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.activation_token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlowNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *flows) Remove(ctx context.Context, flow *RegistrationFlow) error {
	return r.RemoveTx(ctx, r.db, flow)
}

func (r *flows) RemoveTx(ctx context.Context, tx bun.IDB, flow *RegistrationFlow) error {
	_, err := tx.NewDelete().
		Model(flow).
		WherePK().
		Exec(ctx)
	return err
}

package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/navlink/navlink/internal/account/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *service) GetAggregate(ctx context.Context, id int64) (domain.Aggregate, error) {
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if account == nil {
		return domain.Aggregate{}, domain.ErrNotFound
	}

	credits, err := s.repo.SumCredits(ctx, s.db, account.ID)
	if err != nil {
		return domain.Aggregate{}, err
	}

	return domain.AggregateFromAccount(*account, credits), nil
}

func (s *service) RemainingCredits(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return s.repo.SumCredits(ctx, s.db, accountID)
}

func (s *service) AddServiceInterruption(ctx context.Context, req domain.AddServiceInterruptionRequest) (domain.AccountServiceInterruption, error) {
	if !req.DateEnd.After(req.DateStart) {
		return domain.AccountServiceInterruption{}, domain.ErrInvalidDateRange
	}

	interruption := domain.AccountServiceInterruption{
		ID:        s.genID.Generate().Int64(),
		AccountID: req.AccountID,
		DateStart: req.DateStart,
		DateEnd:   req.DateEnd,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.repo.FindByID(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}

		overlaps, err := s.repo.HasOverlappingInterruption(ctx, tx, req.AccountID, req.DateStart, req.DateEnd)
		if err != nil {
			return err
		}
		if overlaps {
			return domain.ErrOverlappingInterruption
		}

		return s.repo.InsertInterruption(ctx, tx, &interruption)
	})
	if err != nil {
		return domain.AccountServiceInterruption{}, err
	}

	s.log.Info("service interruption recorded",
		zap.Int64("account_id", req.AccountID),
		zap.Time("date_start", req.DateStart),
		zap.Time("date_end", req.DateEnd),
	)

	return interruption, nil
}

func (s *service) List(ctx context.Context, req domain.ListAccountsRequest) ([]domain.Aggregate, error) {
	accounts, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}
	return s.toAggregates(ctx, accounts)
}

func (s *service) CutOffAccounts(ctx context.Context, asOf time.Time) ([]domain.Aggregate, error) {
	accounts, err := s.repo.CutOff(ctx, s.db, asOf)
	if err != nil {
		return nil, err
	}
	return s.toAggregates(ctx, accounts)
}

func (s *service) toAggregates(ctx context.Context, accounts []domain.Account) ([]domain.Aggregate, error) {
	aggregates := make([]domain.Aggregate, 0, len(accounts))
	for _, account := range accounts {
		credits, err := s.repo.SumCredits(ctx, s.db, account.ID)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, domain.AggregateFromAccount(account, credits))
	}
	return aggregates, nil
}

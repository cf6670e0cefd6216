package services

import (
	"context"
	"strings"

	"projectcrm/internal/apperr"
	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
	"projectcrm/internal/repositories"
)

// parentStore is the parent-link surface shared by account and company repositories.
type parentStore interface {
	ParentOf(ctx context.Context, id int64) (*int64, error)
	SetParent(ctx context.Context, id int64, parent *int64) error
	ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error)
}

// reparent checks the new link for a cycle against a snapshot of the candidate
// parent's chain and then stores it, in one transaction.
func reparent(ctx context.Context, tx repositories.TxRunner, store parentStore, id int64, parent *int64) error {
	return tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := store.ParentOf(ctx, id); err != nil {
			return err
		}
		if parent != nil {
			if _, err := store.ParentOf(ctx, *parent); err != nil {
				return err
			}
		}
		if parent != nil {
			links, err := store.ParentChain(ctx, *parent)
			if err != nil {
				return err
			}
			if hierarchy.ArenaOf(links).WouldCreateCycle(id, parent) {
				return apperr.CyclicHierarchy()
			}
		}
		return store.SetParent(ctx, id, parent)
	})
}

// ancestors lists id's parents nearest first from one chain query.
func ancestors(ctx context.Context, store parentStore, id int64) ([]int64, error) {
	links, err := store.ParentChain(ctx, id)
	if err != nil {
		return nil, err
	}
	return hierarchy.ArenaOf(links).Ancestors(id), nil
}

type AccountService interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
	SetParent(ctx context.Context, id int64, parentID *int64) (*models.Account, error)
	Ancestors(ctx context.Context, id int64) ([]int64, error)
}

type accountService struct {
	repo repositories.AccountRepository
	tx   repositories.TxRunner
}

func NewAccountService(repo repositories.AccountRepository, tx repositories.TxRunner) AccountService {
	return &accountService{repo: repo, tx: tx}
}

func (s *accountService) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if strings.TrimSpace(a.Name) == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if a.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *a.ParentID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Store(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountService) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *accountService) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *accountService) SetParent(ctx context.Context, id int64, parentID *int64) (*models.Account, error) {
	if err := reparent(ctx, s.tx, s.repo, id, parentID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *accountService) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return ancestors(ctx, s.repo, id)
}

type CompanyService interface {
	Create(ctx context.Context, c *models.Company) (*models.Company, error)
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	SetParent(ctx context.Context, id int64, parentID *int64) (*models.Company, error)
	Ancestors(ctx context.Context, id int64) ([]int64, error)
}

type companyService struct {
	repo repositories.CompanyRepository
	tx   repositories.TxRunner
}

func NewCompanyService(repo repositories.CompanyRepository, tx repositories.TxRunner) CompanyService {
	return &companyService{repo: repo, tx: tx}
}

func (s *companyService) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if c.ParentCompanyID != nil {
		if _, err := s.repo.FindByID(ctx, *c.ParentCompanyID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Store(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *companyService) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *companyService) SetParent(ctx context.Context, id int64, parentID *int64) (*models.Company, error) {
	if err := reparent(ctx, s.tx, s.repo, id, parentID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *companyService) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return ancestors(ctx, s.repo, id)
}

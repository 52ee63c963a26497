package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesops/internal/core"
	"salesops/internal/log"
	"salesops/internal/store"
)

// maxNumberAttempts bounds retries when a generated company number collides.
const maxNumberAttempts = 5

type CompanyService struct {
	store  store.CompanyStore
	logger *log.Logger
	now    func() time.Time
}

func NewCompanyService(st store.CompanyStore, logger *log.Logger) *CompanyService {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentEvents)
	}
	return &CompanyService{store: st, logger: logger, now: time.Now}
}

func (s *CompanyService) ListCompanies(ctx context.Context) ([]core.Company, error) {
	return s.store.ListCompanies(ctx)
}

// CreateCompany registers a company, generating its number when none is
// given. A clash on the name is reported as store.ErrCompanyExists; a
// clash on a generated number is retried with a new one.
func (s *CompanyService) CreateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	c.CompanyName = strings.TrimSpace(c.CompanyName)
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()

	generated := c.CompanyNumber == ""
	for attempt := 0; ; attempt++ {
		if generated {
			c.CompanyNumber = core.NewCompanyNumber()
		}
		saved, err := s.store.CreateCompany(ctx, c)
		if err == nil {
			s.logger.InfoContext(ctx, "Company created", log.FieldCompanyID, saved.ID, "company_number", saved.CompanyNumber)
			return saved, nil
		}
		if !generated || !errors.Is(err, store.ErrCompanyExists) || attempt+1 >= maxNumberAttempts || s.nameTaken(ctx, c.CompanyName) {
			return core.Company{}, err
		}
	}
}

func (s *CompanyService) DeleteCompany(ctx context.Context, id string) error {
	return s.store.DeleteCompany(ctx, id)
}

func (s *CompanyService) nameTaken(ctx context.Context, name string) bool {
	list, err := s.store.ListCompanies(ctx)
	if err != nil {
		return true
	}
	for _, c := range list {
		if strings.EqualFold(c.CompanyName, name) {
			return true
		}
	}
	return false
}

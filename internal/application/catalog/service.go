package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"
	useCaseList    = "catalog.list"
	useCaseGet     = "catalog.get"
	useCaseCreate  = "catalog.create"
	useCaseUpdate  = "catalog.update"
)

var ErrForbidden = fmt.Errorf("catalog: admin privileges required: %w", errs.ErrForbidden)

// Actor is the caller as vouched for by the upstream gateway.
type Actor struct {
	CustomerID string
	IsAdmin    bool
}

type CreateProductInput struct {
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
}

type UpdateProductInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
}

// AuditRecorder appends audit entries on a best-effort basis.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType, entityID string)
}

// Service is product administration and browsing. Stock is set once at
// creation; afterwards only the inventory ledger moves it.
type Service struct {
	store       application.Store
	idGenerator application.IDGenerator
	audit       AuditRecorder
	inst        application.Instruments
}

func NewService(store application.Store, idGen application.IDGenerator, audit AuditRecorder, tel observability.Observability) *Service {
	return &Service{
		store:       store,
		idGenerator: idGen,
		audit:       audit,
		inst:        application.NewInstruments(tel, catalogService),
	}
}

func (s *Service) ListProducts(ctx context.Context) (_ []*dominv.Product, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseList, "ListProducts")
	defer func() { sc.End(err) }()

	var products []*dominv.Product
	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var lerr error
		products, lerr = repos.Products().List(ctx)
		return lerr
	})
	if err != nil {
		sc.Fail("LIST_TX_FAILED")
		return nil, errs.Storage(err)
	}
	sc.Add(observability.F("count", len(products)))
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (_ *dominv.Product, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseGet, "GetProduct",
		attribute.String("product.id", productID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(productID) == "" {
		sc.Reject("PRODUCT_ID_REQUIRED")
		return nil, errs.Invalid("product id is required")
	}

	var p *dominv.Product
	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var gerr error
		p, gerr = repos.Products().Get(ctx, productID)
		return gerr
	})
	if errors.Is(err, errs.ErrNotFound) {
		sc.Reject("PRODUCT_NOT_FOUND")
		return nil, err
	}
	if err != nil {
		sc.Fail("GET_TX_FAILED")
		return nil, errs.Storage(err)
	}
	return p, nil
}

func (s *Service) CreateProduct(ctx context.Context, actor Actor, in CreateProductInput) (_ *dominv.Product, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseCreate, "CreateProduct",
		attribute.Bool("actor.admin", actor.IsAdmin),
	)
	defer func() { sc.End(err) }()

	if !actor.IsAdmin {
		sc.Reject("FORBIDDEN")
		return nil, ErrForbidden
	}
	p, err := dominv.NewProduct(s.idGenerator.NewID(), in.Name, in.UnitPrice, in.Stock)
	if err != nil {
		sc.Reject("INVALID_INPUT")
		return nil, err
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		return repos.Products().Insert(ctx, p)
	})
	if err != nil {
		sc.Fail("CREATE_TX_FAILED")
		return nil, errs.Storage(err)
	}

	sc.Span().SetAttributes(attribute.String("product.id", p.ID))
	sc.Add(observability.F("product_id", p.ID))
	s.record(ctx, domaudit.ActionProductCreated, p.ID)
	return p, nil
}

// UpdateProduct revises name and price. Carts pick up the new price on their
// next reprice; orders keep the price they were placed at.
func (s *Service) UpdateProduct(ctx context.Context, actor Actor, in UpdateProductInput) (_ *dominv.Product, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseUpdate, "UpdateProduct",
		attribute.String("product.id", in.ProductID),
		attribute.Bool("actor.admin", actor.IsAdmin),
	)
	defer func() { sc.End(err) }()

	if !actor.IsAdmin {
		sc.Reject("FORBIDDEN")
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.ProductID) == "" {
		sc.Reject("PRODUCT_ID_REQUIRED")
		return nil, errs.Invalid("product id is required")
	}

	var p *dominv.Product
	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var gerr error
		p, gerr = repos.Products().Get(ctx, in.ProductID)
		if gerr != nil {
			return gerr
		}
		if rerr := p.Revise(in.Name, in.UnitPrice); rerr != nil {
			return rerr
		}
		return repos.Products().Update(ctx, p)
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("PRODUCT_NOT_FOUND")
		case errors.Is(err, errs.ErrInvalidInput):
			sc.Reject("INVALID_INPUT")
		default:
			sc.Fail("UPDATE_TX_FAILED")
		}
		return nil, errs.Storage(err)
	}

	s.record(ctx, domaudit.ActionProductUpdated, p.ID)
	return p, nil
}

// Seed inserts products with caller-chosen ids, skipping ids that already
// exist. It bypasses the admin check and is meant for startup only.
func (s *Service) Seed(ctx context.Context, products []*dominv.Product) (int, error) {
	inserted := 0
	err := s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		inserted = 0
		for _, p := range products {
			if _, gerr := repos.Products().Get(ctx, p.ID); gerr == nil {
				continue
			} else if !errors.Is(gerr, errs.ErrNotFound) {
				return gerr
			}
			if ierr := repos.Products().Insert(ctx, p); ierr != nil {
				return ierr
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, errs.Storage(err)
	}
	return inserted, nil
}

func (s *Service) record(ctx context.Context, action, productID string) {
	if s.audit != nil {
		s.audit.Record(ctx, action, domaudit.EntityProduct, productID)
	}
}

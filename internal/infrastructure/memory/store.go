// Package memory implementa los puertos de persistencia en proceso.
// Se usa en tests y con APP_STORE=memory; no sirve para varias instancias.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

type (
	productRow   = entity.Product
	stockRow     = entity.BranchStock
	movementRow  = entity.StockMovement
	labelRow     = entity.PriceLabel
	promotionRow = entity.Promotion
	saleRow      = entity.Sale
	sequenceRow  = entity.SequenceCounter
)

var _ repository.TxRunner = (*Store)(nil)

type stockKey struct{ productID, branchID string }

type saleKey struct{ tenantID, branchID, receiptNo string }

type seqKey struct{ scope, name string }

// state guarda copias propias de cada registro; los repos copian al leer y al escribir,
// así que clonar el estado solo requiere copiar mapas y slices de orden.
type state struct {
	products     map[string]*productRow
	productOrder []string
	stock        map[stockKey]*stockRow
	stockOrder   []stockKey
	movements    []*movementRow
	labels       map[string]*labelRow
	labelOrder   []string
	promotions   map[string]*promotionRow
	promoOrder   []string
	sales        map[saleKey]*saleRow
	saleOrder    []saleKey
	sequences    map[seqKey]*sequenceRow
}

func newState() *state {
	return &state{
		products:   map[string]*productRow{},
		stock:      map[stockKey]*stockRow{},
		labels:     map[string]*labelRow{},
		promotions: map[string]*promotionRow{},
		sales:      map[saleKey]*saleRow{},
		sequences:  map[seqKey]*sequenceRow{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:     make(map[string]*productRow, len(s.products)),
		productOrder: append([]string(nil), s.productOrder...),
		stock:        make(map[stockKey]*stockRow, len(s.stock)),
		stockOrder:   append([]stockKey(nil), s.stockOrder...),
		movements:    append([]*movementRow(nil), s.movements...),
		labels:       make(map[string]*labelRow, len(s.labels)),
		labelOrder:   append([]string(nil), s.labelOrder...),
		promotions:   make(map[string]*promotionRow, len(s.promotions)),
		promoOrder:   append([]string(nil), s.promoOrder...),
		sales:        make(map[saleKey]*saleRow, len(s.sales)),
		saleOrder:    append([]saleKey(nil), s.saleOrder...),
		sequences:    make(map[seqKey]*sequenceRow, len(s.sequences)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.labels {
		c.labels[k] = v
	}
	for k, v := range s.promotions {
		c.promotions[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store base de datos en memoria. Las transacciones se serializan con un único mutex:
// fn trabaja sobre un clon del estado que reemplaza al original solo si termina sin error.
type Store struct {
	mu sync.Mutex
	st *state
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: newState()}
}

// accessor da acceso al estado: con lock propio (fuera de tx) o al clon de la tx.
type accessor interface {
	with(fn func(*state) error) error
}

type poolAccess struct{ s *Store }

// Cada método de repo valida antes de mutar, así que fuera de tx se opera sobre el estado vivo.
func (p poolAccess) with(fn func(*state) error) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return fn(p.s.st)
}

type txAccess struct{ st *state }

func (t txAccess) with(fn func(*state) error) error { return fn(t.st) }

// Repos devuelve repositorios fuera de transacción: cada llamada es atómica por sí sola.
// No deben usarse dentro del callback de Run (el mutex no es reentrante).
func (s *Store) Repos() repository.Repos {
	return reposOver(poolAccess{s: s})
}

// Run ejecuta fn en una transacción serializada.
func (s *Store) Run(ctx context.Context, fn func(repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(reposOver(txAccess{st: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func reposOver(a accessor) repository.Repos {
	return repository.Repos{
		Products:   &ProductRepo{db: a},
		Stock:      &StockRepo{db: a},
		Movements:  &MovementRepo{db: a},
		Labels:     &LabelRepo{db: a},
		Promotions: &PromotionRepo{db: a},
		Sales:      &SaleRepo{db: a},
		Sequences:  &SequenceRepo{db: a},
	}
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

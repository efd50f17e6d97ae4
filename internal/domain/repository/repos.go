package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Products   ProductRepository
	Stock      BranchStockRepository
	Movements  MovementRepository
	Labels     LabelRepository
	Promotions PromotionRepository
	Sales      SaleRepository
	Sequences  SequenceRepository
}

// TxRunner ejecuta fn dentro de una transacción con repos atados a ella.
// Si fn devuelve error se hace rollback; si no, commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(Repos) error) error
}

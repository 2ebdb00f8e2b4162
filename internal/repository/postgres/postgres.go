package postgres

import (
	"database/sql"

	"aroundu-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Store bundles all PostgreSQL-backed repositories behind one constructor.
type Store struct {
	db *sql.DB

	Transactions   repository.TransactionRepository
	Items          repository.ItemRepository
	Users          repository.UserRepository
	Proofs         repository.ProofRepository
	ProximityCodes repository.ProximityCodeRepository
	Checklists     repository.ChecklistRepository
	Escrow         repository.EscrowRepository
	Events         repository.EventRepository
	Trust          repository.TrustRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:             db,
		Transactions:   NewTransactionRepository(db),
		Items:          NewItemRepository(db),
		Users:          NewUserRepository(db),
		Proofs:         NewProofRepository(db),
		ProximityCodes: NewProximityCodeRepository(db),
		Checklists:     NewChecklistRepository(db),
		Escrow:         NewEscrowRepository(db),
		Events:         NewEventRepository(db),
		Trust:          NewTrustRepository(db),
	}
}

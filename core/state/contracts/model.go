package contracts

import (
	"github.com/MinterTeam/minter-harness/core/types"
)

// Model is a deployed contract record. Storage slots are kept apart from it.
type Model struct {
	Template string
	Creator  types.Address
	Height   uint64
	TxHash   types.Hash

	address types.Address
	isNew   bool
}

func (m *Model) Address() types.Address {
	return m.address
}

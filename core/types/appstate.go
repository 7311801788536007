package types

import "fmt"

type AppState struct {
	Note      string     `json:"note"`
	Accounts  []Account  `json:"accounts,omitempty"`
	Contracts []Contract `json:"contracts,omitempty"`
}

func (s *AppState) Verify() error {
	accounts := map[Address]struct{}{}
	for _, acc := range s.Accounts {
		// check for account duplication
		if _, exists := accounts[acc.Address]; exists {
			return fmt.Errorf("duplicated account %s", acc.Address.String())
		}

		accounts[acc.Address] = struct{}{}
	}

	contracts := map[Address]struct{}{}
	for _, contract := range s.Contracts {
		if _, exists := contracts[contract.Address]; exists {
			return fmt.Errorf("duplicated contract %s", contract.Address.String())
		}
		contracts[contract.Address] = struct{}{}

		if contract.Template == "" {
			return fmt.Errorf("template of contract %s is empty", contract.Address.String())
		}

		slots := map[Hash]struct{}{}
		for _, slot := range contract.Storage {
			if _, exists := slots[slot.Key]; exists {
				return fmt.Errorf("duplicated storage slot %s of contract %s", slot.Key.String(), contract.Address.String())
			}
			slots[slot.Key] = struct{}{}
		}
	}

	return nil
}

type Account struct {
	Address Address `json:"address"`
	Nonce   uint64  `json:"nonce"`
}

type Contract struct {
	Address  Address       `json:"address"`
	Template string        `json:"template"`
	Creator  Address       `json:"creator"`
	Height   uint64        `json:"height"`
	TxHash   Hash          `json:"tx_hash"`
	Storage  []StorageSlot `json:"storage,omitempty"`
}

type StorageSlot struct {
	Key   Hash     `json:"key"`
	Value HexBytes `json:"value"`
}

package types

// ChainID is ID of the network (1 - mainnet, 2 - testnet)
type ChainID byte

const (
	// ChainMainnet is mainnet chain ID of the network
	ChainMainnet ChainID = 0x01
	// ChainTestnet is testnet chain ID of the network
	ChainTestnet ChainID = 0x02
)

func (c ChainID) String() string {
	switch c {
	case ChainMainnet:
		return "mainnet"
	case ChainTestnet:
		return "testnet"
	}
	return "unknown"
}

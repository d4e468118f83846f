package client

import (
	"errors"
	"fmt"

	"esw/internal/config"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoDeployment indicates the active chain has no known stablecoin
// deployment. This is terminal for the session: the user must switch
// networks, there is nothing to retry.
var ErrNoDeployment = errors.New("no stablecoin deployment for this chain")

// deployments maps chain id to the confidential stablecoin contract address
var deployments = map[uint64]common.Address{
	31337:    common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), // local devnet
	11155111: common.HexToAddress("0x8Fd84799a73E3656B5faf0A7C2F459F5a21f2d1e"), // sepolia
}

// ResolveContract returns the stablecoin contract address for the given chain
// id. An explicit STABLE_CONTRACT_ADDRESS overrides the built-in registry.
func ResolveContract(chainID uint64) (common.Address, error) {
	if override := config.GetContractAddress(); override != "" {
		if !common.IsHexAddress(override) {
			return common.Address{}, fmt.Errorf("invalid STABLE_CONTRACT_ADDRESS %q", override)
		}
		return common.HexToAddress(override), nil
	}

	addr, ok := deployments[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("chain id %d: %w - switch networks", chainID, ErrNoDeployment)
	}
	return addr, nil
}

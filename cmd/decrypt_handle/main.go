// One-off: decrypt a single ciphertext handle through the relayer and print
// its clear value. Useful when debugging against a local fhevm node.
// Usage: go run ./cmd/decrypt_handle -handle 0x<64 hex chars>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"esw/internal/client"
	"esw/internal/common"
	"esw/internal/config"
	"esw/internal/crypto"
	"esw/internal/fhe"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

func main() {
	handleHex := flag.String("handle", "", "ciphertext handle (0x-prefixed, 32 bytes hex)")
	flag.Parse()

	if *handleHex == "" {
		fmt.Fprintln(os.Stderr, "usage: decrypt_handle -handle 0x<64 hex chars>")
		os.Exit(1)
	}

	handle, err := fhe.HandleFromHex(*handleHex)
	if err != nil {
		fatal(err)
	}
	if handle.IsZero() {
		fmt.Println("0 (zero handle, nothing to decrypt)")
		return
	}

	_ = godotenv.Load()
	if err := config.Init(); err != nil {
		fatal(err)
	}
	if err := config.PromptForPassword(); err != nil {
		fatal(err)
	}

	password, err := config.GetWalletPasswordBytes()
	if err != nil {
		fatal(err)
	}
	defer clear(password)

	envelope, walletData, err := crypto.DecryptKeyfile(config.GetWalletFilePath(), password)
	if err != nil {
		fatal(err)
	}
	defer clear(walletData.PrivateKey)

	key, err := ethcrypto.ToECDSA(walletData.PrivateKey)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetTxWaitTimeout())
	defer cancel()

	wallet := ethcommon.HexToAddress(envelope.Address)
	chain, err := client.NewChainClient(ctx, config.GetChainRPCURL(), wallet, config.GetTxWaitTimeout())
	if err != nil {
		fatal(err)
	}

	relayer := client.NewRelayerClient(config.GetRelayerURL())
	sig, err := relayer.NewDecryptionSignature(key, []ethcommon.Address{chain.ContractAddress()}, chain.ChainID(), config.GetDecryptSigDays())
	if err != nil {
		fatal(err)
	}

	values, err := relayer.UserDecrypt(ctx, sig, []fhe.Handle{handle})
	if err != nil {
		fatal(err)
	}
	raw, ok := values[handle]
	if !ok {
		fatal(fmt.Errorf("relayer returned no value for %s", handle.Hex()))
	}

	signed := fhe.ToSigned64(raw)
	fmt.Printf("handle:  %s\n", handle.Hex())
	fmt.Printf("raw:     %d\n", raw)
	fmt.Printf("signed:  %d\n", signed)
	fmt.Printf("display: %s\n", common.SignedUnitsToStable(signed))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

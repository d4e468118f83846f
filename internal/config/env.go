package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetWalletPasswordBytes()
type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	WalletFilePath  string `envconfig:"WALLET_FILE_PATH" required:"true"`
	ChainRPCURL     string `envconfig:"CHAIN_RPC_URL" default:"http://localhost:8545"`
	RelayerURL      string `envconfig:"RELAYER_URL" default:"http://localhost:8547"`
	ContractAddress string `envconfig:"STABLE_CONTRACT_ADDRESS" default:""`
	EncryptDebounce int    `envconfig:"ENCRYPT_DEBOUNCE_MS" default:"150"`
	DecryptSigDays  int    `envconfig:"DECRYPT_SIG_DURATION_DAYS" default:"10"`
	TxWaitSeconds   int    `envconfig:"TX_WAIT_TIMEOUT_SECONDS" default:"120"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetWalletFilePath returns path to the .esw keyfile from configuration
func GetWalletFilePath() string {
	return Get().WalletFilePath
}

// GetChainRPCURL returns the EVM JSON-RPC endpoint from configuration
func GetChainRPCURL() string {
	return Get().ChainRPCURL
}

// GetRelayerURL returns the FHE relayer endpoint from configuration
func GetRelayerURL() string {
	return Get().RelayerURL
}

// GetContractAddress returns the optional deployment-registry override
func GetContractAddress() string {
	return Get().ContractAddress
}

// GetEncryptDebounce returns the delay applied before encrypting an input
func GetEncryptDebounce() time.Duration {
	return time.Duration(Get().EncryptDebounce) * time.Millisecond
}

// GetDecryptSigDays returns the validity window of a decryption signature
func GetDecryptSigDays() int {
	return Get().DecryptSigDays
}

// GetTxWaitTimeout returns how long to wait for a transaction receipt
func GetTxWaitTimeout() time.Duration {
	return time.Duration(Get().TxWaitSeconds) * time.Second
}

// GetLogLevel returns the log level string from configuration
func GetLogLevel() string {
	return Get().LogLevel
}

var passwordBytes []byte

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}

	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	clear(raw)
	return nil
}

// GetWalletPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetWalletPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

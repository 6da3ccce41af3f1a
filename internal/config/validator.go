package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks the config for:
//   - Required ledger settings
//   - Well-formed addresses and URLs
//   - Non-negative concurrency and timeouts
func Validate(cfg *AppConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	l := cfg.Ledger
	if l.RPCURL == "" {
		errs = append(errs, "ledger.rpc_url is required")
	} else if u, err := url.Parse(l.RPCURL); err != nil || u.Scheme == "" {
		errs = append(errs, fmt.Sprintf("ledger.rpc_url %q is not a URL", l.RPCURL))
	}
	if !common.IsHexAddress(l.ContractAddress) {
		errs = append(errs, fmt.Sprintf("ledger.contract_address %q is not a hex address", l.ContractAddress))
	}
	if l.WalletAddress != "" && !common.IsHexAddress(l.WalletAddress) {
		errs = append(errs, fmt.Sprintf("ledger.wallet_address %q is not a hex address", l.WalletAddress))
	}
	if l.ChainID < 0 {
		errs = append(errs, "ledger.chain_id must not be negative")
	}
	if l.CallTimeout < 0 || l.ReceiptTimeout < 0 {
		errs = append(errs, "ledger timeouts must not be negative")
	}

	if cfg.Catalog.FetchWorkers < 0 {
		errs = append(errs, "catalog.fetch_workers must not be negative")
	}
	if cfg.Catalog.PageSize < 0 {
		errs = append(errs, "catalog.page_size must not be negative")
	}
	if cfg.Reconcile.ScanWorkers < 0 {
		errs = append(errs, "reconcile.scan_workers must not be negative")
	}
	if cfg.Reconcile.BatchSize < 0 {
		errs = append(errs, "reconcile.batch_size must not be negative")
	}
	if u, err := url.Parse(cfg.Metadata.BaseURI); cfg.Metadata.BaseURI != "" && (err != nil || !u.IsAbs()) {
		errs = append(errs, fmt.Sprintf("metadata.base_uri %q must be an absolute URI", cfg.Metadata.BaseURI))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

package config

import "time"

// AppConfig is the top-level YAML structure.
type AppConfig struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Ledger    LedgerConf    `yaml:"ledger"`
	Catalog   CatalogConf   `yaml:"catalog"`
	Reconcile ReconcileConf `yaml:"reconcile"`
	Metadata  MetadataConf  `yaml:"metadata"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LedgerConf describes the node and contract. PrivateKey is normally supplied
// through TIKTR_PRIVATE_KEY rather than the file.
type LedgerConf struct {
	RPCURL          string        `yaml:"rpc_url"`
	ContractAddress string        `yaml:"contract_address"`
	ChainID         int64         `yaml:"chain_id"` // 0 = ask the node
	PrivateKey      string        `yaml:"private_key"`
	WalletAddress   string        `yaml:"wallet_address"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	ReceiptTimeout  time.Duration `yaml:"receipt_timeout"`
}

// CatalogConf tunes the event catalog fan-out.
type CatalogConf struct {
	FetchWorkers int           `yaml:"fetch_workers"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	PageSize     int           `yaml:"page_size"`
}

// ReconcileConf tunes the ticket ownership scan.
type ReconcileConf struct {
	ScanWorkers   int           `yaml:"scan_workers"`
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	BatchSize     int           `yaml:"batch_size"`
	MaxScan       uint64        `yaml:"max_scan"` // 0 = unlimited
}

// MetadataConf holds the base URI new listings hang their metadata off.
type MetadataConf struct {
	BaseURI string `yaml:"base_uri"`
}

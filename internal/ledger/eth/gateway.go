// Package eth implements ledger.Gateway against an EVM chain over JSON-RPC.
package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/metrics"
)

// revertCode is the JSON-RPC error code nodes use for a reverted call.
const revertCode = 3

// Config describes how to reach the contract.
type Config struct {
	RPCURL   string
	Contract common.Address
	// ChainID is read from the node when nil.
	ChainID *big.Int
	// PrivateKey is a hex signing key. Without it the gateway is read-only.
	PrivateKey string
	// WatchAddress is the identity of a read-only session.
	WatchAddress   string
	CallTimeout    time.Duration
	ReceiptTimeout time.Duration
}

// Gateway is a ledger.Gateway backed by the ticketing contract.
type Gateway struct {
	abi            abi.ABI
	address        common.Address
	contract       *bind.BoundContract
	deployer       bind.DeployBackend
	key            *ecdsa.PrivateKey
	watch          *common.Address
	chainID        *big.Int
	callTimeout    time.Duration
	receiptTimeout time.Duration
	closeFn        func()
}

var _ ledger.Gateway = (*Gateway)(nil)

// Dial connects to the node at cfg.RPCURL.
func Dial(ctx context.Context, cfg Config) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("eth: dial %s: %w", cfg.RPCURL, err)
	}
	if cfg.ChainID == nil {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("eth: chain id: %w", err)
		}
		cfg.ChainID = id
	}
	g, err := newGateway(cfg, client, client, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	g.closeFn = client.Close
	return g, nil
}

func newGateway(cfg Config, caller bind.ContractCaller, transactor bind.ContractTransactor, deployer bind.DeployBackend) (*Gateway, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("eth: parse abi: %w", err)
	}
	g := &Gateway{
		abi:            parsed,
		address:        cfg.Contract,
		contract:       bind.NewBoundContract(cfg.Contract, parsed, caller, transactor, nil),
		deployer:       deployer,
		chainID:        cfg.ChainID,
		callTimeout:    cfg.CallTimeout,
		receiptTimeout: cfg.ReceiptTimeout,
	}
	if k := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"); k != "" {
		key, err := crypto.HexToECDSA(k)
		if err != nil {
			return nil, fmt.Errorf("eth: private key: %w", err)
		}
		g.key = key
	}
	if cfg.WatchAddress != "" {
		a, err := ledger.ParseAddress(cfg.WatchAddress)
		if err != nil {
			return nil, fmt.Errorf("eth: watch address: %w", err)
		}
		g.watch = &a
	}
	return g, nil
}

// Close releases the RPC connection.
func (g *Gateway) Close() {
	if g.closeFn != nil {
		g.closeFn()
	}
}

// Connect returns the signing account, or the watch address for a read-only
// session.
func (g *Gateway) Connect(ctx context.Context) (ledger.Identity, error) {
	switch {
	case g.key != nil:
		return ledger.Identity{Address: crypto.PubkeyToAddress(g.key.PublicKey)}, nil
	case g.watch != nil:
		return ledger.Identity{Address: *g.watch, ReadOnly: true}, nil
	default:
		return ledger.Identity{}, ledger.ErrNotConnected
	}
}

func (g *Gateway) ListEventIDs(ctx context.Context) ([]ledger.EventID, error) {
	out, err := g.call(ctx, methodAllEventIDs)
	if err != nil {
		return nil, err
	}
	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("eth: %s: unexpected output %T", methodAllEventIDs, out[0])
	}
	ids := make([]ledger.EventID, 0, len(raw))
	for _, v := range raw {
		n, err := toUint64(methodAllEventIDs, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, ledger.EventID(n))
	}
	return ids, nil
}

func (g *Gateway) GetEvent(ctx context.Context, id ledger.EventID) (ledger.EventRecord, error) {
	out, err := g.call(ctx, methodEvents, new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return ledger.EventRecord{}, err
	}
	return decodeEvent(id, out)
}

func decodeEvent(id ledger.EventID, out []interface{}) (ledger.EventRecord, error) {
	if len(out) != 5 {
		return ledger.EventRecord{}, fmt.Errorf("eth: %s(%d): expected 5 outputs, got %d", methodEvents, id, len(out))
	}
	creator, ok1 := out[0].(common.Address)
	price, ok2 := out[1].(*big.Int)
	uri, ok3 := out[2].(string)
	maxT, ok4 := out[3].(*big.Int)
	sold, ok5 := out[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return ledger.EventRecord{}, fmt.Errorf("eth: %s(%d): unexpected output types", methodEvents, id)
	}
	if creator == (common.Address{}) {
		return ledger.EventRecord{}, fmt.Errorf("eth: %s(%d): %w", methodEvents, id, ledger.ErrEventNotFound)
	}
	maxTickets, err := toUint64("maxTickets", maxT)
	if err != nil {
		return ledger.EventRecord{}, err
	}
	ticketsSold, err := toUint64("ticketsSold", sold)
	if err != nil {
		return ledger.EventRecord{}, err
	}
	return ledger.EventRecord{
		ID:             id,
		Creator:        creator,
		TicketPriceWei: price,
		MetadataURI:    uri,
		MaxTickets:     maxTickets,
		TicketsSold:    ticketsSold,
	}, nil
}

// GetTicketOwner maps a reverted ownerOf (unminted or burned token) to Absent.
func (g *Gateway) GetTicketOwner(ctx context.Context, id ledger.TicketID) (ledger.OwnerLookup, error) {
	out, err := g.call(ctx, methodOwnerOf, new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		if isRevert(err) {
			return ledger.Absent(), nil
		}
		return ledger.OwnerLookup{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return ledger.OwnerLookup{}, fmt.Errorf("eth: %s: unexpected output %T", methodOwnerOf, out[0])
	}
	if owner == (common.Address{}) {
		return ledger.Absent(), nil
	}
	return ledger.Found(owner), nil
}

func (g *Gateway) GetTicketEventID(ctx context.Context, id ledger.TicketID) (ledger.EventID, error) {
	out, err := g.call(ctx, methodTokenEventID, new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("eth: %s: unexpected output %T", methodTokenEventID, out[0])
	}
	n, err := toUint64(methodTokenEventID, v)
	return ledger.EventID(n), err
}

func (g *Gateway) TicketCount(ctx context.Context) (uint64, error) {
	out, err := g.call(ctx, methodTicketCount)
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("eth: %s: unexpected output %T", methodTicketCount, out[0])
	}
	return toUint64(methodTicketCount, v)
}

// SubmitEvent sends createEvent, waits for the receipt and reads the new id
// from the EventCreated log.
func (g *Gateway) SubmitEvent(ctx context.Context, metadataURI string, priceWei *big.Int, maxTickets uint64) (ledger.EventID, error) {
	if g.key == nil {
		return 0, ledger.ErrReadOnly
	}
	opts, err := bind.NewKeyedTransactorWithChainID(g.key, g.chainID)
	if err != nil {
		return 0, fmt.Errorf("eth: transactor: %w", err)
	}
	opts.Context = ctx

	start := time.Now()
	tx, err := g.contract.Transact(opts, methodCreateEvent, metadataURI, priceWei, new(big.Int).SetUint64(maxTickets))
	observe(methodCreateEvent, start, err)
	if err != nil {
		return 0, fmt.Errorf("eth: %s: %w", methodCreateEvent, err)
	}

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if g.receiptTimeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, g.receiptTimeout)
	}
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, g.deployer, tx)
	if err != nil {
		return 0, fmt.Errorf("eth: wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return 0, fmt.Errorf("eth: %s reverted in tx %s", methodCreateEvent, tx.Hash().Hex())
	}
	return g.createdEventID(receipt.Logs)
}

func (g *Gateway) createdEventID(logs []*types.Log) (ledger.EventID, error) {
	topic := g.abi.Events[logEventCreated].ID
	for _, lg := range logs {
		if lg.Address != g.address || len(lg.Topics) < 2 || lg.Topics[0] != topic {
			continue
		}
		n, err := toUint64(logEventCreated, new(big.Int).SetBytes(lg.Topics[1].Bytes()))
		return ledger.EventID(n), err
	}
	return 0, fmt.Errorf("eth: no %s log in receipt", logEventCreated)
}

func (g *Gateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}
	start := time.Now()
	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	observe(method, start, err)
	if err != nil {
		return nil, fmt.Errorf("eth: %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("eth: %s: empty output", method)
	}
	return out, nil
}

func observe(method string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case isRevert(err):
		status = "reverted"
	default:
		status = "error"
	}
	metrics.LedgerCalls.WithLabelValues(method, status).Inc()
	metrics.LedgerCallDuration.WithLabelValues(method).Observe(float64(time.Since(start).Milliseconds()))
}

func isRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func toUint64(field string, v *big.Int) (uint64, error) {
	if v == nil || !v.IsUint64() {
		return 0, fmt.Errorf("eth: %s: value %v out of range", field, v)
	}
	return v.Uint64(), nil
}

// Package solana verifies burn transactions against the Solana ledger.
// The verifier only reads chain state — it never constructs, signs, or
// broadcasts transactions. The burned amount is taken from the finalized
// transaction record, never from client input.
package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/landgame-labs/burngate/internal/domain"
)

// SPL Token instruction tags (first byte of instruction data).
const (
	tokenInstructionBurn        = 8
	tokenInstructionBurnChecked = 15
)

// ledgerReader is the slice of the RPC client the verifier needs.
type ledgerReader interface {
	GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// Verifier checks burn transactions for one configured token mint.
type Verifier struct {
	client  ledgerReader
	mint    solana.PublicKey
	timeout time.Duration
}

// NewVerifier creates a verifier against the given RPC endpoint.
func NewVerifier(rpcURL, mint string, timeout time.Duration) (*Verifier, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address %q: %w", mint, err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{
		client:  rpc.New(rpcURL),
		mint:    mintKey,
		timeout: timeout,
	}, nil
}

// VerifyBurn fetches the finalized transaction and confirms it is a
// successful burn of the expected mint signed by the claimed wallet.
// Returns the burned amount in token base units as recorded on chain.
func (v *Verifier) VerifyBurn(ctx context.Context, signature, claimedSigner string) (uint64, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed signature", domain.ErrTxNotFound)
	}
	signer, err := solana.PublicKeyFromBase58(claimedSigner)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed wallet address", domain.ErrSignerMismatch)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	maxVersion := uint64(0)
	out, err := v.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, domain.ErrTxNotFound
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrChainQuery, err)
	}
	if out == nil || out.Transaction == nil {
		return 0, domain.ErrTxNotFound
	}
	if out.Meta == nil {
		return 0, fmt.Errorf("%w: transaction meta missing", domain.ErrChainQuery)
	}
	if out.Meta.Err != nil {
		return 0, domain.ErrTxFailed
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return 0, fmt.Errorf("%w: decode transaction: %v", domain.ErrChainQuery, err)
	}

	return burnedAmount(tx, v.mint, signer)
}

// burnedAmount walks the transaction's instructions for an SPL Token burn of
// the expected mint authorized by the signer, and checks the fee payer.
func burnedAmount(tx *solana.Transaction, mint, signer solana.PublicKey) (uint64, error) {
	msg := &tx.Message
	if len(msg.AccountKeys) == 0 {
		return 0, fmt.Errorf("%w: transaction has no account keys", domain.ErrChainQuery)
	}

	// The fee payer is always the first account and a required signer.
	if !msg.AccountKeys[0].Equals(signer) {
		return 0, domain.ErrSignerMismatch
	}

	for _, ix := range msg.Instructions {
		if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) {
			continue
		}
		if !msg.AccountKeys[ix.ProgramIDIndex].Equals(solana.TokenProgramID) {
			continue
		}
		if amount, ok := decodeBurn(msg, ix, mint, signer); ok {
			return amount, nil
		}
	}
	return 0, domain.ErrNoBurnInstruction
}

// decodeBurn decodes one token-program instruction. Account layout for Burn
// and BurnChecked: [token account, mint, authority]. The amount is a
// little-endian uint64 after the 1-byte tag.
func decodeBurn(msg *solana.Message, ix solana.CompiledInstruction, mint, signer solana.PublicKey) (uint64, bool) {
	data := []byte(ix.Data)
	if len(data) < 9 {
		return 0, false
	}
	if data[0] != tokenInstructionBurn && data[0] != tokenInstructionBurnChecked {
		return 0, false
	}
	if len(ix.Accounts) < 3 {
		return 0, false
	}
	for _, idx := range ix.Accounts[:3] {
		if int(idx) >= len(msg.AccountKeys) {
			return 0, false
		}
	}
	if !msg.AccountKeys[ix.Accounts[1]].Equals(mint) {
		return 0, false
	}
	if !msg.AccountKeys[ix.Accounts[2]].Equals(signer) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[1:9]), true
}

var _ domain.BurnVerifier = (*Verifier)(nil)

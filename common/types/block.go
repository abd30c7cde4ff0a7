package types

// Block is the tuple the Verifier checks and the pipeline feeds back to the
// Pool on acceptance. Transactions is the block's final, ordered payload;
// the Verifier hashes it in the order given and neither re-sorts it nor
// checks it against CompareTransactions.
type Block struct {
	ID                   Hash
	Height               uint64
	PreviousID           Hash
	Timestamp            int64
	Version              int
	GeneratorPublicKey   []byte
	Signature            []byte
	Reward               uint64
	TotalAmount          uint64
	TotalFee             uint64
	PayloadLength        int
	PayloadHash          Hash
	NumberOfTransactions int
	Transactions         []*Transaction
}

// TransactionIDs returns the ordered list of transaction ids carried by the
// block.
func (b *Block) TransactionIDs() []Hash {
	ids := make([]Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.ID
	}
	return ids
}

// GeneratorAddress derives the producing delegate's address from the
// block's claimed public key, the same formula accounts use.
func (b *Block) GeneratorAddress() Address {
	return PubkeyToAddress(b.GeneratorPublicKey)
}

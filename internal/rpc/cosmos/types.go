package cosmos

type StatusResponse struct {
	SyncInfo SyncInfo `json:"sync_info"`
}

type SyncInfo struct {
	LatestBlockHeight string `json:"latest_block_height"`
	CatchingUp        bool   `json:"catching_up"`
}

type BlockResponse struct {
	BlockID BlockID `json:"block_id"`
	Block   Block   `json:"block"`
}

type BlockID struct {
	Hash string `json:"hash"`
}

type Block struct {
	Header BlockHeader `json:"header"`
	Data   BlockData   `json:"data"`
}

type BlockHeader struct {
	ChainID string `json:"chain_id"`
	Height  string `json:"height"`
	Time    string `json:"time"`
}

type BlockData struct {
	Txs []string `json:"txs"`
}

package constant

import "time"

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Persisted keys.
const (
	KeyLastDownloadBlock = "last_download_block"

	KindMsgSend        = "msgSend"
	KindMsgIbcTransfer = "msgIbcTransfer"

	// HeightKeyWidth is the zero padding applied to heights in record keys so that
	// lexicographic key order equals height order.
	HeightKeyWidth = 12
)

// Message type tags handled by the classifier.
const (
	TypeURLMsgSend     = "/cosmos.bank.v1beta1.MsgSend"
	TypeURLMsgTransfer = "/ibc.applications.transfer.v1.MsgTransfer"
	TypeURLTxRaw       = "/cosmos.tx.v1beta1.TxRaw"
	TypeURLTxBody      = "/cosmos.tx.v1beta1.TxBody"
)

// Ingestion defaults.
const (
	DefaultBatchSize      = 500
	DefaultExecuteSize    = 10
	DefaultMaxRetries     = 5
	DefaultRetryDelay     = time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultPollInterval   = 5 * time.Second
	DefaultFollowErrDelay = 10 * time.Second
	DefaultRangePageSize  = 20
	DefaultRangeParallel  = 5
	DefaultTestBlockLimit = 1000
)

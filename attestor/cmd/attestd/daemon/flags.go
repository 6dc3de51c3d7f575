package daemon

const (
	homeFlag        = "home"
	forceFlag       = "force"
	rpcListenerFlag = "rpc-listener"
	daemonAddrFlag  = "daemon-address"

	// flags for init
	genesisKeyFlag = "genesis-key"

	// flags for keys
	keyNameFlag = "key-name"

	// flags for sign
	guardianKeyFlag      = "guardian-key"
	guardianSetIndexFlag = "guardian-set-index"
	timestampFlag        = "timestamp"
	nonceFlag            = "nonce"
	emitterChainFlag     = "emitter-chain"
	emitterAddressFlag   = "emitter-address"
	sequenceFlag         = "sequence"
	consistencyLevelFlag = "consistency-level"
	payloadFlag          = "payload"

	// flags for queries
	indexFlag = "index"
	listFlag  = "list"
)

package notify

// Broadcaster is the subset of the query/subscription server the router
// needs: deliver a notification payload to every connection subscribed to
// topic.
type Broadcaster interface {
	Broadcast(topic string, code int, payload string)
}

// Topic names recognized by the query/subscription server.
const (
	TopicBlocks              = "blocks"
	TopicTransactions        = "transactions"
	TopicSmartContracts      = "smart_contracts"
	TopicTokenTransfers      = "token_transfers"
	TopicTokenDeploys        = "token_deploys"
	TopicOrdinalInscriptions = "ordinal_inscriptions"
	TopicOrdinalTransfers    = "ordinal_transfers"
)

// Notification codes sent over the wire protocol.
const (
	CodeNewBlock           = 200
	CodeNewTransaction     = 201
	CodeTransactionStatus  = 202
	CodeSmartContractEvent = 203
	CodeTokenTransfer      = 204
	CodeTokenDeploy        = 205
	CodeOrdinalInscription = 206
	CodeOrdinalTransfer    = 207
)

// OIC event kinds, matching pkg/oic's OnEvent callback.
const (
	KindNameRegistration = "name_registration"
	KindNameUpdate       = "name_update"
	KindNameTransfer     = "name_transfer"
	KindTokenDeploy      = "token_deploy"
	KindTokenMint        = "token_mint"
)

// Router fans out OIC events to the query/subscription server. It holds no
// state of its own beyond the broadcaster it forwards to.
type Router struct {
	bc Broadcaster
}

// NewRouter creates a Router that forwards to bc.
func NewRouter(bc Broadcaster) *Router {
	return &Router{bc: bc}
}

// Dispatch maps an OIC event kind to its wire topic and notification code
// and forwards it. Unknown kinds are dropped; OIC only ever emits the five
// kinds above.
func (r *Router) Dispatch(kind, payload string, block int64, txIndex uint32) {
	topic, code, ok := route(kind)
	if !ok {
		return
	}
	r.bc.Broadcast(topic, code, payload)
}

func route(kind string) (topic string, code int, ok bool) {
	switch kind {
	case KindNameRegistration, KindNameUpdate:
		return TopicOrdinalInscriptions, CodeOrdinalInscription, true
	case KindNameTransfer:
		return TopicOrdinalTransfers, CodeOrdinalTransfer, true
	case KindTokenDeploy:
		return TopicTokenDeploys, CodeTokenDeploy, true
	case KindTokenMint:
		// No dedicated mint code exists in the inherited wire protocol
		// (only deploy/transfer are distinguished for tokens); a mint is
		// reported as a generic ordinal inscription event.
		return TopicOrdinalInscriptions, CodeOrdinalInscription, true
	default:
		return "", 0, false
	}
}

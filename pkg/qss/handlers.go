package qss

import (
	"encoding/json"

	"github.com/akaitrade/ordinalindex/pkg/types"
)

// handle dispatches one parsed request envelope to its handler and always
// returns a response envelope — a request never goes unanswered.
func (s *Server) handle(req Envelope) Envelope {
	switch req.Type {
	case TypeGetStatus:
		return s.handleGetStatus(req)
	case TypeGetCounters:
		return s.handleGetCounters(req)
	case TypeGetLastBlockInfo:
		return s.handleGetLastBlockInfo(req)

	case TypeGetBalance, TypeGetTransaction, TypeGetPool, TypeGetPools,
		TypeGetPoolsInfo, TypeGetTransactions,
		TypeSmartContractCall, TypeSmartContractQuery, TypeSmartContractInfo,
		TypeTokenHolders, TypeTokenTransferHistory, TypeTokenMintHistory, TypeTokenReserved21:
		return notImplementedEnvelope(req.ID)

	case TypeTokenInfo, TypeOrdinalTokenInfo:
		return s.handleTokenInfo(req)
	case TypeTokenBalance, TypeOrdinalTokenBalance:
		return s.handleTokenBalance(req)
	case TypeTokenTotalSupply:
		return s.handleTokenTotalSupply(req)
	case TypeTokenDeployInfo:
		return s.handleTokenDeployInfo(req)
	case TypeTokenList:
		return s.handleTokenList(req)

	case TypeOrdinalCNSCheck:
		return s.handleCNSCheck(req)
	case TypeOrdinalCNSLookup:
		return s.handleCNSLookup(req)
	case TypeOrdinalNamesByOwner:
		return s.handleNamesByOwner(req)
	case TypeOrdinalTotals:
		return s.handleGetCounters(req)

	default:
		return errorEnvelope(req.ID, "unrecognized request type")
	}
}

func (s *Server) handleGetStatus(req Envelope) Envelope {
	return dataEnvelope(req.Type, req.ID, map[string]uint64{
		"indexedHeight": s.index.IndexedHeight(),
	})
}

func (s *Server) handleGetLastBlockInfo(req Envelope) Envelope {
	return dataEnvelope(req.Type, req.ID, map[string]uint64{
		"blockNumber": s.index.IndexedHeight(),
	})
}

func (s *Server) handleGetCounters(req Envelope) Envelope {
	return dataEnvelope(req.Type, req.ID, map[string]int{
		"totalNames":        s.index.TotalNames(),
		"totalTokens":       s.index.TotalTokens(),
		"totalInscriptions": s.index.TotalInscriptions(),
	})
}

type tickerRequest struct {
	Ticker string `json:"ticker"`
}

func (s *Server) handleTokenInfo(req Envelope) Envelope {
	var in tickerRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Ticker == "" {
		return errorEnvelope(req.ID, "missing ticker")
	}
	ts, found, err := s.index.GetToken(in.Ticker)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	if !found {
		return errorEnvelope(req.ID, "token not found")
	}
	return dataEnvelope(req.Type, req.ID, ts)
}

func (s *Server) handleTokenTotalSupply(req Envelope) Envelope {
	var in tickerRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Ticker == "" {
		return errorEnvelope(req.ID, "missing ticker")
	}
	ts, found, err := s.index.GetToken(in.Ticker)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	if !found {
		return errorEnvelope(req.ID, "token not found")
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{
		"ticker":      ts.Ticker,
		"totalMinted": splitAmount(ts.TotalMinted),
		"maxSupply":   splitAmount(ts.MaxSupply),
	})
}

func (s *Server) handleTokenDeployInfo(req Envelope) Envelope {
	var in tickerRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Ticker == "" {
		return errorEnvelope(req.ID, "missing ticker")
	}
	ts, found, err := s.index.GetToken(in.Ticker)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	if !found {
		return errorEnvelope(req.ID, "token not found")
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{
		"ticker":      ts.Ticker,
		"deployBlock": ts.DeployBlock,
		"deployer":    ts.Deployer,
	})
}

type tokenListRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (s *Server) handleTokenList(req Envelope) Envelope {
	var in tokenListRequest
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return errorEnvelope(req.ID, "malformed request")
		}
	}
	tokens, err := s.index.ListTokens(in.Offset, in.Limit, nil)
	if err != nil {
		return errorEnvelope(req.ID, "list failed")
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{"tokens": tokens})
}

type balanceRequest struct {
	Address string `json:"address"`
	Ticker  string `json:"ticker"`
}

func (s *Server) handleTokenBalance(req Envelope) Envelope {
	var in balanceRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Address == "" || in.Ticker == "" {
		return errorEnvelope(req.ID, "missing address or ticker")
	}
	if _, err := decodeAddress(in.Address); err != nil {
		return errorEnvelope(req.ID, err.Error())
	}
	bal, err := s.index.GetTokenBalance(in.Address, in.Ticker)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{
		"address": in.Address,
		"ticker":  in.Ticker,
		"balance": splitAmount(bal),
	})
}

type cnsRequest struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (s *Server) handleCNSCheck(req Envelope) Envelope {
	var in cnsRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Name == "" {
		return errorEnvelope(req.ID, "missing name")
	}
	ns := in.Namespace
	if ns == "" {
		ns = string(types.NamespaceCNS)
	}
	rec, found, err := s.index.LookupName(ns, in.Name)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	if !found {
		return dataEnvelope(req.Type, req.ID, map[string]interface{}{"available": true})
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{
		"available": false,
		"cnsInfo": map[string]interface{}{
			"protocol":    rec.Namespace,
			"operation":   rec.Op,
			"name":        rec.Name,
			"holder":      rec.Owner,
			"blockNumber": rec.FirstSeenBlock,
			"txIndex":     rec.FirstSeenTxIndex,
			"relay":       rec.Relay,
		},
	})
}

func (s *Server) handleCNSLookup(req Envelope) Envelope {
	var in cnsRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Name == "" {
		return errorEnvelope(req.ID, "missing name")
	}
	ns := in.Namespace
	if ns == "" {
		ns = string(types.NamespaceCNS)
	}
	rec, found, err := s.index.LookupName(ns, in.Name)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	if !found {
		return errorEnvelope(req.ID, "name not found")
	}
	return dataEnvelope(req.Type, req.ID, rec)
}

type ownerRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleNamesByOwner(req Envelope) Envelope {
	var in ownerRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Address == "" {
		return errorEnvelope(req.ID, "missing address")
	}
	if _, err := decodeAddress(in.Address); err != nil {
		return errorEnvelope(req.ID, err.Error())
	}
	names, err := s.index.NamesByOwner(in.Address)
	if err != nil {
		return errorEnvelope(req.ID, "lookup failed")
	}
	return dataEnvelope(req.Type, req.ID, map[string]interface{}{"names": names})
}

type subscribeRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleSubscribe(c *Conn, req Envelope) Envelope {
	var in subscribeRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Topic == "" {
		return errorEnvelope(req.ID, "missing topic")
	}
	if !validTopic(in.Topic) {
		return errorEnvelope(req.ID, "unrecognized topic")
	}
	c.subscribe(in.Topic)
	return dataEnvelope(req.Type, req.ID, map[string]string{"subscribed": in.Topic})
}

func (s *Server) handleUnsubscribe(c *Conn, req Envelope) Envelope {
	var in subscribeRequest
	if err := json.Unmarshal(req.Data, &in); err != nil || in.Topic == "" {
		return errorEnvelope(req.ID, "missing topic")
	}
	c.unsubscribe(in.Topic)
	return dataEnvelope(req.Type, req.ID, map[string]string{"unsubscribed": in.Topic})
}

func validTopic(topic string) bool {
	switch topic {
	case TopicBlocks, TopicTransactions, TopicSmartContracts,
		TopicTokenTransfers, TopicTokenDeploys,
		TopicOrdinalInscriptions, TopicOrdinalTransfers:
		return true
	default:
		// Per-transaction topics are parameterized ("tx:<id>") and always
		// accepted; the transaction store backing them is out of scope, so
		// no notification will ever match, but subscribing is not an error.
		return len(topic) > 3 && topic[:3] == "tx:"
	}
}

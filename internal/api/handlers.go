package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/registry"
)

func (s *Server) handleConfigTokens(w http.ResponseWriter, r *http.Request) {
	coins := s.Registry.Coins()
	ids := make([]registry.ChainKey, 0, len(coins))
	for _, c := range coins {
		ids = append(ids, c.ID)
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"coins":  ids,
		"tokens": s.Registry.Tokens(),
	})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("coins")
	if raw == "" {
		JSON(w, http.StatusBadRequest, map[string]string{"error": "coins query parameter is required"})
		return
	}
	symbols := strings.Split(raw, ",")
	for i := range symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
	}

	result := s.Prices.Fetch(r.Context(), symbols)
	JSON(w, http.StatusOK, map[string]interface{}{
		"code":   http.StatusOK,
		"data":   result.Data,
		"failed": result.Failed,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.Version)
}

var validDocTypes = map[string]bool{"security": true, "privacy": true, "terms": true}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "type")
	if !validDocTypes[docType] {
		JSON(w, http.StatusNotFound, map[string]string{"error": "unknown doc type"})
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang != "en" {
		lang = "zh"
	}

	byLang, ok := s.Docs[docType]
	if !ok {
		JSON(w, http.StatusNotFound, map[string]string{"error": "unknown doc type"})
		return
	}
	body, ok := byLang[lang]
	if !ok {
		body, ok = byLang["zh"]
		if !ok {
			JSON(w, http.StatusNotFound, map[string]string{"error": "doc not available"})
			return
		}
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")
	contract := r.URL.Query().Get("contract")

	result, err := s.Router.DispatchBalance(r.Context(), chain, address, contract)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"chain":    chain,
		"address":  address,
		"contract": nullableString(contract),
		"balance":  result.Balance,
		"raw":      result.Raw,
		"extra":    result.Extra,
	})
}

func (s *Server) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")

	result, err := s.Router.DispatchResource(r.Context(), chain, address)
	if err != nil {
		Error(w, err)
		return
	}
	body := map[string]interface{}{
		"chain":        chain,
		"address":      address,
		"feeConstants": result.FeeConstants,
	}
	for k, v := range result.Resource {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")
	contract := r.URL.Query().Get("contract")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	transfers, err := s.Router.DispatchHistory(r.Context(), chain, address, contract, limit)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, transfers)
}

func (s *Server) handleUTXO(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")
	totalValue := r.URL.Query().Get("total_value")

	utxos, err := s.Router.DispatchUTXO(r.Context(), chain, address, totalValue)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, utxos)
}

func (s *Server) handleLatestBlock(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))

	block, err := s.Router.DispatchLatestBlock(r.Context(), chain)
	if err != nil {
		JSON(w, http.StatusBadGateway, map[string]string{"error": "latest block unavailable"})
		return
	}
	JSON(w, http.StatusOK, block)
}

func (s *Server) handleFee(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))

	fee, err := s.Router.DispatchFee(r.Context(), chain)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, fee)
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")

	nonce, err := s.Router.DispatchNonce(r.Context(), chain, address)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, nonce)
}

func (s *Server) handleEstimateGas(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	address := chi.URLParam(r, "address")
	contract := r.URL.Query().Get("contract")

	gas, err := s.Router.DispatchGas(r.Context(), chain, address, contract)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, gas)
}

func (s *Server) handleSeqno(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	seqno, isDeployed, err := s.Router.DispatchSeqno(r.Context(), registry.ChainKey(chi.URLParam(r, "chain")), address)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"seqno":       seqno,
		"is_deployed": isDeployed,
	})
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))
	txID := chi.URLParam(r, "tx_id")

	tx, err := s.Router.DispatchTransaction(r.Context(), chain, txID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, tx)
}

type broadcastRequest struct {
	TxHex string `json:"tx_hex"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	chain := registry.ChainKey(chi.URLParam(r, "chain"))

	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil || req.TxHex == "" {
		JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false})
		return
	}

	txid, err := s.Router.DispatchBroadcast(r.Context(), chain, req.TxHex)
	if err != nil {
		if cerr, ok := chainerr.AsError(err); ok {
			JSON(w, cerr.Classification.HTTPStatus(), map[string]interface{}{"success": false, "error": cerr.Message})
			return
		}
		JSON(w, http.StatusBadGateway, map[string]interface{}{"success": false})
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "txid": txid})
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

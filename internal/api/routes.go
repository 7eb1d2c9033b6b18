package api

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) routes(r chi.Router) {
	r.Get("/config/tokens", s.handleConfigTokens)
	r.Get("/prices", s.handlePrices)
	r.Get("/version", s.handleVersion)
	r.Get("/docs/{type}", s.handleDocs)

	r.Get("/balance/{chain}/{address}", s.handleBalance)
	r.Get("/accountResource/{chain}/{address}", s.handleAccountResource)
	r.Get("/transaction/{chain}/{address}", s.handleTransactionHistory)
	r.Get("/utxo/{chain}/{address}", s.handleUTXO)
	r.Get("/block/{chain}/{address}", s.handleLatestBlock)
	r.Get("/fee/{chain}", s.handleFee)
	r.Get("/nonce/{chain}/{address}", s.handleNonce)
	r.Get("/estimateGas/{chain}/{address}", s.handleEstimateGas)
	r.Get("/seqno/{chain}/{address}", s.handleSeqno)
	r.Get("/tx/{chain}/{tx_id}", s.handleTransactionByID)
	r.Post("/broadcast/{chain}", s.handleBroadcast)
}

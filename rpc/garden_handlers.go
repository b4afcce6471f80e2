package rpc

import (
	"net/http"
	"strings"

	"blueberry/native/garden"
)

type lendParams struct {
	Caller     string `json:"caller"`
	Asset      string `json:"asset"`
	OnBehalfOf string `json:"onBehalfOf"`
	Receiver   string `json:"receiver"`
	Amount     string `json:"amount"`
}

type lendResult struct {
	Shares string `json:"shares"`
}

func (s *Server) handleGardenLend(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input lendParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	onBehalfOf, err := parseAddress(input.OnBehalfOf, "onBehalfOf")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receiver, err := parseAddress(input.Receiver, "receiver")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(input.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := s.garden.Lend(caller, input.Asset, onBehalfOf, receiver, amount)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_lend", err)
		return
	}
	s.metrics.ObserveOperation("garden_lend")
	writeResult(w, req.ID, lendResult{Shares: shares.String()})
}

type redeemParams struct {
	Caller     string `json:"caller"`
	BToken     string `json:"bToken"`
	OnBehalfOf string `json:"onBehalfOf"`
	Receiver   string `json:"receiver"`
	Shares     string `json:"shares"`
}

type redeemResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleGardenRedeem(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input redeemParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	onBehalfOf, err := parseAddress(input.OnBehalfOf, "onBehalfOf")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receiver, err := parseAddress(input.Receiver, "receiver")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := parseAmount(input.Shares, "shares")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.garden.Redeem(caller, input.BToken, onBehalfOf, receiver, shares)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_redeem", err)
		return
	}
	s.metrics.ObserveOperation("garden_redeem")
	writeResult(w, req.ID, redeemResult{Amount: amount.String()})
}

type addMarketParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type addMarketResult struct {
	BToken string `json:"bToken"`
}

func (s *Server) handleGardenAddMarket(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input addMarketParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	bToken, err := s.garden.AddMarket(caller, input.Asset, input.Name, input.Symbol)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_addMarket", err)
		return
	}
	s.metrics.ObserveOperation("garden_addMarket")
	if markets, err := s.garden.Markets(); err == nil {
		s.metrics.SetMarketCount(len(markets))
	}
	writeResult(w, req.ID, addMarketResult{BToken: bToken})
}

type setRoleParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
	Role    string `json:"role"`
}

func (s *Server) handleGardenSetRole(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input setRoleParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(input.Account, "account")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.garden.SetRole(caller, account, input.Role); err != nil {
		s.writeEngineError(w, req.ID, "garden_setRole", err)
		return
	}
	s.metrics.ObserveOperation("garden_setRole")
	writeResult(w, req.ID, true)
}

type approveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

func (s *Server) handleGardenApprove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input approveParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := parseAddress(input.Owner, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(input.Spender, "spender")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(input.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.garden.Approve(owner, spender, input.Symbol, amount); err != nil {
		s.writeEngineError(w, req.ID, "garden_approve", err)
		return
	}
	s.metrics.ObserveOperation("garden_approve")
	writeResult(w, req.ID, true)
}

type accountParams struct {
	Account string `json:"account"`
}

type roleResult struct {
	Role string `json:"role"`
}

func (s *Server) handleGardenGetRole(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input accountParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress(input.Account, "account")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	role, err := s.garden.Role(account)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_getRole", err)
		return
	}
	writeResult(w, req.ID, roleResult{Role: role})
}

func (s *Server) handleGardenFullAccess(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	writeResult(w, req.ID, roleResult{Role: s.garden.FullAccess()})
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type marketResult struct {
	Asset  string `json:"asset"`
	BToken string `json:"bToken"`
}

func (s *Server) handleGardenGetMarket(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input symbolParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	bToken, err := s.garden.MarketFor(input.Symbol)
	if err == nil && bToken == "" {
		err = garden.ErrMarketNotFound
	}
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_getMarket", err)
		return
	}
	writeResult(w, req.ID, marketResult{Asset: strings.ToUpper(strings.TrimSpace(input.Symbol)), BToken: bToken})
}

func (s *Server) handleGardenGetAsset(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input symbolParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	asset, err := s.garden.AssetFor(input.Symbol)
	if err == nil && asset == "" {
		err = garden.ErrMarketNotFound
	}
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_getAsset", err)
		return
	}
	writeResult(w, req.ID, marketResult{Asset: asset, BToken: strings.ToUpper(strings.TrimSpace(input.Symbol))})
}

func (s *Server) handleGardenListMarkets(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	markets, err := s.garden.Markets()
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_listMarkets", err)
		return
	}
	writeResult(w, req.ID, markets)
}

type balanceParams struct {
	Account string `json:"account"`
	Symbol  string `json:"symbol"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleGardenBalanceOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input balanceParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress(input.Account, "account")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.garden.BalanceOf(account, input.Symbol)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_balanceOf", err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: balance.String()})
}

func (s *Server) handleGardenTotalSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input symbolParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	supply, err := s.garden.TotalSupply(input.Symbol)
	if err != nil {
		s.writeEngineError(w, req.ID, "garden_totalSupply", err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: supply.String()})
}

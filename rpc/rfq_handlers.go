package rpc

import (
	"net/http"

	"github.com/google/uuid"

	"blueberry/native/rfq"
)

type rfqOrderParams struct {
	Caller           string `json:"caller"`
	User             string `json:"user"`
	Collateral       string `json:"collateral"`
	CollateralAmount string `json:"collateralAmount"`
	TokenAmount      string `json:"tokenAmount"`
}

type rfqOrderResult struct {
	OrderID string `json:"orderId"`
}

// decodeOrder parses the shared order fields and assigns a fresh order
// correlation ID. The ID travels on the emitted events so off-chain systems
// can match settlements to quotes.
func decodeOrder(input rfqOrderParams) (rfq.Order, error) {
	user, err := parseAddress(input.User, "user")
	if err != nil {
		return rfq.Order{}, err
	}
	collAmount, err := parseAmount(input.CollateralAmount, "collateralAmount")
	if err != nil {
		return rfq.Order{}, err
	}
	tokenAmount, err := parseAmount(input.TokenAmount, "tokenAmount")
	if err != nil {
		return rfq.Order{}, err
	}
	return rfq.Order{
		ID:               uuid.NewString(),
		User:             user,
		Collateral:       input.Collateral,
		CollateralAmount: collAmount,
		TokenAmount:      tokenAmount,
	}, nil
}

func (s *Server) handleRfqMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input rfqOrderParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := decodeOrder(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.Mint(caller, order); err != nil {
		s.writeEngineError(w, req.ID, "rfq_mint", err)
		return
	}
	s.metrics.ObserveOperation("rfq_mint")
	writeResult(w, req.ID, rfqOrderResult{OrderID: order.ID})
}

func (s *Server) handleRfqRedeem(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input rfqOrderParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := decodeOrder(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.Redeem(caller, order); err != nil {
		s.writeEngineError(w, req.ID, "rfq_redeem", err)
		return
	}
	s.metrics.ObserveOperation("rfq_redeem")
	writeResult(w, req.ID, rfqOrderResult{OrderID: order.ID})
}

type setRedeemFeeParams struct {
	Caller    string `json:"caller"`
	Numerator uint64 `json:"numerator"`
}

func (s *Server) handleRfqSetRedeemFee(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input setRedeemFeeParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.SetRedeemFeeNumerator(caller, input.Numerator); err != nil {
		s.writeEngineError(w, req.ID, "rfq_setRedeemFee", err)
		return
	}
	s.metrics.ObserveOperation("rfq_setRedeemFee")
	writeResult(w, req.ID, true)
}

type setCustodianParams struct {
	Caller    string `json:"caller"`
	Custodian string `json:"custodian"`
}

func (s *Server) handleRfqSetCustodian(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input setCustodianParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	custodian, err := parseAddress(input.Custodian, "custodian")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.SetCustodian(caller, custodian); err != nil {
		s.writeEngineError(w, req.ID, "rfq_setCustodian", err)
		return
	}
	s.metrics.ObserveOperation("rfq_setCustodian")
	writeResult(w, req.ID, true)
}

type collateralParams struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

func (s *Server) handleRfqAddCollateral(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input collateralParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.AddCollateral(caller, input.Asset); err != nil {
		s.writeEngineError(w, req.ID, "rfq_addCollateral", err)
		return
	}
	s.metrics.ObserveOperation("rfq_addCollateral")
	writeResult(w, req.ID, true)
}

func (s *Server) handleRfqRemoveCollateral(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input collateralParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.executor.RemoveCollateral(caller, input.Asset); err != nil {
		s.writeEngineError(w, req.ID, "rfq_removeCollateral", err)
		return
	}
	s.metrics.ObserveOperation("rfq_removeCollateral")
	writeResult(w, req.ID, true)
}

type rfqConfigResult struct {
	ReceiptSymbol      string `json:"receiptSymbol"`
	Custodian          string `json:"custodian"`
	FeeCollector       string `json:"feeCollector"`
	RedeemFeeNumerator uint64 `json:"redeemFeeNumerator"`
	RedeemFeeDenom     uint64 `json:"redeemFeeDenominator"`
}

func (s *Server) handleRfqGetConfig(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	numerator, err := s.executor.RedeemFeeNumerator()
	if err != nil {
		s.writeEngineError(w, req.ID, "rfq_getConfig", err)
		return
	}
	custodian, err := s.executor.Custodian()
	if err != nil {
		s.writeEngineError(w, req.ID, "rfq_getConfig", err)
		return
	}
	custodianStr := ""
	if !custodian.IsZero() {
		custodianStr = custodian.String()
	}
	writeResult(w, req.ID, rfqConfigResult{
		ReceiptSymbol:      s.executor.ReceiptSymbol(),
		Custodian:          custodianStr,
		FeeCollector:       s.executor.FeeCollector().String(),
		RedeemFeeNumerator: numerator,
		RedeemFeeDenom:     rfq.RedeemFeeDenominator,
	})
}

type maxRedeemParams struct {
	Asset string `json:"asset"`
}

func (s *Server) handleRfqMaxRedeem(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var input maxRedeemParams
	if err := singleObjectParam(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	redeemable, err := s.executor.MaxRedeem(input.Asset)
	if err != nil {
		s.writeEngineError(w, req.ID, "rfq_maxRedeem", err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: redeemable.String()})
}

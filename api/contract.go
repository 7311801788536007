package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/minter"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/MinterTeam/minter-harness/harness"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type responseError struct {
	status int
	code   uint32
	err    error
}

func (s *Service) contractInfo(addressS string) (*types.Contract, *responseError) {
	if !types.IsHexAddress(addressS) {
		return nil, &responseError{http.StatusBadRequest, code.DecodeError, fmt.Errorf("invalid address %q", addressS)}
	}
	address := types.HexToAddress(addressS)

	res, err := s.harness.Network().Query(minter.QueryContractInfo, address.Bytes(), 0)
	if err != nil {
		return nil, &responseError{http.StatusInternalServerError, 0, err}
	}
	if res.Code != code.OK {
		return nil, &responseError{http.StatusNotFound, res.Code, errors.New(res.Log)}
	}

	var contract types.Contract
	if err := json.Unmarshal(res.Value, &contract); err != nil {
		return nil, &responseError{http.StatusInternalServerError, 0, err}
	}

	return &contract, nil
}

func (s *Service) contract(c *gin.Context) {
	contract, rErr := s.contractInfo(c.Param("address"))
	if rErr != nil {
		writeError(c, rErr.status, rErr.code, rErr.err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// call runs a view method, arguments are passed as repeated args query parameters
func (s *Service) call(c *gin.Context) {
	info, rErr := s.contractInfo(c.Param("address"))
	if rErr != nil {
		writeError(c, rErr.status, rErr.code, rErr.err)
		return
	}

	contract, err := s.harness.At(info.Template, info.Address)
	if err != nil {
		writeError(c, http.StatusNotFound, code.ContractNotFound, err)
		return
	}

	methodName := c.Param("method")
	method, ok := contract.ABI().Methods[methodName]
	if !ok {
		writeError(c, http.StatusNotFound, code.MethodNotFound, errors.Wrapf(harness.ErrMethodNotFound, "%s.%s", info.Template, methodName))
		return
	}

	args, err := native.ParseArguments(method.Inputs, c.QueryArray("args"))
	if err != nil {
		writeError(c, http.StatusBadRequest, code.InvalidArguments, err)
		return
	}

	results, err := contract.Call(c.Request.Context(), methodName, args...)
	if err != nil {
		var callErr *harness.CallError
		if errors.As(err, &callErr) {
			writeError(c, http.StatusUnprocessableEntity, callErr.Code, err)
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(c, http.StatusGatewayTimeout, 0, err)
			return
		}
		writeError(c, http.StatusBadRequest, 0, err)
		return
	}

	outputs := make([]gin.H, 0, len(results))
	for i, result := range results {
		outputs = append(outputs, gin.H{
			"name":  method.Outputs[i].Name,
			"type":  method.Outputs[i].Type.String(),
			"value": native.FormatValue(result),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"contract": info.Address.String(),
		"method":   methodName,
		"outputs":  outputs,
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/harness"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type DeployRequest struct {
	Contract string   `json:"contract" binding:"required"`
	Args     []string `json:"args"`
}

type DeployResponse struct {
	Contract string `json:"contract"`
	Address  string `json:"address"`
	TxHash   string `json:"tx_hash"`
	Height   uint64 `json:"height"`
}

// deploy submits a deployment and responds once it is confirmed
func (s *Service) deploy(c *gin.Context) {
	var req DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, code.DecodeError, err)
		return
	}

	factory, err := s.harness.GetContractFactory(req.Contract)
	if err != nil {
		writeError(c, http.StatusNotFound, code.ContractNotFound, err)
		return
	}

	args, err := native.ParseArguments(factory.ABI().Constructor.Inputs, req.Args)
	if err != nil {
		writeError(c, http.StatusBadRequest, code.InvalidArguments, err)
		return
	}

	ctx := c.Request.Context()
	contract, err := factory.Deploy(ctx, args...)
	if err == nil {
		err = contract.Deployed(ctx)
	}
	if err != nil {
		var deployErr *harness.DeploymentError
		switch {
		case errors.As(err, &deployErr):
			writeError(c, http.StatusUnprocessableEntity, deployErr.Code, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(c, http.StatusGatewayTimeout, 0, err)
		default:
			writeError(c, http.StatusInternalServerError, 0, err)
		}
		return
	}

	s.logger.Info("Contract deployed", "contract", req.Contract, "address", contract.Address().String())

	c.JSON(http.StatusOK, DeployResponse{
		Contract: contract.Name(),
		Address:  contract.Address().String(),
		TxHash:   contract.DeployTxHash().String(),
		Height:   contract.Receipt().Height,
	})
}

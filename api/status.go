package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	Version           string  `json:"version"`
	Network           string  `json:"network"`
	LatestAppHash     string  `json:"latest_app_hash"`
	LatestBlockHeight uint64  `json:"latest_block_height"`
	InitialHeight     uint64  `json:"initial_height"`
	AverageBlockTime  string  `json:"average_block_time,omitempty"`
	LastBlockDuration float64 `json:"last_block_duration"`
	Deployer          string  `json:"deployer"`
}

func (s *Service) status(c *gin.Context) {
	network := s.harness.Network()

	info, err := network.Info()
	if err != nil {
		writeError(c, http.StatusInternalServerError, 0, err)
		return
	}

	res := StatusResponse{
		Version:           s.version,
		Network:           network.ChainID(),
		LatestAppHash:     fmt.Sprintf("%X", info.LastBlockAppHash),
		LatestBlockHeight: uint64(info.LastBlockHeight),
		InitialHeight:     network.App().InitialHeight(),
		LastBlockDuration: s.statisticData.GetLastBlockInfo().Duration,
		Deployer:          s.harness.Deployer().String(),
	}
	if avg, ok := network.App().AverageBlockTime(); ok {
		res.AverageBlockTime = avg.String()
	}

	c.JSON(http.StatusOK, res)
}

func (s *Service) templates(c *gin.Context) {
	registry := s.harness.Registry()

	res := make([]gin.H, 0)
	for _, name := range registry.Names() {
		template, _ := registry.Get(name)

		inputs := make([]string, 0)
		for _, input := range template.ABI().Constructor.Inputs {
			inputs = append(inputs, input.Type.String()+" "+input.Name)
		}
		res = append(res, gin.H{
			"name":        name,
			"constructor": inputs,
		})
	}

	c.JSON(http.StatusOK, gin.H{"templates": res})
}

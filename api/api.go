// Package api exposes a harness over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/MinterTeam/minter-harness/core/statistics"
	"github.com/MinterTeam/minter-harness/harness"
	"github.com/gin-gonic/gin"
	tmlog "github.com/tendermint/tendermint/libs/log"
)

type Service struct {
	harness       *harness.Harness
	statisticData *statistics.Data
	logger        tmlog.Logger
	version       string
}

func NewService(h *harness.Harness, logger tmlog.Logger, version string) *Service {
	if logger == nil {
		logger = tmlog.NewNopLogger()
	}

	return &Service{
		harness:       h,
		statisticData: h.Network().App().StatisticData(),
		logger:        logger.With("module", "api"),
		version:       version,
	}
}

// Handler returns router serving every api method
func (s *Service) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.measure)

	r.GET("/status", s.status)
	r.GET("/templates", s.templates)
	r.GET("/contract/:address", s.contract)
	r.GET("/contract/:address/call/:method", s.call)
	r.POST("/deploy", s.deploy)

	return r
}

func (s *Service) measure(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		return
	}
	s.statisticData.SetApiTime(time.Since(start), path)
}

func writeError(c *gin.Context, status int, code uint32, err error) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}

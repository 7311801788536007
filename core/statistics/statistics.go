package statistics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Data struct {
	BlockStart struct {
		sync.RWMutex
		height    uint64
		time      time.Time
		timestamp float64
	}
	BlockEnd blockEnd

	Api       apiResponseTime
	Txs       *prometheus.CounterVec
	Contracts *prometheus.CounterVec
}

type LastBlockInfo struct {
	Height    uint64
	Duration  float64
	Timestamp float64
}

type blockEnd struct {
	sync.RWMutex
	HeightProm    prometheus.Gauge
	DurationProm  prometheus.Gauge
	TimestampProm prometheus.Gauge
	LastBlockInfo LastBlockInfo
}

type apiResponseTime struct {
	sync.Mutex
	responseTime *prometheus.GaugeVec
}

// New creates collectors and registers them in reg, prometheus.DefaultRegisterer is used when reg is nil
func New(reg prometheus.Registerer) *Data {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	apiVec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "api",
			Help: "Api response duration by path",
		},
		[]string{"path"},
	)
	lastBlockDuration := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_block_duration",
			Help: "Last block duration",
		},
	)
	height := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "height",
			Help: "Current height",
		},
	)
	timeBlock := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_block_timestamp",
			Help: "Timestamp of the last block",
		},
	)
	txs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivered_txs_total",
			Help: "Delivered transactions by response code",
		},
		[]string{"code"},
	)
	contracts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployed_contracts_total",
			Help: "Deployed contracts by template",
		},
		[]string{"contract"},
	)
	reg.MustRegister(apiVec, lastBlockDuration, height, timeBlock, txs, contracts)

	return &Data{
		Api:       apiResponseTime{responseTime: apiVec},
		BlockEnd:  blockEnd{HeightProm: height, DurationProm: lastBlockDuration, TimestampProm: timeBlock},
		Txs:       txs,
		Contracts: contracts,
	}
}

func (d *Data) SetStartBlock(height uint64, now time.Time, headerTime time.Time) {
	if d == nil {
		return
	}

	d.BlockStart.Lock()
	defer d.BlockStart.Unlock()

	d.BlockStart.height = height
	d.BlockStart.time = now
	d.BlockStart.timestamp = float64(headerTime.UnixNano() / 1e09)
}

func (d *Data) SetEndBlockDuration(timeEnd time.Time, height uint64) {
	if d == nil {
		return
	}

	d.BlockStart.RLock()
	defer d.BlockStart.RUnlock()

	if height != d.BlockStart.height {
		return
	}

	d.BlockEnd.Lock()
	defer d.BlockEnd.Unlock()

	durationSeconds := timeEnd.Sub(d.BlockStart.time).Seconds()

	d.BlockEnd.HeightProm.Set(float64(height))
	d.BlockEnd.DurationProm.Set(durationSeconds)
	d.BlockEnd.TimestampProm.Set(d.BlockStart.timestamp)

	d.BlockEnd.LastBlockInfo.Height = height
	d.BlockEnd.LastBlockInfo.Duration = durationSeconds
	d.BlockEnd.LastBlockInfo.Timestamp = d.BlockStart.timestamp
}

func (d *Data) AddTx(code uint32) {
	if d == nil {
		return
	}

	d.Txs.WithLabelValues(strconv.Itoa(int(code))).Inc()
}

func (d *Data) AddContract(contract string) {
	if d == nil {
		return
	}

	d.Contracts.WithLabelValues(contract).Inc()
}

func (d *Data) SetApiTime(duration time.Duration, path string) {
	if d == nil {
		return
	}

	d.Api.Lock()
	defer d.Api.Unlock()

	d.Api.responseTime.With(prometheus.Labels{"path": path}).Set(duration.Seconds())
}

func (d *Data) GetLastBlockInfo() LastBlockInfo {
	if d == nil {
		return LastBlockInfo{}
	}

	d.BlockEnd.RLock()
	defer d.BlockEnd.RUnlock()

	return d.BlockEnd.LastBlockInfo
}

package statistics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBlockDuration(t *testing.T) {
	data := New(prometheus.NewRegistry())

	start := time.Unix(1600000000, 0)
	data.SetStartBlock(5, start, start)
	data.SetEndBlockDuration(start.Add(1500*time.Millisecond), 5)

	info := data.GetLastBlockInfo()
	assert.Equal(t, uint64(5), info.Height)
	assert.Equal(t, 1.5, info.Duration)
	assert.Equal(t, float64(1600000000), info.Timestamp)

	assert.Equal(t, float64(5), testutil.ToFloat64(data.BlockEnd.HeightProm))
	assert.Equal(t, 1.5, testutil.ToFloat64(data.BlockEnd.DurationProm))

	// end of another block is ignored
	data.SetEndBlockDuration(start.Add(time.Hour), 6)
	assert.Equal(t, uint64(5), data.GetLastBlockInfo().Height)
}

func TestCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	data := New(prometheus.WrapRegistererWithPrefix("harness_", registry))

	data.AddTx(0)
	data.AddTx(0)
	data.AddTx(302)
	data.AddContract("FakeContract")
	data.SetApiTime(20*time.Millisecond, "/deploy")

	assert.Equal(t, float64(2), testutil.ToFloat64(data.Txs.WithLabelValues("0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(data.Txs.WithLabelValues("302")))
	assert.Equal(t, float64(1), testutil.ToFloat64(data.Contracts.WithLabelValues("FakeContract")))

	families, err := registry.Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["harness_delivered_txs_total"])
	assert.True(t, names["harness_deployed_contracts_total"])
	assert.True(t, names["harness_api"])
}

func TestNilData(t *testing.T) {
	var data *Data

	data.SetStartBlock(1, time.Now(), time.Now())
	data.SetEndBlockDuration(time.Now(), 1)
	data.AddTx(0)
	data.AddContract("FakeContract")
	data.SetApiTime(time.Second, "/status")

	assert.Equal(t, LastBlockInfo{}, data.GetLastBlockInfo())
}

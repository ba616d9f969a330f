package metric_test

import (
	"testing"

	"github.com/justyntemme/aapgo/pkg/metric"
	"github.com/stretchr/testify/assert"
)

func TestMeter(t *testing.T) {
	m := metric.For("com.example.metered")
	assert.Same(t, m, metric.For("com.example.metered"))

	m.Instances.Add(1)
	m.Block(256)
	m.Block(128)
	m.MidiIn.Add(3)

	got := metric.Get("com.example.metered")
	assert.Equal(t, "1", got[metric.InstanceCounter])
	assert.Equal(t, "2", got[metric.BlockCounter])
	assert.Equal(t, "384", got[metric.FrameCounter])
	assert.Equal(t, "3", got[metric.MidiInCounter])
	assert.Equal(t, "0", got[metric.TimeoutCounter])

	assert.Contains(t, metric.GetAll(), "com.example.metered")
	assert.Empty(t, metric.Get("com.example.unknown"))
}

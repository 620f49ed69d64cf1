package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeightsMatchSpec(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5.0, cfg.Weights.SigScale)
	assert.Equal(t, 2.0, cfg.Weights.EffScale)
	assert.Equal(t, 1.0, cfg.Weights.WAnn)
	assert.Equal(t, 0.3, cfg.Weights.PTMSiteScale)
	assert.Equal(t, 1.0, cfg.Weights.PTMWeight)
	assert.Equal(t, 0.2, cfg.Weights.Epsilon)
	assert.Equal(t, 0.15, cfg.Weights.RegGate)
	assert.Equal(t, 0.7, cfg.Weights.TwoHopBase)
	assert.Equal(t, 1.0, cfg.Weights.Conn2Weight)
	assert.Equal(t, 0.5, cfg.Weights.Alpha)
	assert.Equal(t, 0.2, cfg.Weights.NodeMassWeight)
	assert.Equal(t, 10, cfg.Weights.NodeMassTopK)
	assert.Equal(t, 2, cfg.Weights.SiteTopK)
	assert.Equal(t, 10, cfg.Weights.TopEdgesN)
	assert.Equal(t, 0.75, cfg.Weights.LocprobMin)
}

func TestLoadWithMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Weights.SigScale)
}

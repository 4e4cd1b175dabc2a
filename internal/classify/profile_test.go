package classify

import (
	"math"
	"testing"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/stretchr/testify/assert"
)

type thresholdAlgorithm struct {
	points [][]float32
}

// Run 按pkg变异系数是否超过0.1分为两类
func (a *thresholdAlgorithm) Run(data [][]float32, numClass int, context interface{}) ([][]float32, []int, error) {
	a.points = data
	class := make([]int, len(data))
	for i, d := range data {
		if d[0] > 0.1 {
			class[i] = 1
		}
	}
	return [][]float32{{0, 0}, {1, 1}}, class, nil
}

func statistics(pkgCV, ramCV float64) *core.EnergyStatistics {
	return &core.EnergyStatistics{
		Pkg: core.DomainStatistics{CV: pkgCV},
		RAM: core.DomainStatistics{CV: ramCV},
	}
}

func TestFeatures(t *testing.T) {
	f, ok := Features(statistics(0.5, 0.25))
	assert.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, f)

	_, ok = Features(statistics(math.NaN(), 0.25))
	assert.False(t, ok)
}

func TestClusterNoiseProfiles(t *testing.T) {
	alg := &thresholdAlgorithm{}
	input := []*core.EnergyStatistics{
		statistics(0.01, 0.02),
		statistics(math.NaN(), 0.02),
		statistics(0.5, 0.4),
		statistics(0.02, 0.01),
	}
	profiles, centers, err := ClusterNoiseProfiles(input, 2, alg, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(centers))
	assert.Equal(t, 3, len(alg.points))
	assert.Equal(t, 4, len(profiles))
	assert.Equal(t, 0, profiles[0].Class)
	assert.Equal(t, Unclassified, profiles[1].Class)
	assert.Equal(t, 1, profiles[2].Class)
	assert.Equal(t, 0, profiles[3].Class)
	assert.Equal(t, input[2], profiles[2].Statistics)

	_, _, err = ClusterNoiseProfiles(input[:2], 2, alg, nil)
	assert.Error(t, err)
	_, _, err = ClusterNoiseProfiles(input, 0, alg, nil)
	assert.Error(t, err)
}

func TestClusterNoiseProfilesKMeans(t *testing.T) {
	input := []*core.EnergyStatistics{
		statistics(0.01, 0.02),
		statistics(0.5, 0.4),
		statistics(0.02, 0.01),
		statistics(0.52, 0.41),
	}
	alg := GetAlgorithm(KMeans)
	profiles, centers, err := ClusterNoiseProfiles(input, 2, alg, NewContext(KMeans, 10))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(centers))
	assert.Equal(t, profiles[0].Class, profiles[2].Class)
	assert.Equal(t, profiles[1].Class, profiles[3].Class)
	assert.NotEqual(t, profiles[0].Class, profiles[1].Class)

	// 只有一个不同的特征向量时无法分为两类
	same := []*core.EnergyStatistics{statistics(0.1, 0.1), statistics(0.1, 0.1), statistics(0.1, 0.1)}
	_, _, err = ClusterNoiseProfiles(same, 2, alg, nil)
	assert.Error(t, err)
}

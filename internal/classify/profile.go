package classify

import (
	"fmt"
	"math"

	"github.com/packagewjx/energy-analyzer/pkg/core"
)

// Unclassified 统计量中含NaN的配置不参与聚类
const Unclassified = -1

// NoiseProfile 一个配置的能耗变异特征及其所属类别
type NoiseProfile struct {
	Statistics *core.EnergyStatistics
	Features   []float32
	Class      int
}

// Features 用于聚类的特征：pkg与ram的变异系数。任一为NaN时返回false
func Features(s *core.EnergyStatistics) ([]float32, bool) {
	features := []float64{s.Pkg.CV, s.RAM.CV}
	result := make([]float32, len(features))
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		result[i] = float32(f)
	}
	return result, true
}

// ClusterNoiseProfiles 按变异系数把配置分为numClass类，返回每个配置的类别与各类中心
func ClusterNoiseProfiles(statistics []*core.EnergyStatistics, numClass int, alg Algorithm, context interface{}) ([]*NoiseProfile, [][]float32, error) {
	if numClass <= 0 {
		return nil, nil, fmt.Errorf("number of classes must be positive, got %d", numClass)
	}

	profiles := make([]*NoiseProfile, len(statistics))
	data := make([][]float32, 0, len(statistics))
	dataIdx := make([]int, 0, len(statistics))
	for i, s := range statistics {
		profiles[i] = &NoiseProfile{Statistics: s, Class: Unclassified}
		if features, ok := Features(s); ok {
			profiles[i].Features = features
			data = append(data, features)
			dataIdx = append(dataIdx, i)
		}
	}
	if len(data) < numClass {
		return nil, nil, fmt.Errorf("%d configurations with finite coefficients of variation, fewer than %d classes",
			len(data), numClass)
	}

	scaler := MaxScaler()
	centers, class, err := alg.Run(scaler.Preprocess(data), numClass, context)
	if err != nil {
		return nil, nil, err
	}
	for i, c := range class {
		profiles[dataIdx[i]].Class = c
	}
	return profiles, scaler.Restore(centers), nil
}

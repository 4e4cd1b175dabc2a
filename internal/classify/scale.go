package classify

// Preprocessor 聚类前对特征的变换，Restore把聚类中心变换回原始空间
type Preprocessor interface {
	Preprocess(data [][]float32) [][]float32
	Restore(centers [][]float32) [][]float32
}

func MaxScaler() Preprocessor {
	return &maxScaler{}
}

// maxScaler 每一维除以该维的最大绝对值，使pkg与ram的变异系数处于相同量级
type maxScaler struct {
	max []float32
}

func (m *maxScaler) Preprocess(data [][]float32) [][]float32 {
	if len(data) == 0 {
		return data
	}
	m.max = make([]float32, len(data[0]))
	for _, datum := range data {
		for i, f := range datum {
			if f < 0 {
				f = -f
			}
			if m.max[i] < f {
				m.max[i] = f
			}
		}
	}

	result := make([][]float32, len(data))
	for i, datum := range data {
		result[i] = make([]float32, len(datum))
		for j, f := range datum {
			if m.max[j] == 0 {
				result[i][j] = f
				continue
			}
			result[i][j] = f / m.max[j]
		}
	}
	return result
}

func (m *maxScaler) Restore(centers [][]float32) [][]float32 {
	result := make([][]float32, len(centers))
	for i, center := range centers {
		result[i] = make([]float32, len(center))
		for j, f := range center {
			if j < len(m.max) && m.max[j] != 0 {
				f *= m.max[j]
			}
			result[i][j] = f
		}
	}
	return result
}

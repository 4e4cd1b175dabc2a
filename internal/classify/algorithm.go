package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/packagewjx/kmeanspp"
	log "github.com/sirupsen/logrus"
)

// Algorithm 对变异系数特征聚类，返回各类中心与每个配置的类别
type Algorithm interface {
	Run(data [][]float32, numClass int, context interface{}) (centers [][]float32, class []int, err error)
}

type AlgorithmType string

const (
	KMeans = AlgorithmType("kmeans")
)

var algorithms = map[AlgorithmType]func() Algorithm{
	KMeans: func() Algorithm { return &kMeansRunner{} },
}

// Algorithms 支持的算法名称
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for t := range algorithms {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ParseAlgorithm 名称不区分大小写，不支持的算法返回错误
func ParseAlgorithm(name string) (AlgorithmType, error) {
	t := AlgorithmType(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := algorithms[t]; !ok {
		return "", fmt.Errorf("unsupported clustering algorithm %q, expected one of %s",
			name, strings.Join(Algorithms(), ", "))
	}
	return t, nil
}

func GetAlgorithm(algorithmType AlgorithmType) Algorithm {
	newAlgorithm, ok := algorithms[algorithmType]
	if !ok {
		return nil
	}
	return newAlgorithm()
}

// NewContext 算法的运行参数，rounds只对K-Means有效
func NewContext(algorithmType AlgorithmType, rounds int) interface{} {
	switch algorithmType {
	case KMeans:
		return &KMeansContext{Round: rounds}
	default:
		return nil
	}
}

type KMeansContext struct {
	Round int
}

const (
	KMeansDefaultRound = 30
)

type kMeansRunner struct {
}

func (k *kMeansRunner) Run(data [][]float32, numClass int, context interface{}) ([][]float32, []int, error) {
	round := KMeansDefaultRound
	if context != nil {
		ctx, ok := context.(*KMeansContext)
		if !ok {
			return nil, nil, fmt.Errorf("k-means expects *KMeansContext, got %T", context)
		}
		if ctx.Round > 0 {
			round = ctx.Round
		}
	}

	if numClass <= 0 {
		return nil, nil, fmt.Errorf("number of classes must be positive, got %d", numClass)
	}
	// k-means++的初始中心从互不相同的点中选取
	if distinct := countDistinct(data); distinct < numClass {
		return nil, nil, fmt.Errorf("%d distinct feature vectors, fewer than %d classes", distinct, numClass)
	}

	log.Debugf("running k-means++ with %d classes over %d configurations, %d rounds", numClass, len(data), round)
	centers, class := kmeanspp.KMeansPP(numClass, round, data)
	return centers, class, nil
}

func countDistinct(data [][]float32) int {
	seen := make(map[string]struct{}, len(data))
	for _, d := range data {
		seen[fmt.Sprint(d)] = struct{}{}
	}
	return len(seen)
}

package stats

import "strconv"

// Band 使用的核心数占节点核心总数的比例区间，以区间上界的百分比命名
type Band int

// BandUncategorized 比例不在任何区间内
const BandUncategorized Band = -1

var bandUpperBounds = []struct {
	upper float64
	band  Band
}{
	{0.1, 10},
	{0.25, 25},
	{0.5, 50},
	{0.75, 75},
	{0.9, 90},
	{1.0, 100},
	{1.1, 110},
}

func (b Band) String() string {
	if b == BandUncategorized {
		return "uncategorized"
	}
	return strconv.Itoa(int(b)) + "%"
}

// UtilizationBand 区间左闭右开，从[0, 0.1)到[1.0, 1.1)
func UtilizationBand(coreCount, totalCores int) Band {
	if totalCores <= 0 || coreCount < 0 {
		return BandUncategorized
	}
	ratio := float64(coreCount) / float64(totalCores)
	for _, b := range bandUpperBounds {
		if ratio < b.upper {
			return b.band
		}
	}
	return BandUncategorized
}

package utils

import (
	"math"
)

// GetSortedPositionValue 返回arr排序后位于pos位置的值，会打乱arr的顺序
func GetSortedPositionValue(arr []float64, pos int) float64 {
	if pos < 0 || pos >= len(arr) {
		return math.NaN()
	}

	l := 0
	r := len(arr) - 1
	for l < r {
		idx := Partition(arr, l, r)
		if idx == pos {
			break
		} else if idx < pos {
			l = idx + 1
		} else {
			r = idx - 1
		}
	}

	return arr[pos]
}

func Partition(arr []float64, l, r int) int {
	slice := arr[l : r+1]

	if len(slice) == 0 {
		return 0
	}
	m := len(slice) / 2
	temp := slice[0]
	slice[0] = slice[m]
	slice[m] = temp
	pivot := slice[0]

	i := 0
	j := len(slice) - 1

	for i < j {
		for i < j && slice[j] > pivot {
			j--
		}
		slice[i] = slice[j]

		for i < j && slice[i] <= pivot {
			i++
		}
		slice[j] = slice[i]
	}
	slice[i] = pivot

	return l + i
}

// Quantile 连续分位数，在(n-1)*q处做线性插值。arr会被打乱
func Quantile(arr []float64, q float64) float64 {
	if len(arr) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	h := float64(len(arr)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	low := GetSortedPositionValue(arr, lo)
	if lo == hi {
		return low
	}
	high := GetSortedPositionValue(arr, hi)
	return low + (high-low)*(h-float64(lo))
}

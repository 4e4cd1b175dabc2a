/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/packagewjx/energy-analyzer/internal/pipeline"
	"github.com/packagewjx/energy-analyzer/internal/stats"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/spf13/cobra"
)

const (
	FlagPrint     = "print"
	FlagPrecision = "precision"
)

const (
	DefaultPrecision = 2
)

var printStatistics bool
var precision int

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "按配置计算能耗的统计量",
	Long: "按(节点, 任务, 工具, 核心数, 每核操作数)分组，计算每个能耗域的均值、中位数、四分位数与变异系数，\n" +
		"结果写入<output>/<batch>/" + pipeline.StatisticsFile + "。已有统一能耗记录时直接使用。",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("参数错误")
		} else if precision < 0 {
			return fmt.Errorf("精度不能为负数")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := newPipeline()
		if err != nil {
			return err
		}
		result, err := p.Statistics()
		if err != nil {
			return err
		}
		if !printStatistics {
			fmt.Printf("%d configurations written to %s\n", len(result), p.BatchDir())
			return nil
		}

		sort.Slice(result, func(i, j int) bool {
			a, b := result[i], result[j]
			if a.Node != b.Node {
				return a.Node < b.Node
			}
			if a.Tool != b.Tool {
				return a.Tool < b.Tool
			}
			if a.Task != b.Task {
				return a.Task < b.Task
			}
			if a.CoreCount != b.CoreCount {
				return a.CoreCount < b.CoreCount
			}
			return a.OpsPerCore < b.OpsPerCore
		})
		table := utils.NewTable(os.Stdout, []string{"NODE", "TASK", "TOOL", "CORES", "OPS", "LOAD", "N",
			"PKG MEAN", "PKG CV", "RAM MEAN", "RAM CV"})
		for _, s := range result {
			table.Append([]string{
				s.Node,
				s.Task,
				string(s.Tool),
				strconv.Itoa(s.CoreCount),
				strconv.Itoa(s.OpsPerCore),
				band(s).String(),
				strconv.Itoa(s.Pkg.Count),
				formatFloat(s.Pkg.Mean),
				formatFloat(s.Pkg.CV),
				formatFloat(s.RAM.Mean),
				formatFloat(s.RAM.CV),
			})
		}
		table.Render()
		return nil
	},
}

func band(s *core.EnergyStatistics) stats.Band {
	if s.Metadata == nil {
		return stats.BandUncategorized
	}
	return stats.UtilizationBand(s.CoreCount, s.Metadata.NbCores)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVarP(&printStatistics, FlagPrint, "p", false,
		"在终端打印统计结果")
	statsCmd.Flags().IntVar(&precision, FlagPrecision, DefaultPrecision,
		"打印数据的精度，默认为2")
}

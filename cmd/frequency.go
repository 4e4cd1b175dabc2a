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
	"strconv"

	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/spf13/cobra"
)

// frequencyCmd represents the frequency command
var frequencyCmd = &cobra.Command{
	Use:   "frequency",
	Short: "计算频率实验中各工具实际达到的采样频率与测量开销",
	Long: "读取frequency_<N>_<tool>_and_perf.csv中的时间戳，把相邻时间戳的间隔换算为达到的频率；\n" +
		"perf同时测得的能耗按温度区间分层统计，作为工具运行的开销。",
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
		result, err := p.Frequency()
		if err != nil {
			return err
		}

		table := utils.NewTable(os.Stdout, []string{"TOOL", "TARGET (HZ)", "INTERVALS", "MEDIAN (HZ)", "MEDIAN RATIO"})
		for _, s := range result.Summaries {
			table.Append([]string{
				string(s.Tool),
				strconv.Itoa(s.TargetFrequency),
				strconv.Itoa(s.Count),
				formatFloat(s.MedianReached),
				formatFloat(s.MedianRatio),
			})
		}
		table.Render()

		if len(result.Strata) == 0 {
			return nil
		}
		fmt.Println()
		table = utils.NewTable(os.Stdout, []string{"CLUSTER", "TOOL", "TARGET (HZ)", "TEMPERATURE", "N", "PKG MEDIAN", "RAM MEDIAN"})
		for _, s := range result.Strata {
			table.Append([]string{
				s.Cluster,
				string(s.Tool),
				strconv.Itoa(s.TargetFrequency),
				s.TemperatureRange,
				strconv.Itoa(s.Pkg.Count),
				formatFloat(s.Pkg.Median),
				formatFloat(s.RAM.Median),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(frequencyCmd)

	frequencyCmd.Flags().IntVar(&precision, FlagPrecision, DefaultPrecision,
		"打印数据的精度，默认为2")
}

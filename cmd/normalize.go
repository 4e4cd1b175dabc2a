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

	"github.com/packagewjx/energy-analyzer/internal/pipeline"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/spf13/cobra"
)

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "将各工具的原始输出转换为统一的能耗记录",
	Long: "遍历实验结果目录，用各工具的解析器读取能耗文件，连接节点信息并去除hwpc的重复记录，\n" +
		"结果写入<output>/<batch>/" + pipeline.EnergyFile + "。",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("参数错误")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := newPipeline()
		if err != nil {
			return err
		}
		obs, err := p.Energy()
		if err != nil {
			return err
		}

		counts := make(map[core.Tool]int)
		for _, o := range obs {
			counts[o.Tool]++
		}
		tools := make([]string, 0, len(counts))
		for tool := range counts {
			tools = append(tools, string(tool))
		}
		sort.Strings(tools)

		table := utils.NewTable(os.Stdout, []string{"TOOL", "OBSERVATIONS"})
		for _, tool := range tools {
			table.Append([]string{tool, fmt.Sprint(counts[core.Tool(tool)])})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

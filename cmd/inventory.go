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

	"github.com/packagewjx/energy-analyzer/internal/inventory"
	"github.com/packagewjx/energy-analyzer/internal/pipeline"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/spf13/cobra"
)

const (
	FlagNodes = "nodes"
)

var printNodes bool

// inventoryCmd represents the inventory command
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "读取节点描述并打印各集群的硬件概况",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("参数错误")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		if config.InventoriesDir == "" {
			return fmt.Errorf("必须指定节点描述目录")
		}
		table, err := pipeline.ReferenceTable(config.ReferenceTable)
		if err != nil {
			return err
		}
		nodes, err := inventory.Load(config.InventoriesDir, table)
		if err != nil {
			return err
		}

		out := utils.NewTable(os.Stdout, []string{"SITE", "CLUSTER", "NODES", "CORES/NODE", "TOTAL CORES",
			"PROCESSOR", "ARCHITECTURE", "LAUNCH"})
		for _, s := range inventory.Summarize(nodes) {
			out.Append([]string{
				s.Site,
				s.Cluster,
				strconv.Itoa(s.NodeCount),
				strconv.Itoa(s.CoresPerNode),
				strconv.Itoa(s.TotalCores),
				s.Processor,
				s.Architecture,
				s.LaunchDate,
			})
		}
		out.Render()

		if !printNodes {
			return nil
		}
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].Cluster != nodes[j].Cluster {
				return nodes[i].Cluster < nodes[j].Cluster
			}
			return nodes[i].UID < nodes[j].UID
		})
		fmt.Println()
		out = utils.NewTable(os.Stdout, []string{"NODE", "CLUSTER", "VENDOR", "PROCESSOR", "CORES", "THREADS",
			"GENERATION", "NUMA FIRST CPUS"})
		for _, n := range nodes {
			out.Append([]string{
				n.UID,
				n.Cluster,
				n.Processor.Vendor,
				n.Processor.Version,
				strconv.Itoa(n.NbCores),
				strconv.Itoa(n.NbThreads),
				strconv.Itoa(n.Generation),
				fmt.Sprint(n.NumaFirstCPUs),
			})
		}
		out.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inventoryCmd)

	inventoryCmd.Flags().BoolVar(&printNodes, FlagNodes, false, "同时打印每个节点的信息")
}

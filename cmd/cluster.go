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
	"regexp"
	"strconv"
	"strings"

	"github.com/packagewjx/energy-analyzer/internal/classify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	FlagAlgorithm       = "algorithm"
	FlagCenterFile      = "center-file"
	FlagOutputPrecision = "output-precision"
)

// Flags for K-Means
const (
	FlagKMeansRound = "kmeans-round"
)

var algorithm string
var centerFile string
var outputPrecision int

// clusterCmd represents the cluster command
var clusterCmd = &cobra.Command{
	Use:   "cluster outputFile [numClass]",
	Short: "按能耗变异系数对配置聚类，输出每个配置的类别",
	Long: "以pkg与ram的变异系数作为特征对统计结果聚类，区分测量噪声不同的配置。\n" +
		"类数量未通过参数指定时使用配置项cluster.classes。",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("参数错误")
		}
		if len(args) == 2 {
			if match, _ := regexp.MatchString("^\\d+$", args[1]); !match {
				return fmt.Errorf("类数量参数不是数字")
			}
		}
		if _, err := classify.ParseAlgorithm(algorithm); err != nil {
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, config, err := newPipeline()
		if err != nil {
			return err
		}

		numClass := config.Cluster.Classes
		if len(args) == 2 {
			numClass, _ = strconv.Atoi(args[1])
		}

		algType, err := classify.ParseAlgorithm(algorithm)
		if err != nil {
			return err
		}
		alg := classify.GetAlgorithm(algType)
		context := classify.NewContext(algType, config.Cluster.Rounds)

		statistics, err := p.Statistics()
		if err != nil {
			return err
		}

		log.Infof("clustering %d configurations into %d classes", len(statistics), numClass)
		profiles, centers, err := classify.ClusterNoiseProfiles(statistics, numClass, alg, context)
		if err != nil {
			return err
		}

		fout, err := os.Create(args[0])
		if err != nil {
			return errors.Wrap(err, "error creating output file")
		}
		defer func() {
			_ = fout.Close()
		}()
		if err = classify.OutputProfiles(profiles, fout, outputPrecision); err != nil {
			return err
		}

		if centerFile == "" {
			return nil
		}
		cout, err := os.Create(centerFile)
		if err != nil {
			return errors.Wrap(err, "error creating center file")
		}
		defer func() {
			_ = cout.Close()
		}()
		return classify.OutputResult(centers, cout, outputPrecision)
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)

	clusterCmd.Flags().StringVarP(&algorithm, FlagAlgorithm, "a", string(classify.KMeans),
		"指定使用的算法。默认为kmeans，可选值："+strings.Join(classify.Algorithms(), ", "))
	clusterCmd.Flags().StringVar(&centerFile, FlagCenterFile, "",
		"输出各类中心的文件，为空时不输出")
	clusterCmd.Flags().IntVar(&outputPrecision, FlagOutputPrecision, 4,
		"输出文件数据精度，默认为4")
	clusterCmd.Flags().Int("classes", 3, "类数量，默认为3")
	clusterCmd.Flags().Int(FlagKMeansRound, classify.KMeansDefaultRound,
		"K-Means算法执行的轮次")

	_ = viper.BindPFlag("cluster.classes", clusterCmd.Flags().Lookup("classes"))
	_ = viper.BindPFlag("cluster.rounds", clusterCmd.Flags().Lookup(FlagKMeansRound))
}

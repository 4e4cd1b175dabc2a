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

	"github.com/mitchellh/go-homedir"
	"github.com/packagewjx/energy-analyzer/internal/logger"
	"github.com/packagewjx/energy-analyzer/internal/pipeline"
	"github.com/packagewjx/energy-analyzer/internal/store"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Global Flags
const (
	FlagConfig         = "config"
	FlagBatch          = "batch"
	FlagResults        = "results"
	FlagInventories    = "inventories"
	FlagReferenceTable = "reference-table"
	FlagOutput         = "output"
	FlagForce          = "force"
	FlagStoreDriver    = "store-driver"
	FlagStoreDSN       = "store-dsn"
	FlagLogLevel       = "log-level"
	FlagLogFile        = "log-file"
)

// Global Defaults
const (
	DefaultOutputDir  = "out"
	DefaultConfigName = ".energy-analyzer"
)

var cfgFile string

type appConfig struct {
	pipeline.Config `mapstructure:",squash"`
	Store           store.Config  `mapstructure:"store"`
	Log             logger.Config `mapstructure:"log"`
	Cluster         clusterConfig `mapstructure:"cluster"`
}

type clusterConfig struct {
	Classes int `mapstructure:"classes"`
	Rounds  int `mapstructure:"rounds"`
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "energy-analyzer",
	Short: "多种能耗测量工具结果的归一化与统计",
	Long: "读取hwpc、perf以及codecarbon、alumet、scaphandre、vjoule等估算工具的实验输出，\n" +
		"连接节点硬件信息后转换为统一的能耗记录，并按配置计算统计量。\n" +
		"频率实验的结果用于计算各工具实际达到的采样频率以及按温度分层的测量开销。",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitLogger(&logger.Config{
			Level: viper.GetString("log.level"),
			File:  viper.GetString("log.file"),
		})
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debugf("using config file %s", used)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, FlagConfig, "",
		fmt.Sprintf("配置文件，默认为$HOME/%s.yaml", DefaultConfigName))
	flags.StringP(FlagBatch, "b", "", "批次标识，输出写入<output>/<batch>目录")
	flags.StringP(FlagResults, "r", "", "实验结果根目录，按<site>/<cluster>/<node>/组织")
	flags.StringP(FlagInventories, "i", "", "节点描述根目录，按<site>/<cluster>/<node>.json组织")
	flags.String(FlagReferenceTable, "", "处理器参考表YAML文件，默认使用内置表")
	flags.StringP(FlagOutput, "o", DefaultOutputDir, "输出根目录")
	flags.Bool(FlagForce, false, "忽略已经计算过的输出文件，重新计算")
	flags.String(FlagStoreDriver, "", "将结果保存到数据库，可选值：sqlite、mysql。为空时不保存")
	flags.String(FlagStoreDSN, "", "数据库连接字符串，sqlite时为文件路径")
	flags.String(FlagLogLevel, logger.DefaultLevel, "日志级别")
	flags.String(FlagLogFile, "", "日志文件，为空时只输出到标准错误")

	bindings := map[string]string{
		"batch":           FlagBatch,
		"results":         FlagResults,
		"inventories":     FlagInventories,
		"reference_table": FlagReferenceTable,
		"output":          FlagOutput,
		"force":           FlagForce,
		"store.driver":    FlagStoreDriver,
		"store.dsn":       FlagStoreDSN,
		"log.level":       FlagLogLevel,
		"log.file":        FlagLogFile,
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// initConfig reads in config file if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(DefaultConfigName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "读取配置文件失败:", err)
			os.Exit(1)
		}
	}
}

func loadConfig() (*appConfig, error) {
	config := &appConfig{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "error decoding configuration")
	}
	return config, nil
}

// openStore 没有指定数据库时返回nil，结果只写入文件
func openStore(config *store.Config) (store.Dao, error) {
	if config.Driver == "" && config.DSN == "" {
		return nil, nil
	}
	return store.NewDao(config)
}

// newPipeline 根据配置创建Pipeline
func newPipeline() (*pipeline.Pipeline, *appConfig, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dao, err := openStore(&config.Store)
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.New(&config.Config, nil, dao)
	if err != nil {
		return nil, nil, err
	}
	return p, config, nil
}

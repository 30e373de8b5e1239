// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	RAG     RAGConfig     `mapstructure:"rag"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RAGConfig 存储远端 RAG 服务相关的配置。
type RAGConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	InitialDelayMs int    `mapstructure:"initial_delay_ms"`
}

// StorageConfig 存储本地持久化相关的配置。
// Driver 可选值：file / redis / mysql / memory。
type StorageConfig struct {
	Driver  string      `mapstructure:"driver"`
	DataDir string      `mapstructure:"data_dir"`
	Redis   RedisConfig `mapstructure:"redis"`
	MySQL   MySQLConfig `mapstructure:"mysql"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 环境变量 RAG_DEFAULT_API_URL（可放在 .env 中）优先于配置文件里的 rag.base_url，
// 作为后端地址的环境级默认值。
func Init(configPath string) {
	// .env 文件可选，生产环境直接使用真实环境变量
	_ = godotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	if url := os.Getenv("RAG_DEFAULT_API_URL"); url != "" {
		Conf.RAG.BaseURL = url
	}
	if Conf.RAG.BaseURL == "" {
		Conf.RAG.BaseURL = "http://localhost:8000"
	}
	if Conf.RAG.MaxAttempts <= 0 {
		Conf.RAG.MaxAttempts = 3
	}
	if Conf.RAG.InitialDelayMs <= 0 {
		Conf.RAG.InitialDelayMs = 1000
	}
}

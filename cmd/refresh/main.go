package main

import (
	"log"

	"github.com/LJTian/RedTrend/internal/config"
	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/excerpt"
	"github.com/LJTian/RedTrend/internal/generator"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"github.com/LJTian/RedTrend/internal/pipeline"
	"github.com/LJTian/RedTrend/internal/scheduler"
	"github.com/LJTian/RedTrend/internal/storage"
)

// 一个只执行一轮榜单刷新与预生成的命令行入口：适合手动触发
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	feed := hackernews.NewClient(cfg.HNBaseURL)
	gen := generator.NewClient(cfg.ArkAPIKey, cfg.ArkBaseURL, cfg.ArkModel, cfg.GenerateTimeout)
	conv := converter.New(gen, cfg.GenerateTimeout)

	pipe := pipeline.New(store, feed, conv, excerpt.NewFetcher(), cfg.CatalogTTL)

	s, err := scheduler.New(cfg.CatalogCronSpec, cfg.WarmCronSpec, cfg.WarmCount, pipe)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	// 只执行一轮刷新+预生成后退出
	s.RunOnce()
}

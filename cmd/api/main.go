package main

import (
	"log"

	"github.com/LJTian/RedTrend/internal/api"
	"github.com/LJTian/RedTrend/internal/config"
	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/excerpt"
	"github.com/LJTian/RedTrend/internal/generator"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"github.com/LJTian/RedTrend/internal/pipeline"
	"github.com/LJTian/RedTrend/internal/scheduler"
	"github.com/LJTian/RedTrend/internal/storage"
	"github.com/gin-gonic/gin"
)

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

	// 后台任务：每日整体刷新榜单，再预生成热门条目
	s, err := scheduler.New(cfg.CatalogCronSpec, cfg.WarmCronSpec, cfg.WarmCount, pipe)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	apiServer := api.NewServer(pipe, cfg.BasicAuthUser, cfg.BasicAuthPass)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/RedTrend/internal/pipeline"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

// Scheduler 托管两个后台任务：榜单整体刷新与热门条目预生成。
// 两者都不在请求路径上，单条读永远不等它们。
type Scheduler struct {
	cron      *cron.Cron
	pipe      *pipeline.Pipeline
	warmCount int
}

func New(catalogSpec, warmSpec string, warmCount int, pipe *pipeline.Pipeline) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		pipe:      pipe,
		warmCount: warmCount,
	}

	if _, err := c.AddFunc(catalogSpec, s.refreshCatalog); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(warmSpec, s.warm); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮刷新，避免与服务启动后的首批请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.RunOnce()
	})
}

// RunOnce 对外暴露的单次执行入口：刷新榜单后立即预生成
func (s *Scheduler) RunOnce() {
	s.refreshCatalog()
	s.warm()
}

func (s *Scheduler) refreshCatalog() {
	log.Println("start catalog refresh job...")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := s.pipe.RefreshCatalog(ctx)
	if err != nil {
		log.Printf("catalog refresh error: %v", err)
		return
	}
	log.Printf("catalog refresh done, %d entries", len(ids))
}

func (s *Scheduler) warm() {
	log.Printf("start warm job, top %d...", s.warmCount)
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.pipe.Warm(ctx, s.warmCount)
}

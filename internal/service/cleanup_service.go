package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/metrics"
	"github.com/user/moviechat/internal/repository"
)

// CleanupService 定时回收过期会话并刷新会话数量指标
type CleanupService struct {
	sessions *repository.SessionStore
	interval time.Duration
}

// NewCleanupService 创建清理服务
func NewCleanupService(sessions *repository.SessionStore, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CleanupService{sessions: sessions, interval: interval}
}

// Start 启动定时清理任务，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	// 启动时先运行一次
	s.RunOnce()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce()
			}
		}
	}()
}

// RunOnce 执行一次清理，返回回收的会话数
func (s *CleanupService) RunOnce() int {
	removed := s.sessions.Prune()
	active := s.sessions.Len()
	metrics.ActiveSessions.Set(float64(active))
	if removed > 0 {
		log.Info().Int("removed", removed).Int("active", active).Msg("[CleanupService] 已回收过期会话")
	}
	return removed
}

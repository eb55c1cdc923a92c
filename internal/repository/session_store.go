package repository

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/model"
)

// SessionStore 会话存储：conversation id -> *model.Session
// ttl <= 0 时会话常驻内存（与旧服务一致），否则空闲超过 ttl 的会话被回收
type SessionStore struct {
	mu    sync.Mutex // 只保护"查找或创建"，会话本身由各自的锁保护
	cache *cache.Cache
}

// NewSessionStore 创建会话存储
func NewSessionStore(ttl time.Duration) *SessionStore {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
		if cleanup < time.Second {
			cleanup = time.Second
		}
	}

	c := cache.New(expiration, cleanup)
	c.OnEvicted(func(id string, _ interface{}) {
		log.Debug().Str("session", id).Msg("[SessionStore] 会话过期回收")
	})
	return &SessionStore{cache: c}
}

// Acquire 取得（必要时创建）会话并加锁，同一会话的请求串行处理
// 返回的 release 必须调用
func (s *SessionStore) Acquire(id string) (*model.Session, func()) {
	s.mu.Lock()
	var sess *model.Session
	if v, ok := s.cache.Get(id); ok {
		sess = v.(*model.Session)
	} else {
		sess = model.NewSession(id)
	}
	// 重新写入以刷新过期时间
	s.cache.SetDefault(id, sess)
	s.mu.Unlock()

	sess.Lock()
	return sess, func() {
		sess.Touch()
		sess.Unlock()
	}
}

// Get 只读查询，不创建也不刷新过期时间
func (s *SessionStore) Get(id string) (*model.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*model.Session), true
}

// Delete 删除会话
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}

// Prune 立即删除已过期的会话，返回删除数量
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	return before - s.cache.ItemCount()
}

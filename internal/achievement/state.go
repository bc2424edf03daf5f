package achievement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// MaxFeatured 为个人主页最多展示的徽章数量
const MaxFeatured = 3

// ErrInvalidArgument 表示请求中的成就 ID 不存在或尚未解锁
var ErrInvalidArgument = errors.New("invalid achievement argument")

// ErrAlreadyUnlocked 由 Store.WriteUnlock 返回，表示该成就此前已被解锁，本次写入未生效
var ErrAlreadyUnlocked = errors.New("achievement already unlocked")

// Progress 记录某用户在某个成就上的进度，UnlockedAt 非空即为永久解锁
type Progress struct {
	AchievementID string     `json:"achievementId"`
	Progress      float64    `json:"progress"`
	Target        float64    `json:"target"`
	UnlockedAt    *time.Time `json:"unlockedAt,omitempty"`
}

// Unlocked 报告该记录是否已解锁
func (p Progress) Unlocked() bool {
	return p.UnlockedAt != nil
}

// Store 是成就进度的持久化契约，所有方法以 userID 为作用域。
// WriteUnlock 遇到已解锁的记录时必须返回 ErrAlreadyUnlocked。
type Store interface {
	LoadProgress(ctx context.Context, userID uint) (map[string]Progress, error)
	WriteProgress(ctx context.Context, userID uint, progress Progress) error
	WriteUnlock(ctx context.Context, userID uint, progress Progress) error
	LoadFeatured(ctx context.Context, userID uint) ([]string, error)
	WriteFeatured(ctx context.Context, userID uint, ids []string) error
}

// Notifier 接收新解锁的成就 ID，用于推送提示
type Notifier interface {
	NotifyUnlocked(userID uint, ids []string)
}

// UserState 持有单个用户的成就缓存。
// 同一用户的评估与徽章设置通过 mu 串行执行。
type UserState struct {
	mu       sync.Mutex
	userID   uint
	progress map[string]Progress
	featured []string
}

// NewUserState 以给定数据构造状态，主要用于测试或预热
func NewUserState(userID uint, progress map[string]Progress, featured []string) *UserState {
	state := &UserState{userID: userID, progress: make(map[string]Progress, len(progress))}
	for id, record := range progress {
		state.progress[id] = record
	}
	state.featured = append([]string(nil), featured...)
	return state
}

// UserID 返回状态所属用户
func (s *UserState) UserID() uint {
	if s == nil {
		return 0
	}
	return s.userID
}

// Snapshot 返回进度与精选徽章的副本
func (s *UserState) Snapshot() (map[string]Progress, []string) {
	if s == nil {
		return map[string]Progress{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := make(map[string]Progress, len(s.progress))
	for id, record := range s.progress {
		progress[id] = record
	}
	return progress, append([]string(nil), s.featured...)
}

// merge 用存储中读到的数据刷新缓存，已解锁的缓存记录不会被回退
func (s *UserState) merge(progress map[string]Progress, featured []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range progress {
		if cached, ok := s.progress[id]; ok && cached.Unlocked() && !record.Unlocked() {
			continue
		}
		s.progress[id] = record
	}
	s.featured = append([]string(nil), featured...)
}

// Registry 按用户缓存 UserState，登录时加载，登出时清除。
// 同一用户在缓存中始终只有一个 UserState，并发加载合并为一次读取。
type Registry struct {
	store Store
	loads singleflight.Group

	mu     sync.Mutex
	states map[uint]*UserState
}

// NewRegistry 构造 Registry
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, states: make(map[uint]*UserState)}
}

// Load 从存储重新读取用户状态。
// 已缓存的状态原地刷新而不是替换，正在进行的评估仍持有同一个对象。
func (r *Registry) Load(ctx context.Context, userID uint) (*UserState, error) {
	if userID == 0 {
		return NewUserState(0, nil, nil), nil
	}

	detached := context.WithoutCancel(ctx)
	value, err, _ := r.loads.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		progress, err := r.store.LoadProgress(detached, userID)
		if err != nil {
			return nil, fmt.Errorf("load achievement progress: %w", err)
		}
		featured, err := r.store.LoadFeatured(detached, userID)
		if err != nil {
			return nil, fmt.Errorf("load featured badges: %w", err)
		}

		r.mu.Lock()
		state, ok := r.states[userID]
		if !ok {
			state = NewUserState(userID, progress, featured)
			r.states[userID] = state
		}
		r.mu.Unlock()

		if ok {
			state.merge(progress, featured)
		}
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*UserState), nil
}

// Get 返回缓存中的状态，缺失时从存储加载
func (r *Registry) Get(ctx context.Context, userID uint) (*UserState, error) {
	r.mu.Lock()
	state, ok := r.states[userID]
	r.mu.Unlock()
	if ok {
		return state, nil
	}
	return r.Load(ctx, userID)
}

// Clear 丢弃用户缓存
func (r *Registry) Clear(userID uint) {
	r.mu.Lock()
	delete(r.states, userID)
	r.mu.Unlock()
}

// Len 返回当前缓存的用户数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

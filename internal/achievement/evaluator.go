package achievement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Evaluator 将统计快照与成就目录比对，写入进度并返回新解锁的成就
type Evaluator struct {
	catalog  *Catalog
	store    Store
	notifier Notifier
	now      func() time.Time

	pending sync.WaitGroup

	writesMu sync.Mutex
	writes   map[writeKey]*progressWrite
}

type writeKey struct {
	userID        uint
	achievementID string
}

// progressWrite 为同一 (用户, 成就) 的后台写入队列，只保留最新的待写值
type progressWrite struct {
	next *Progress
}

// NewEvaluator 构造评估器，notifier 可为 nil
func NewEvaluator(catalog *Catalog, store Store, notifier Notifier) *Evaluator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Evaluator{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		writes:   make(map[writeKey]*progressWrite),
	}
}

// Catalog 返回评估器使用的目录
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate 按目录顺序检查所有未解锁成就：
// 达成条件时同步写入解锁记录，只有写入成功才计入返回值；
// 未达成但已有进度时在后台写入进度，失败只记录日志。
// 存储报告已解锁时只同步缓存，不计入返回值。
func (e *Evaluator) Evaluate(ctx context.Context, state *UserState, stats Stats) []string {
	if state == nil || state.userID == 0 {
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	var unlocked []string
	for _, def := range e.catalog.Definitions() {
		existing, ok := state.progress[def.ID]
		if ok && existing.Unlocked() {
			continue
		}

		current, target, met := measure(def.Condition, stats)
		if !met {
			// 删除日志后进度可能回落到 0，已有记录时同样写回
			if (current > 0 || ok) && (!ok || existing.Progress != current || existing.Target != target) {
				record := Progress{AchievementID: def.ID, Progress: current, Target: target}
				state.progress[def.ID] = record
				e.writeProgressAsync(ctx, state.userID, record)
			}
			continue
		}

		unlockedAt := e.now()
		record := Progress{AchievementID: def.ID, Progress: current, Target: target, UnlockedAt: &unlockedAt}
		if err := e.store.WriteUnlock(ctx, state.userID, record); err != nil {
			if errors.Is(err, ErrAlreadyUnlocked) {
				state.progress[def.ID] = e.storedUnlock(ctx, state.userID, record)
				continue
			}
			log.Printf("[achievement] unlock %s for user %d failed: %v", def.ID, state.userID, err)
			continue
		}
		state.progress[def.ID] = record
		unlocked = append(unlocked, def.ID)
	}

	if len(unlocked) > 0 && e.notifier != nil {
		e.notifier.NotifyUnlocked(state.userID, unlocked)
	}
	return unlocked
}

// Wait 阻塞直到所有后台进度写入结束
func (e *Evaluator) Wait() {
	e.pending.Wait()
}

// storedUnlock 读取存储中已有的解锁记录，读取失败时退回本次构造的记录
func (e *Evaluator) storedUnlock(ctx context.Context, userID uint, fallback Progress) Progress {
	progress, err := e.store.LoadProgress(ctx, userID)
	if err != nil {
		log.Printf("[achievement] reload %s for user %d failed: %v", fallback.AchievementID, userID, err)
		return fallback
	}
	if record, ok := progress[fallback.AchievementID]; ok && record.Unlocked() {
		return record
	}
	return fallback
}

// writeProgressAsync 按 (用户, 成就) 串行写入进度。
// 前一次写入未结束时只记下最新值，写入顺序与评估顺序一致。
func (e *Evaluator) writeProgressAsync(ctx context.Context, userID uint, record Progress) {
	key := writeKey{userID: userID, achievementID: record.AchievementID}

	e.writesMu.Lock()
	if queued, ok := e.writes[key]; ok {
		queued.next = &record
		e.writesMu.Unlock()
		return
	}
	e.writes[key] = &progressWrite{}
	e.pending.Add(1)
	e.writesMu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer e.pending.Done()
		current := record
		for {
			if err := e.store.WriteProgress(detached, userID, current); err != nil {
				log.Printf("[achievement] progress %s for user %d failed: %v", current.AchievementID, userID, err)
			}

			e.writesMu.Lock()
			queued := e.writes[key]
			if queued.next == nil {
				delete(e.writes, key)
				e.writesMu.Unlock()
				return
			}
			current = *queued.next
			queued.next = nil
			e.writesMu.Unlock()
		}
	}()
}

// SetFeatured 截取前 MaxFeatured 个 ID 后校验：必须存在且已解锁。
// 校验通过才写入存储并更新缓存。
func (e *Evaluator) SetFeatured(ctx context.Context, state *UserState, ids []string) ([]string, error) {
	if state == nil || state.userID == 0 {
		return nil, nil
	}

	selected := make([]string, 0, MaxFeatured)
	for _, raw := range ids {
		if len(selected) == MaxFeatured {
			break
		}
		selected = append(selected, strings.TrimSpace(raw))
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	seen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := e.catalog.Get(id); !ok {
			return nil, fmt.Errorf("%w: unknown achievement %q", ErrInvalidArgument, id)
		}
		if record, ok := state.progress[id]; !ok || !record.Unlocked() {
			return nil, fmt.Errorf("%w: achievement %q is not unlocked", ErrInvalidArgument, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate achievement %q", ErrInvalidArgument, id)
		}
		seen[id] = struct{}{}
	}

	if err := e.store.WriteFeatured(ctx, state.userID, selected); err != nil {
		return nil, fmt.Errorf("write featured badges: %w", err)
	}
	state.featured = append([]string(nil), selected...)
	return selected, nil
}

// measure 返回当前值、目标值以及是否达成。
// 标记类条件达成时当前值记为目标值，未达成为 0。
func measure(condition Condition, stats Stats) (current, target float64, met bool) {
	target = condition.Target()
	switch c := condition.(type) {
	case Threshold:
		current = metricValue(c.Metric, stats)
		return current, target, current >= target
	case TimeOfDay:
		flag := stats.HasNightDive
		if c.Before {
			flag = stats.HasEarlyDive
		}
		return flagValue(flag, target), target, flag
	case WaterTemp:
		return flagValue(stats.HasColdDive, target), target, stats.HasColdDive
	default:
		return 0, 0, false
	}
}

func metricValue(kind ConditionKind, stats Stats) float64 {
	switch kind {
	case KindDiveCount:
		return float64(stats.TotalDives)
	case KindCountryCount:
		return float64(stats.CountryCount)
	case KindSpotCount:
		return float64(stats.SpotsCount)
	case KindReviewCount:
		return float64(stats.ReviewCount)
	case KindPhotoCount:
		return float64(stats.PhotoCount)
	case KindDepthAbove:
		return stats.MaxDepth
	case KindStreakDays:
		return float64(stats.Streak)
	default:
		return 0
	}
}

func flagValue(flag bool, target float64) float64 {
	if flag {
		return target
	}
	return 0
}

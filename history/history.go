/*
 * ====================================================================
 * 搜索历史
 *
 * 功能说明:
 *       维护最近搜索词列表，最多 20 条、最新在前、自动去重，
 *       以 JSON 数组形式持久化到会话存储的 searchHistory 键。
 *       空白词忽略，重复词提升到列表头部。
 * ====================================================================
 */

package history

import (
	"encoding/json"
	"strings"

	"github.com/bookwise/bookwise-go/session"
)

// MaxEntries 保留的搜索词上限
const MaxEntries = 20

// Manager 基于会话存储的搜索历史管理器
type Manager struct {
	store session.Store
}

// NewManager 创建搜索历史管理器
func NewManager(store session.Store) *Manager {
	return &Manager{store: store}
}

// List 按最新在前返回全部搜索词，存储缺失或损坏时返回空列表
func (m *Manager) List() []string {
	raw, err := m.store.Get(session.KeySearchHistory)
	if err != nil {
		return nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

// Record 记录一次搜索，重复词提升到头部，超出上限的旧词被淘汰
func (m *Manager) Record(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	entries := m.List()
	next := make([]string, 0, len(entries)+1)
	next = append(next, term)
	for _, e := range entries {
		if e == term {
			continue
		}
		next = append(next, e)
	}
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	return m.save(next)
}

// Remove 删除一条搜索词，不存在时为空操作
func (m *Manager) Remove(term string) error {
	entries := m.List()
	next := entries[:0]
	for _, e := range entries {
		if e != term {
			next = append(next, e)
		}
	}
	if len(next) == len(entries) {
		return nil
	}
	if len(next) == 0 {
		return m.Clear()
	}
	return m.save(next)
}

// Clear 清空全部搜索历史
func (m *Manager) Clear() error {
	return m.store.Del(session.KeySearchHistory)
}

func (m *Manager) save(entries []string) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return m.store.Set(session.KeySearchHistory, string(payload))
}

/*
 * ====================================================================
 * 本地分析缓存
 *
 * 功能说明:
 *       把后端返回的图书分析结果落到本地 SQLite，离线时可回看，
 *       并提供最近记录的分页浏览。同书名的记录按标题去重更新。
 * ====================================================================
 */

package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/soft_delete"
)

// ErrNotCached 本地缓存中不存在该书名
var ErrNotCached = errors.New("store: analysis not cached")

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// 节点 ID 取自 SNOWFLAKE_NODE_ID，缺省为 0，单机客户端足够
func nextID() (int64, error) {
	nodeOnce.Do(func() {
		id := int64(0)
		if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				nodeErr = err
				return
			}
			id = parsed
		}
		node, nodeErr = snowflake.NewNode(id)
	})
	if nodeErr != nil {
		return 0, nodeErr
	}
	return node.Generate().Int64(), nil
}

// BaseModel 本地缓存模型的公共字段
type BaseModel struct {
	ID         int64                 `json:"id,string" gorm:"primaryKey"`
	CreateTime time.Time             `json:"createTime" gorm:"column:create_time;autoCreateTime"`
	UpdateTime time.Time             `json:"updateTime" gorm:"column:update_time;autoUpdateTime"`
	Deleted    soft_delete.DeletedAt `json:"-" gorm:"column:deleted;default:0;softDelete:flag"`
}

// BeforeCreate 创建前生成雪花 ID
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID != 0 {
		return nil
	}
	id, err := nextID()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// CachedAnalysis 一条缓存的图书分析记录
type CachedAnalysis struct {
	BaseModel
	Title          string    `json:"title" gorm:"column:title;uniqueIndex;not null"`
	Genre          string    `json:"genre" gorm:"column:genre"`
	Themes         string    `json:"themes" gorm:"column:themes"`
	Tone           string    `json:"tone" gorm:"column:tone"`
	Poster         string    `json:"poster" gorm:"column:poster"`
	Recommendation string    `json:"recommendation" gorm:"column:recommendation"`
	AnalyzedAt     time.Time `json:"analyzedAt" gorm:"column:analyzed_at"`
}

// TableName 表名固定为 cached_analyses
func (CachedAnalysis) TableName() string {
	return "cached_analyses"
}

// Page 本地分页结果
type Page struct {
	Rows     []CachedAnalysis `json:"rows"`
	Total    int64            `json:"total"`
	Page     int              `json:"currentPage"`
	PageSize int              `json:"pageSize"`
	Pages    int64            `json:"totalPages"`
}

// Store SQLite 支撑的本地缓存
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）缓存数据库并迁移表结构
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CachedAnalysis{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save 写入或按书名覆盖一条分析记录
func (s *Store) Save(ctx context.Context, record *CachedAnalysis) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"genre", "themes", "tone", "poster", "recommendation", "analyzed_at", "update_time",
		}),
	}).Create(record).Error
}

// GetByTitle 按书名取一条记录，未命中返回 ErrNotCached
func (s *Store) GetByTitle(ctx context.Context, title string) (*CachedAnalysis, error) {
	var record CachedAnalysis
	err := s.db.WithContext(ctx).Where("title = ?", title).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Recent 按分析时间倒序分页浏览缓存记录
func (s *Store) Recent(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	db := s.db.WithContext(ctx).Model(&CachedAnalysis{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []CachedAnalysis
	offset := (page - 1) * pageSize
	if err := db.Order("analyzed_at DESC").Offset(offset).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	pages := int64(math.Ceil(float64(total) / float64(pageSize)))
	return &Page{
		Rows:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

// Delete 按书名软删除一条记录
func (s *Store) Delete(ctx context.Context, title string) error {
	return s.db.WithContext(ctx).Where("title = ?", title).Delete(&CachedAnalysis{}).Error
}

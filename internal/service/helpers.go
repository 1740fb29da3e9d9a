package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
	"hyperzen/backend/pkg/validator"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate 日期格式非法
var ErrInvalidDate = errors.New("日期格式应为 YYYY-MM-DD")

// StatusCache 付款状态缓存（Redis 实现见 pkg/redis）
type StatusCache interface {
	GetStatus(ctx context.Context, dossierID, refDate string) ([]byte, error)
	SetStatus(ctx context.Context, dossierID, refDate string, payload []byte, ttl time.Duration) error
	InvalidateStatus(ctx context.Context, dossierID string) error
}

// TokenBlacklist JWT 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// invalidateStatus 写操作后清除档案状态缓存；缓存不可用仅记录告警
func invalidateStatus(ctx context.Context, cache StatusCache, logger *zap.Logger, dossierID string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateStatus(ctx, dossierID); err != nil {
		logger.Warn("清除状态缓存失败", zap.String("dossier_id", dossierID), zap.Error(err))
	}
}

// parseMoney 解析非负金额（最多两位小数）
func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !validator.IsMoney(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseDate 解析 YYYY-MM-DD（UTC 日期）
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseOptionalDate 空字符串返回 nil
func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ReferenceDate 解析查询参数中的参考日期，空则取今天
func ReferenceDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return billing.DateOnly(now), nil
	}
	return parseDate(s)
}

func formatMoney(d decimal.Decimal) string { return d.StringFixed(2) }

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// auditCreated 构造创建人审计字段
func auditCreated(callerID string) model.BaseModel {
	if callerID == "" {
		return model.BaseModel{}
	}
	return model.BaseModel{CreatedBy: &callerID}
}

// withTx 在事务中执行 fn；fn 返回错误或 panic 时回滚
// mock 聚合下 BeginTx 返回 nil，fn 直接作用于原聚合
func withTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) (err error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

package service

import (
	"errors"
	"fmt"

	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"gorm.io/gorm"
)

// Resource 受私密账号规则约束的资源，作品、评论和资料都实现该接口
type Resource interface {
	// ResourceOwnerID 资源所有者
	ResourceOwnerID() uint
	// AudienceAccountID 决定可见范围的账号
	AudienceAccountID() uint
}

// CanView 判断viewer能否查看资源。viewerID为0表示匿名访问
func CanView(db *gorm.DB, viewerID uint, r Resource) (bool, error) {
	audience := r.AudienceAccountID()
	if viewerID != 0 && (viewerID == r.ResourceOwnerID() || viewerID == audience) {
		return true, nil
	}

	var profile model.Profile
	if err := db.Select("user_id", "private_account").First(&profile, "user_id = ?", audience).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.NotFound("用户不存在")
		}
		return false, fmt.Errorf("查询用户资料失败: %w", err)
	}
	if !profile.PrivateAccount {
		return true, nil
	}
	if viewerID == 0 {
		return false, nil
	}
	return isFollowing(db, viewerID, audience)
}

// ensureCanView 无权查看时返回PermissionDenied
func ensureCanView(db *gorm.DB, viewerID uint, r Resource) error {
	ok, err := CanView(db, viewerID, r)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("该账号为私密账号，关注后才能查看")
	}
	return nil
}

// isFollowing followerID是否关注了followedID
func isFollowing(db *gorm.DB, followerID, followedID uint) (bool, error) {
	var count int64
	if err := db.Model(&model.UserFollow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询关注关系失败: %w", err)
	}
	return count > 0, nil
}

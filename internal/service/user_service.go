package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/auth"
	"github.com/nsxzhou1114/gram-api/pkg/cache"
	"github.com/nsxzhou1114/gram-api/pkg/storage"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	userService     *UserService
	userServiceOnce sync.Once
)

// UserService 账号与资料服务
type UserService struct {
	db         *gorm.DB
	logger     *zap.SugaredLogger
	filter     *TextFilter
	stats      *cache.ProfileStatsCache
	usernames  *cache.UsernameFilter
	search     *SearchService
	storage    storage.Storage
	storageCfg *config.StorageConfig
}

// NewUserService 创建用户服务实例
func NewUserService() *UserService {
	userServiceOnce.Do(func() {
		userService = &UserService{
			db:        database.GetDB(),
			logger:    logger.GetSugaredLogger(),
			filter:    NewTextFilter(),
			stats:     cache.GetManager().GetProfileStats(),
			usernames: cache.GetManager().GetUsernameFilter(),
			search:    NewSearchService(),
			storage:   storage.Default(),
		}
		if cfg := config.GetConfig(); cfg != nil {
			userService.storageCfg = &cfg.Storage
		}
	})
	return userService
}

// Register 用户注册，同一事务内创建空资料
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Email != req.Email2 {
		return nil, apperr.Validation("两次输入的邮箱不一致")
	}
	if req.Password != req.Password2 {
		return nil, apperr.Validation("两次输入的密码不一致")
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := s.checkUnique(ctx, 0, username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     model.RoleUser,
		Status:   model.UserActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("创建用户失败: %w", err)
		}
		profile := &model.Profile{UserID: user.ID, Photo: model.DefaultPhoto}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("创建用户资料失败: %w", err)
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, s.duplicateOr(ctx, 0, username, email, err)
	}

	s.afterUsernameChanged(ctx, user)

	tokenPair, err := auth.GenerateTokenPair(user.ID, user.Role, false)
	if err != nil {
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	profile, err := s.GetProfile(ctx, user.ID, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: profile, Token: tokenPair}, nil
}

// checkUnique 用户名和邮箱不区分大小写唯一，excludeID为当前用户。
// 布隆过滤器判定用户名从未出现时跳过用户名查询，写入时由唯一索引兜底
func (s *UserService) checkUnique(ctx context.Context, excludeID uint, username, email string) error {
	if username != "" && s.usernames != nil && !s.usernames.MightExist(ctx, username) {
		username = ""
	}
	return s.findDuplicate(ctx, excludeID, username, email)
}

// findDuplicate 查询用户名或邮箱是否已被其他用户占用
func (s *UserService) findDuplicate(ctx context.Context, excludeID uint, username, email string) error {
	db := s.db.WithContext(ctx)
	if username != "" {
		var count int64
		if err := db.Model(&model.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", username, excludeID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("检查用户名失败: %w", err)
		}
		if count > 0 {
			return apperr.Validation("用户名已存在")
		}
	}
	if email != "" {
		var count int64
		if err := db.Model(&model.User{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", email, excludeID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("检查邮箱失败: %w", err)
		}
		if count > 0 {
			return apperr.Validation("邮箱已存在")
		}
	}
	return nil
}

// duplicateOr 写入失败后确认是否撞上唯一索引，是则返回校验错误
func (s *UserService) duplicateOr(ctx context.Context, excludeID uint, username, email string, writeErr error) error {
	if dup := s.findDuplicate(ctx, excludeID, username, email); apperr.IsType(dup, apperr.TypeValidation) {
		return dup
	}
	return writeErr
}

// afterUsernameChanged 同步布隆过滤器和搜索索引，失败只记录日志
func (s *UserService) afterUsernameChanged(ctx context.Context, user *model.User) {
	if s.usernames != nil {
		if err := s.usernames.Add(ctx, user.Username); err != nil {
			s.logger.Warnf("用户名加入布隆过滤器失败: %v", err)
		}
	}
	if s.search != nil {
		if err := s.search.IndexProfile(ctx, user); err != nil {
			s.logger.Warnf("索引用户失败: %v", err)
		}
	}
}

// Login 用户名或邮箱登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user model.User
	query := s.db.WithContext(ctx).Where("status = ?", model.UserActive)
	if strings.Contains(req.Username, "@") {
		query = query.Where("LOWER(email) = LOWER(?)", req.Username)
	} else {
		query = query.Where("LOWER(username) = LOWER(?)", req.Username)
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("用户名或密码错误")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		return nil, apperr.Unauthorized("用户名或密码错误")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.Warnf("更新用户登录信息失败: %v", err)
	}

	tokenPair, err := auth.GenerateTokenPair(user.ID, user.Role, req.Remember)
	if err != nil {
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	profile, err := s.GetProfile(ctx, user.ID, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: profile, Token: tokenPair}, nil
}

// RefreshToken 刷新访问令牌
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	pair, err := auth.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.New(apperr.TypeUnauthorized, "刷新令牌无效或已过期", err)
	}
	return pair, nil
}

// Logout 撤销访问令牌和刷新令牌
func (s *UserService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := auth.RevokeToken(ctx, accessToken); err != nil {
			return apperr.New(apperr.TypeUnauthorized, "令牌无效", err)
		}
	}
	if refreshToken != "" {
		if err := auth.RevokeToken(ctx, refreshToken); err != nil {
			s.logger.Warnf("撤销刷新令牌失败: %v", err)
		}
	}
	return nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint, req *dto.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperr.Validation("两次输入的密码不一致")
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, req.OldPassword) {
		return apperr.Validation("原密码错误")
	}
	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}
	return nil
}

func (s *UserService) getUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("用户不存在")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Profile == nil {
		user.Profile = &model.Profile{UserID: user.ID, Photo: model.DefaultPhoto}
	}
	return &user, nil
}

// GetProfile 获取用户资料，viewerID为0表示匿名访问
func (s *UserService) GetProfile(ctx context.Context, viewerID, id uint) (*dto.ProfileResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.ProfileStats(ctx, id)
	if err != nil {
		return nil, err
	}

	p := user.Profile
	resp := &dto.ProfileResponse{
		UserBrief: toUserBrief(user),
		ProfileLinks: dto.ProfileLinks{
			Facebook:  p.Facebook,
			Twitter:   p.Twitter,
			Instagram: p.Instagram,
			Website:   p.Website,
		},
		ProfileStats: dto.ProfileStats{
			FollowersCount: stats.FollowersCount,
			FollowingCount: stats.FollowingCount,
			ItemsCount:     stats.ItemsCount,
		},
		Bio:            p.Bio,
		PrivateAccount: p.PrivateAccount,
		Timestamps:     dto.Timestamps{CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
	}

	if viewerID == id {
		resp.Email = user.Email
	} else if viewerID != 0 {
		db := s.db.WithContext(ctx)
		if resp.IsFollowing, err = isFollowing(db, viewerID, id); err != nil {
			return nil, err
		}
		var pending int64
		if err := db.Model(&model.FollowRequest{}).
			Where("sender_id = ? AND receiver_id = ? AND status = ?", viewerID, id, model.FollowRequestSent).
			Count(&pending).Error; err != nil {
			return nil, fmt.Errorf("查询关注请求失败: %w", err)
		}
		resp.IsRequested = pending > 0
	}
	return resp, nil
}

// ProfileStats 并发统计粉丝、关注和作品数，结果短时缓存
func (s *UserService) ProfileStats(ctx context.Context, id uint) (*cache.ProfileStats, error) {
	if s.stats != nil {
		if stats, ok := s.stats.Get(ctx, id); ok {
			return stats, nil
		}
	}

	var stats cache.ProfileStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&model.UserFollow{}).
			Where("followed_id = ? AND follower_id <> ?", id, id).
			Count(&stats.FollowersCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&model.UserFollow{}).
			Where("follower_id = ? AND followed_id <> ?", id, id).
			Count(&stats.FollowingCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&model.Item{}).
			Where("owner_id = ?", id).
			Count(&stats.ItemsCount).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("统计用户数据失败: %w", err)
	}

	if s.stats != nil {
		if err := s.stats.Set(ctx, id, &stats); err != nil {
			s.logger.Warnf("缓存用户统计失败: %v", err)
		}
	}
	return &stats, nil
}

// UpdateProfile 更新当前用户资料，nil字段保持不变
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *dto.ProfileUpdateRequest) (*dto.ProfileResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	userUpdates := map[string]interface{}{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, apperr.Validation("用户名不能为空")
		}
		if !strings.EqualFold(username, user.Username) {
			if err := s.checkUnique(ctx, userID, username, ""); err != nil {
				return nil, err
			}
		}
		userUpdates["username"] = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := s.checkUnique(ctx, userID, "", email); err != nil {
			return nil, err
		}
		userUpdates["email"] = email
	}

	profileUpdates := map[string]interface{}{}
	if req.Bio != nil {
		profileUpdates["bio"] = s.filter.Clean(*req.Bio)
	}
	if req.Facebook != nil {
		profileUpdates["facebook"] = *req.Facebook
	}
	if req.Twitter != nil {
		profileUpdates["twitter"] = *req.Twitter
	}
	if req.Instagram != nil {
		profileUpdates["instagram"] = *req.Instagram
	}
	if req.Website != nil {
		profileUpdates["website"] = *req.Website
	}
	if req.PrivateAccount != nil {
		profileUpdates["private_account"] = *req.PrivateAccount
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
				return fmt.Errorf("更新用户失败: %w", err)
			}
		}
		if len(profileUpdates) > 0 {
			if err := tx.Model(&model.Profile{}).Where("user_id = ?", userID).Updates(profileUpdates).Error; err != nil {
				return fmt.Errorf("更新用户资料失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		username, _ := userUpdates["username"].(string)
		email, _ := userUpdates["email"].(string)
		return nil, s.duplicateOr(ctx, userID, username, email, err)
	}

	if _, ok := userUpdates["username"]; ok || req.Bio != nil {
		if updated, err := s.getUser(ctx, userID); err == nil {
			s.afterUsernameChanged(ctx, updated)
		}
	}
	return s.GetProfile(ctx, userID, userID)
}

// UploadPhoto 上传头像，对象名固定为 users/{id}/profile.{ext}
func (s *UserService) UploadPhoto(ctx context.Context, userID uint, header *multipart.FileHeader) (*dto.ProfileResponse, error) {
	if s.storage == nil || s.storageCfg == nil {
		return nil, apperr.Internal("存储未初始化", nil)
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	file, err := storage.ReadImage(s.storageCfg, header)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.Put(ctx, storage.ProfilePhotoKey(userID, file), file.Data, file.ContentType)
	if err != nil {
		return nil, fmt.Errorf("保存头像失败: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).Update("photo", url).Error; err != nil {
		return nil, fmt.Errorf("更新头像失败: %w", err)
	}
	return s.GetProfile(ctx, userID, userID)
}

// SearchProfiles 按用户名前缀搜索
func (s *UserService) SearchProfiles(ctx context.Context, q string) ([]dto.UserBrief, error) {
	return s.search.SearchProfiles(ctx, q)
}

// invalidateStats 关注关系或作品变化后清除计数缓存
func invalidateStats(ctx context.Context, stats *cache.ProfileStatsCache, log *zap.SugaredLogger, ids ...uint) {
	if stats == nil || len(ids) == 0 {
		return
	}
	if err := stats.Invalidate(ctx, ids...); err != nil {
		log.Warnf("清除用户统计缓存失败: %v", err)
	}
}

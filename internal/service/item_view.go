package service

import (
	"context"
	"fmt"

	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"gorm.io/gorm"
)

// itemView 将作品组装为列表和详情响应，计数和话题按批查询
type itemView struct {
	db *gorm.DB
}

type idCount struct {
	ID    uint
	Count int64
}

// countBy 按外键分组计数
func (v itemView) countBy(ctx context.Context, m interface{}, column string, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []idCount
	if err := v.db.WithContext(ctx).Model(m).
		Select(column+" AS id, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ID] = r.Count
	}
	return counts, nil
}

// hashtags 查询作品的话题
func (v itemView) hashtags(ctx context.Context, ids []uint) (map[uint][]model.Hashtag, error) {
	result := make(map[uint][]model.Hashtag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var links []model.ItemHashtag
	if err := v.db.WithContext(ctx).Where("item_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return result, nil
	}
	hashtagIDs := make([]uint, 0, len(links))
	for _, l := range links {
		hashtagIDs = append(hashtagIDs, l.HashtagID)
	}
	var hashtags []model.Hashtag
	if err := v.db.WithContext(ctx).Where("id IN ?", hashtagIDs).Order("name ASC").Find(&hashtags).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Hashtag, len(hashtags))
	for _, h := range hashtags {
		byID[h.ID] = h
	}
	for _, l := range links {
		if h, ok := byID[l.HashtagID]; ok {
			result[l.ItemID] = append(result[l.ItemID], h)
		}
	}
	return result, nil
}

// list 组装列表响应，items需预加载Owner.Profile
func (v itemView) list(ctx context.Context, items []model.Item) ([]dto.ItemListResponse, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	likes, err := v.countBy(ctx, &model.ItemLike{}, "item_id", ids)
	if err != nil {
		return nil, fmt.Errorf("统计点赞失败: %w", err)
	}
	comments, err := v.countBy(ctx, &model.Comment{}, "item_id", ids)
	if err != nil {
		return nil, fmt.Errorf("统计评论失败: %w", err)
	}
	favourites, err := v.countBy(ctx, &model.ItemFavourite{}, "item_id", ids)
	if err != nil {
		return nil, fmt.Errorf("统计收藏失败: %w", err)
	}
	hashtags, err := v.hashtags(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询话题失败: %w", err)
	}

	list := make([]dto.ItemListResponse, 0, len(items))
	for i := range items {
		item := &items[i]
		list = append(list, dto.ItemListResponse{
			ItemBrief: dto.ItemBrief{ID: item.ID, Slug: item.Slug, Image: item.Image, Caption: item.Caption},
			ItemCounts: dto.ItemCounts{
				LikesCount:      likes[item.ID],
				CommentsCount:   comments[item.ID],
				FavouritesCount: favourites[item.ID],
			},
			Owner:      toUserBrief(item.Owner),
			Hashtags:   toHashtagResponses(hashtags[item.ID]),
			Timestamps: dto.Timestamps{CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt},
		})
	}
	return list, nil
}

// detail 组装详情响应，包含被标记用户和viewer的点赞收藏状态
func (v itemView) detail(ctx context.Context, viewerID uint, item *model.Item) (*dto.ItemResponse, error) {
	list, err := v.list(ctx, []model.Item{*item})
	if err != nil {
		return nil, err
	}
	db := v.db.WithContext(ctx)

	var tagged []model.User
	if err := db.Preload("Profile").
		Where("id IN (?)", db.Model(&model.ItemTag{}).Select("user_id").Where("item_id = ?", item.ID)).
		Order("username ASC").
		Find(&tagged).Error; err != nil {
		return nil, fmt.Errorf("查询被标记用户失败: %w", err)
	}

	resp := &dto.ItemResponse{
		ItemListResponse: list[0],
		Tags:             toUserBriefs(tagged),
		RestrictComment:  item.RestrictComment,
	}
	if viewerID != 0 {
		var n int64
		if err := db.Model(&model.ItemLike{}).Where("item_id = ? AND user_id = ?", item.ID, viewerID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("查询点赞状态失败: %w", err)
		}
		resp.IsLiked = n > 0
		if err := db.Model(&model.ItemFavourite{}).Where("item_id = ? AND user_id = ?", item.ID, viewerID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("查询收藏状态失败: %w", err)
		}
		resp.IsFavourited = n > 0
	}
	return resp, nil
}

// page 分页查询作品，按发布时间倒序
func (v itemView) page(ctx context.Context, query *gorm.DB, page *dto.PageRequest) (*dto.PageResult[dto.ItemListResponse], error) {
	query = query.Model(&model.Item{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计作品失败: %w", err)
	}
	var items []model.Item
	if err := query.Preload("Owner.Profile").
		Order("items.created_at DESC, items.id DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("查询作品失败: %w", err)
	}
	list, err := v.list(ctx, items)
	if err != nil {
		return nil, err
	}
	return &dto.PageResult[dto.ItemListResponse]{List: list, Total: total, Page: page.Page, Size: page.PageSize}, nil
}

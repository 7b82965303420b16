package dto

// ItemCreateRequest 发布作品请求，图片通过multipart的image字段上传
type ItemCreateRequest struct {
	Caption         string   `form:"caption" binding:"omitempty,max=255"`
	Hashtags        []string `form:"hashtags" binding:"omitempty,max=30,dive,max=255"`
	Tags            []string `form:"tags" binding:"omitempty,max=30,dive,max=50"`
	RestrictComment bool     `form:"restrict_comment"`
}

// ItemUpdateRequest 更新作品请求，nil字段保持不变，空数组清空
type ItemUpdateRequest struct {
	Caption         *string   `json:"caption" binding:"omitempty,max=255"`
	RestrictComment *bool     `json:"restrict_comment"`
	Hashtags        *[]string `json:"hashtags" binding:"omitempty,max=30,dive,max=255"`
	Tags            *[]string `json:"tags" binding:"omitempty,max=30,dive,max=50"`
}

// HashtagResponse 话题
type HashtagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ItemBrief 作品基本信息
type ItemBrief struct {
	ID      uint   `json:"id"`
	Slug    string `json:"slug"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

// ItemCounts 作品计数
type ItemCounts struct {
	LikesCount      int64 `json:"likes_count"`
	CommentsCount   int64 `json:"comments_count"`
	FavouritesCount int64 `json:"favourites_count"`
}

// ItemListResponse 列表中的作品
type ItemListResponse struct {
	ItemBrief
	ItemCounts
	Owner    UserBrief         `json:"owner"`
	Hashtags []HashtagResponse `json:"hashtags"`
	Timestamps
}

// ItemResponse 作品详情
type ItemResponse struct {
	ItemListResponse
	Tags            []UserBrief `json:"tags"`
	RestrictComment bool        `json:"restrict_comment"`
	IsLiked         bool        `json:"is_liked"`
	IsFavourited    bool        `json:"is_favourited"`
}

// 点赞收藏切换结果
const (
	ToggleStateLiked        = "liked"
	ToggleStateUnliked      = "unliked"
	ToggleStateFavourited   = "favourited"
	ToggleStateUnfavourited = "unfavourited"
)

// ToggleResponse 点赞收藏切换结果
type ToggleResponse struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

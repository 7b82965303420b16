package dto

// ProfileUpdateRequest 资料更新请求，nil字段保持不变
type ProfileUpdateRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email          *string `json:"email" binding:"omitempty,email,max=100"`
	Bio            *string `json:"bio" binding:"omitempty,max=255"`
	Facebook       *string `json:"facebook" binding:"omitempty,url,max=255"`
	Twitter        *string `json:"twitter" binding:"omitempty,url,max=255"`
	Instagram      *string `json:"instagram" binding:"omitempty,url,max=255"`
	Website        *string `json:"website" binding:"omitempty,url,max=255"`
	PrivateAccount *bool   `json:"private_account"`
}

// ProfileLinks 外部链接
type ProfileLinks struct {
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	Website   string `json:"website"`
}

// ProfileStats 计数
type ProfileStats struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	ItemsCount     int64 `json:"items_count"`
}

// ProfileResponse 用户资料
type ProfileResponse struct {
	UserBrief
	ProfileLinks
	ProfileStats
	Email          string `json:"email,omitempty"`
	Bio            string `json:"bio"`
	PrivateAccount bool   `json:"private_account"`
	IsFollowing    bool   `json:"is_following"`
	IsRequested    bool   `json:"is_requested"`
	Timestamps
}

// 关注操作结果状态
const (
	FollowStateFollowed         = "followed"
	FollowStateUnfollowed       = "unfollowed"
	FollowStateRequested        = "requested"
	FollowStateAlreadyRequested = "already_requested"
	FollowStateSelf             = "self"
)

// FollowResponse 关注切换结果
type FollowResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// FollowRequestResponse 关注请求
type FollowRequestResponse struct {
	ID     uint      `json:"id"`
	Sender UserBrief `json:"sender"`
	Status string    `json:"status"`
	Timestamps
}

// ProfileSearchRequest 用户搜索
type ProfileSearchRequest struct {
	Q string `form:"q" binding:"required,max=50"`
}

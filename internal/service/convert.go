package service

import (
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
)

// toUserBrief 用户摘要，需预加载Profile
func toUserBrief(u *model.User) dto.UserBrief {
	if u == nil {
		return dto.UserBrief{}
	}
	brief := dto.UserBrief{ID: u.ID, Username: u.Username, Photo: model.DefaultPhoto}
	if u.Profile != nil && u.Profile.Photo != "" {
		brief.Photo = u.Profile.Photo
	}
	return brief
}

func toUserBriefs(users []model.User) []dto.UserBrief {
	briefs := make([]dto.UserBrief, 0, len(users))
	for i := range users {
		briefs = append(briefs, toUserBrief(&users[i]))
	}
	return briefs
}

func toHashtagResponses(tags []model.Hashtag) []dto.HashtagResponse {
	list := make([]dto.HashtagResponse, 0, len(tags))
	for _, h := range tags {
		list = append(list, dto.HashtagResponse{ID: h.ID, Name: h.Name, Slug: h.Slug})
	}
	return list
}

func toNotificationResponse(n *model.Notification, slugs map[uint]string) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:             n.ID,
		Type:           n.Type,
		Status:         n.Status,
		Sender:         toUserBrief(n.Sender),
		ItemID:         n.ItemID,
		CommentID:      n.CommentID,
		CommentSnippet: n.CommentSnippet,
		IsSeen:         n.IsSeen,
		CreatedAt:      n.CreatedAt,
	}
	if n.ItemID != nil {
		resp.ItemSlug = slugs[*n.ItemID]
	}
	return resp
}

func uintPtr(v uint) *uint {
	return &v
}

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/controller"
	"github.com/nsxzhou1114/gram-api/internal/middleware"
)

// Setup 设置API路由
func Setup(r *gin.Engine) {
	// 本地存储时提供媒体文件访问
	if cfg := config.GetConfig(); cfg != nil && (cfg.Storage.Type == "" || cfg.Storage.Type == "local") {
		r.Static(cfg.Storage.Local.URLPrefix, cfg.Storage.Local.Path)
	}

	// API 路由组
	api := r.Group("/api")

	// 账号相关路由
	setupUserRoutes(api)

	// 资料与关注关系路由
	setupProfileRoutes(api)

	// 作品与评论路由
	setupItemRoutes(api)

	// 首页与探索路由
	setupFeedRoutes(api)

	// 通知路由
	setupNotificationRoutes(r, api)
}

// setupUserRoutes 设置账号相关路由
func setupUserRoutes(api *gin.RouterGroup) {
	userApi := controller.NewUserApi()

	// 公开路由
	userRoutes := api.Group("/users")
	{
		// 注册
		userRoutes.POST("/register", userApi.Register)
		// 登录
		userRoutes.POST("/login", userApi.Login)
		// 按用户名前缀搜索
		userRoutes.GET("/search", userApi.Search)
	}

	// 需要刷新令牌的路由
	refreshRoutes := api.Group("/users", middleware.RefreshAuth())
	{
		refreshRoutes.POST("/refresh", userApi.RefreshToken)
	}

	// 需要认证的路由
	authRoutes := api.Group("/users", middleware.JWTAuth())
	{
		// 登出
		authRoutes.POST("/logout", userApi.Logout)
		// 当前用户
		authRoutes.GET("/me", userApi.Me)
		// 修改密码
		authRoutes.POST("/change-password", userApi.ChangePassword)
	}
}

// setupProfileRoutes 设置资料与关注关系路由
func setupProfileRoutes(api *gin.RouterGroup) {
	profileApi := controller.NewProfileApi()

	// 可匿名访问的路由，私密账号的内容需要登录并关注
	publicRoutes := api.Group("/profiles", middleware.OptionalAuth())
	{
		publicRoutes.GET("/:id", profileApi.Get)
		publicRoutes.GET("/:id/followers", profileApi.Followers)
		publicRoutes.GET("/:id/following", profileApi.Following)
		publicRoutes.GET("/:id/items", profileApi.Items)
		publicRoutes.GET("/:id/items/favourites", profileApi.Favourites)
		publicRoutes.GET("/:id/items/tagged", profileApi.Tagged)
	}

	// 需要认证的路由
	authRoutes := api.Group("/profiles", middleware.JWTAuth())
	{
		// 更新资料
		authRoutes.PUT("/me", profileApi.UpdateMe)
		// 上传头像
		authRoutes.POST("/me/photo", profileApi.UploadPhoto)
		// 关注或取消关注
		authRoutes.POST("/:id/follow", profileApi.ToggleFollow)
		// 关注请求
		authRoutes.GET("/follow/requests", profileApi.FollowRequests)
		authRoutes.POST("/follow/requests/:id/accept", profileApi.AcceptRequest)
		authRoutes.POST("/follow/requests/:id/decline", profileApi.DeclineRequest)
	}
}

// setupItemRoutes 设置作品与评论路由
func setupItemRoutes(api *gin.RouterGroup) {
	itemApi := controller.NewItemApi()
	commentApi := controller.NewCommentApi()

	// 可匿名访问的路由
	publicRoutes := api.Group("/items", middleware.OptionalAuth())
	{
		publicRoutes.GET("/:id", itemApi.Get)
		publicRoutes.GET("/:id/likes", itemApi.Likes)
		publicRoutes.GET("/:id/favourites", itemApi.Favourites)
		publicRoutes.GET("/:id/comments", commentApi.List)
		publicRoutes.GET("/comments/:id", commentApi.Get)
		publicRoutes.GET("/comments/:id/replies", commentApi.Replies)
		publicRoutes.GET("/comments/:id/likes", commentApi.Likes)
	}

	// 需要认证的路由
	authRoutes := api.Group("/items", middleware.JWTAuth())
	{
		// 作品
		authRoutes.POST("", itemApi.Create)
		authRoutes.PUT("/:id", itemApi.Update)
		authRoutes.DELETE("/:id", itemApi.Delete)
		authRoutes.POST("/:id/likes", itemApi.ToggleLike)
		authRoutes.POST("/:id/favourites", itemApi.ToggleFavourite)

		// 评论
		authRoutes.POST("/:id/comments", commentApi.Create)
		authRoutes.PUT("/comments/:id", commentApi.Update)
		authRoutes.DELETE("/comments/:id", commentApi.Delete)
		authRoutes.POST("/comments/:id/replies", commentApi.Reply)
		authRoutes.POST("/comments/:id/likes", commentApi.ToggleLike)
	}
}

// setupFeedRoutes 设置首页与探索路由
func setupFeedRoutes(api *gin.RouterGroup) {
	feedApi := controller.NewFeedApi()

	homeRoutes := api.Group("/home", middleware.JWTAuth())
	{
		homeRoutes.GET("/feed", feedApi.Feed)
		homeRoutes.GET("/trending", feedApi.Trending)
		homeRoutes.GET("/suggestions", feedApi.Suggestions)
	}

	exploreRoutes := api.Group("/explore", middleware.JWTAuth())
	{
		exploreRoutes.GET("", feedApi.Explore)
		exploreRoutes.GET("/hashtags/:id", feedApi.HashtagItems)
	}
}

// setupNotificationRoutes 设置通知路由
func setupNotificationRoutes(r *gin.Engine, api *gin.RouterGroup) {
	notificationApi := controller.NewNotificationApi()

	notificationRoutes := api.Group("/notifications", middleware.JWTAuth())
	{
		notificationRoutes.GET("", notificationApi.List)
		notificationRoutes.GET("/unread-count", notificationApi.UnreadCount)
	}

	// WebSocket连接通过查询参数认证
	r.GET("/ws/notifications", notificationApi.HandleWebSocket)
}

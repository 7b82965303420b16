package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/messaging"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 内存SQLite，单连接保证同一个库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.InitTables(db))
	return db
}

type pushed struct {
	UserID  uint
	MsgType string
	Data    interface{}
}

// recordingPusher 记录推送的消息
type recordingPusher struct {
	mu       sync.Mutex
	messages []pushed
}

func (p *recordingPusher) Push(_ context.Context, userID uint, msgType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, pushed{UserID: userID, MsgType: msgType, Data: data})
	return nil
}

func (p *recordingPusher) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.UserID == userID {
			n++
		}
	}
	return n
}

// recordingPublisher 记录发布的事件主题
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() {}

var _ messaging.Publisher = (*recordingPublisher)(nil)

type testEnv struct {
	ctx           context.Context
	db            *gorm.DB
	pusher        *recordingPusher
	publisher     *recordingPublisher
	notifications *NotificationService
	tags          *TagService
	users         *UserService
	follows       *FollowService
	items         *ItemService
	interactions  *InteractionService
	comments      *CommentService
	feed          *FeedService
}

var testFeedConfig = config.FeedConfig{
	TrendingLimit:   6,
	SuggestionLimit: 6,
	PageSize:        20,
	SlugLength:      10,
	SlugAttempts:    5,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, utils.InitSnowflake("2024-01-01", 1))
	db := newTestDB(t)
	log := zap.NewNop().Sugar()
	pusher := &recordingPusher{}
	publisher := &recordingPublisher{}
	filter := newTextFilter(log, "badword")

	notifications := &NotificationService{db: db, logger: log, pusher: pusher, publisher: publisher}
	tags := &TagService{db: db, logger: log}
	search := &SearchService{db: db, logger: log, index: "test_profiles"}
	view := itemView{db: db}

	return &testEnv{
		ctx:           context.Background(),
		db:            db,
		pusher:        pusher,
		publisher:     publisher,
		notifications: notifications,
		tags:          tags,
		users:         &UserService{db: db, logger: log, filter: filter, search: search},
		follows:       &FollowService{db: db, logger: log, notifications: notifications, publisher: publisher},
		items: &ItemService{
			db:            db,
			logger:        log,
			feedCfg:       testFeedConfig,
			filter:        filter,
			tags:          tags,
			notifications: notifications,
			publisher:     publisher,
			view:          view,
		},
		interactions: &InteractionService{db: db, logger: log, notifications: notifications},
		comments:     &CommentService{db: db, logger: log, filter: filter, notifications: notifications},
		feed:         &FeedService{db: db, logger: log, feedCfg: testFeedConfig, tags: tags, view: view},
	}
}

// createUser 直接写入用户和资料
func (e *testEnv) createUser(t *testing.T, username string, private bool) uint {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", Password: "x", Role: "user", Status: 1}
	require.NoError(t, e.db.Create(user).Error)
	require.NoError(t, e.db.Create(&model.Profile{UserID: user.ID, Photo: model.DefaultPhoto}).Error)
	if private {
		require.NoError(t, e.db.Model(&model.Profile{}).Where("user_id = ?", user.ID).
			Update("private_account", true).Error)
	}
	return user.ID
}

// follow 直接写入关注关系
func (e *testEnv) follow(t *testing.T, followerID, followedID uint) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.UserFollow{FollowerID: followerID, FollowedID: followedID}).Error)
}

// post 跳过图片上传发布作品
func (e *testEnv) post(t *testing.T, ownerID uint, caption string, hashtags, tags []string) *model.Item {
	t.Helper()
	item, notifications, err := e.items.create(e.ctx, ownerID, "/media/test.png", &dto.ItemCreateRequest{
		Caption:  caption,
		Hashtags: hashtags,
		Tags:     tags,
	})
	require.NoError(t, err)
	e.notifications.dispatch(e.ctx, notifications...)
	return item
}

func (e *testEnv) activeNotifications(t *testing.T, notificationType string, receiverID uint) []model.Notification {
	t.Helper()
	var list []model.Notification
	require.NoError(t, e.db.Where("notification_type = ? AND receiver_id = ? AND is_active = ?",
		notificationType, receiverID, true).Find(&list).Error)
	return list
}

func firstPage() *dto.PageRequest {
	return &dto.PageRequest{Page: 1, PageSize: 20}
}

func itemIDs(list []dto.ItemListResponse) []uint {
	ids := make([]uint, 0, len(list))
	for _, item := range list {
		ids = append(ids, item.ID)
	}
	return ids
}

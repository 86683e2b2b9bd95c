package share

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memShareRepo 是带唯一 token 约束的内存实现
type memShareRepo struct {
	shares map[string]*models.Share
	nextID uint64
	// 注入一次性的基础设施故障
	failNextFind bool
}

func newMemShareRepo() *memShareRepo {
	return &memShareRepo{shares: make(map[string]*models.Share)}
}

func (r *memShareRepo) Create(ctx context.Context, s *models.Share) error {
	if _, exists := r.shares[s.Token]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.shares[s.Token] = &cp
	return nil
}

func (r *memShareRepo) FindByToken(ctx context.Context, token string) (*models.Share, error) {
	if r.failNextFind {
		r.failNextFind = false
		return nil, xerr.ErrDatabaseError
	}
	s, ok := r.shares[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memShareRepo) FindAllByUserID(ctx context.Context, userID uint64) ([]models.Share, error) {
	var out []models.Share
	for _, s := range r.shares {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memShareRepo) RecordAccess(ctx context.Context, token string, now time.Time) error {
	s, ok := r.shares[token]
	if !ok {
		return xerr.ErrShareNotFound
	}
	s.CurrentAccessCount++
	t := now
	s.LastAccessedAt = &t
	return nil
}

func (r *memShareRepo) Delete(ctx context.Context, shareID uint64) error {
	for token, s := range r.shares {
		if s.ID == shareID {
			delete(r.shares, token)
			return nil
		}
	}
	return xerr.ErrShareNotFound
}

// memDocumentRepo 只实现分享路径用到的 FindByID
type memDocumentRepo struct {
	docs map[uint64]*models.Document
}

func newMemDocumentRepo(docs ...*models.Document) *memDocumentRepo {
	m := &memDocumentRepo{docs: make(map[uint64]*models.Document)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *memDocumentRepo) FindByID(ctx context.Context, id uint64) (*models.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, xerr.ErrDocumentNotFound
	}
	return d, nil
}

func (r *memDocumentRepo) FindByIDs(ctx context.Context, ids []uint64) ([]models.Document, error) {
	return nil, nil
}

func (r *memDocumentRepo) FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.Document, int64, error) {
	return nil, 0, nil
}

func (r *memDocumentRepo) FindAll(ctx context.Context, page, pageSize int) ([]models.Document, int64, error) {
	return nil, 0, nil
}

func (r *memDocumentRepo) SearchLike(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error) {
	return nil, nil
}

func (r *memDocumentRepo) UpdateExtraction(ctx context.Context, doc *models.Document) error {
	return nil
}

func (r *memDocumentRepo) Delete(ctx context.Context, id uint64) error {
	delete(r.docs, id)
	return nil
}

// sequenceTokenGenerator 按给定序列出 token，用于构造冲突
type sequenceTokenGenerator struct {
	tokens []string
	i      int
}

func (g *sequenceTokenGenerator) Generate() (string, error) {
	t := g.tokens[g.i%len(g.tokens)]
	g.i++
	return t, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Share:  config.ShareConfig{TokenBytes: DefaultTokenBytes, CreateMaxAttempts: 5},
	}
}

func newTestService(shareRepo *memShareRepo, docRepo *memDocumentRepo, now time.Time) *shareService {
	svc := NewShareService(shareRepo, docRepo, NewTokenGenerator(DefaultTokenBytes), testConfig()).(*shareService)
	svc.nowFunc = func() time.Time { return now }
	return svc
}

func ownedDocument() *models.Document {
	return &models.Document{ID: 1, UserID: 10, OriginalFilename: "report.pdf"}
}

func TestCreateShareThenResolveGranted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireAfterDays, Days: 7}, CreateShareOptions{AllowDownload: true})
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)
	require.Equal(t, now.AddDate(0, 0, 7), created.ExpiresAt)
	require.Zero(t, created.CurrentAccessCount)

	resolved, err := svc.ResolveAccess(context.Background(), created.Token, nil)
	require.NoError(t, err)
	require.Equal(t, created.ID, resolved.ID)
	require.True(t, resolved.AllowDownload)
}

func TestCreateShareRejectsNonOwner(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(ownedDocument()), now)

	_, err := svc.CreateShare(context.Background(), 99, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.ErrorIs(t, err, xerr.ErrPermissionDenied)
}

func TestCreateShareMissingDocument(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(), now)

	_, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.ErrorIs(t, err, xerr.ErrDocumentNotFound)
}

func TestCreateShareRetriesOnTokenCollision(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemShareRepo()
	svc := newTestService(repo, newMemDocumentRepo(ownedDocument()), now)
	svc.tokenGen = &sequenceTokenGenerator{tokens: []string{"AAAA", "AAAA", "BBBB"}}

	first, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.NoError(t, err)
	require.Equal(t, "AAAA", first.Token)

	// 第二次创建先撞上 AAAA，必须换 token 重试成功
	second, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.NoError(t, err)
	require.Equal(t, "BBBB", second.Token)
}

func TestResolveAccessNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(), now)

	_, err := svc.ResolveAccess(context.Background(), "missing", nil)
	require.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestResolveAccessInfrastructureFailureIsNotNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemShareRepo()
	svc := newTestService(repo, newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.NoError(t, err)

	repo.failNextFind = true
	_, err = svc.ResolveAccess(context.Background(), created.Token, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestResolveAccessPasswordGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{Password: "s3cret"})
	require.NoError(t, err)

	// 未提供密码
	_, err = svc.ResolveAccess(context.Background(), created.Token, nil)
	require.ErrorIs(t, err, xerr.ErrSharePasswordRequired)

	// 密码错误与未提供是不同的结果
	wrong := "nope"
	_, err = svc.ResolveAccess(context.Background(), created.Token, &wrong)
	require.ErrorIs(t, err, xerr.ErrSharePasswordIncorrect)

	// 密码正确
	right := "s3cret"
	resolved, err := svc.ResolveAccess(context.Background(), created.Token, &right)
	require.NoError(t, err)
	require.Equal(t, created.ID, resolved.ID)
}

func TestResolveAccessExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemShareRepo()
	svc := newTestService(repo, newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireAfterDays, Days: 1}, CreateShareOptions{})
	require.NoError(t, err)

	// 拨快时钟越过过期时间点
	svc.nowFunc = func() time.Time { return now.AddDate(0, 0, 2) }
	_, err = svc.ResolveAccess(context.Background(), created.Token, nil)
	require.ErrorIs(t, err, xerr.ErrShareExpired)
}

func TestAfterDownloadsShareLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemShareRepo()
	svc := newTestService(repo, newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireAfterDownloads, Downloads: 2}, CreateShareOptions{})
	require.NoError(t, err)
	require.Equal(t, uint32(2), created.MaxAccessCount)

	ctx := context.Background()

	// 第一次访问
	_, err = svc.ResolveAccess(ctx, created.Token, nil)
	require.NoError(t, err)
	require.NoError(t, svc.RecordAccess(ctx, created.Token))

	// 第二次访问仍然放行（解析时计数是 1 < 2）
	_, err = svc.ResolveAccess(ctx, created.Token, nil)
	require.NoError(t, err)
	require.NoError(t, svc.RecordAccess(ctx, created.Token))

	// 第三次访问被拒：次数用尽是终态
	_, err = svc.ResolveAccess(ctx, created.Token, nil)
	require.ErrorIs(t, err, xerr.ErrShareQuotaExhausted)

	// 访问记录不再复核策略，计数可以越过上限
	require.NoError(t, svc.RecordAccess(ctx, created.Token))
	stored, err := repo.FindByToken(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, uint32(3), stored.CurrentAccessCount)
	require.NotNil(t, stored.LastAccessedAt)
}

func TestRevokeShare(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(ownedDocument()), now)

	created, err := svc.CreateShare(context.Background(), 10, 1,
		ExpirationPolicy{Choice: ExpireNever}, CreateShareOptions{})
	require.NoError(t, err)
	ctx := context.Background()

	// 非创建者且非管理员不得撤销
	err = svc.RevokeShare(ctx, created.Token, 99, false)
	require.ErrorIs(t, err, xerr.ErrPermissionDenied)

	// 管理员可以撤销他人的分享
	require.NoError(t, svc.RevokeShare(ctx, created.Token, 99, true))

	// 撤销后 token 彻底失效
	_, err = svc.ResolveAccess(ctx, created.Token, nil)
	require.ErrorIs(t, err, xerr.ErrShareNotFound)

	// 重复撤销同样报不存在
	err = svc.RevokeShare(ctx, created.Token, 10, false)
	require.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestListUserSharesPartition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemShareRepo()
	svc := newTestService(repo, newMemDocumentRepo(ownedDocument()), now)
	ctx := context.Background()

	alive, err := svc.CreateShare(ctx, 10, 1,
		ExpirationPolicy{Choice: ExpireAfterDays, Days: 30}, CreateShareOptions{})
	require.NoError(t, err)

	spent, err := svc.CreateShare(ctx, 10, 1,
		ExpirationPolicy{Choice: ExpireAfterDownloads, Downloads: 1}, CreateShareOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordAccess(ctx, spent.Token))

	active, expired, err := svc.ListUserShares(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Len(t, expired, 1)
	require.Equal(t, alive.Token, active[0].Token)
	require.Equal(t, spent.Token, expired[0].Token)
}

func TestShareURL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemShareRepo(), newMemDocumentRepo(), now)

	require.Equal(t, "http://localhost:8080/shared/abc123", svc.ShareURL("abc123"))
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/services/share"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubShareService 按 token 返回预设结果
type stubShareService struct {
	shares   map[string]*models.Share
	resolve  map[string]error // token -> 解析失败原因
	recorded []string
}

func (s *stubShareService) CreateShare(ctx context.Context, userID, documentID uint64, policy share.ExpirationPolicy, opts share.CreateShareOptions) (*models.Share, error) {
	return nil, xerr.ErrInternalServer
}

func (s *stubShareService) ResolveAccess(ctx context.Context, token string, providedPassword *string) (*models.Share, error) {
	if err, ok := s.resolve[token]; ok {
		return nil, err
	}
	if sh, ok := s.shares[token]; ok {
		return sh, nil
	}
	return nil, xerr.ErrShareNotFound
}

func (s *stubShareService) RecordAccess(ctx context.Context, token string) error {
	s.recorded = append(s.recorded, token)
	return nil
}

func (s *stubShareService) RevokeShare(ctx context.Context, token string, requesterID uint64, requesterIsAdmin bool) error {
	return xerr.ErrShareNotFound
}

func (s *stubShareService) ListUserShares(ctx context.Context, userID uint64) ([]models.Share, []models.Share, error) {
	return nil, nil, nil
}

func (s *stubShareService) ShareURL(token string) string {
	return "http://localhost:8080/shared/" + token
}

// stubDocumentService 只支撑分享访问路径
type stubDocumentService struct {
	docs    map[uint64]*models.Document
	content string
}

func (s *stubDocumentService) Upload(ctx context.Context, userID uint64, originalFilename string, size int64, reader io.Reader) (*models.Document, error) {
	return nil, xerr.ErrInternalServer
}

func (s *stubDocumentService) GetDocument(ctx context.Context, userID, documentID uint64) (*models.Document, error) {
	return s.GetByID(ctx, documentID)
}

func (s *stubDocumentService) GetByID(ctx context.Context, documentID uint64) (*models.Document, error) {
	if d, ok := s.docs[documentID]; ok {
		return d, nil
	}
	return nil, xerr.ErrDocumentNotFound
}

func (s *stubDocumentService) DocumentExists(ctx context.Context, documentID uint64) (bool, error) {
	_, ok := s.docs[documentID]
	return ok, nil
}

func (s *stubDocumentService) ListUserDocuments(ctx context.Context, userID uint64, page int) ([]models.Document, int64, error) {
	return nil, 0, nil
}

func (s *stubDocumentService) ListAllDocuments(ctx context.Context, page int) ([]models.Document, int64, error) {
	return nil, 0, nil
}

func (s *stubDocumentService) Search(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error) {
	return nil, nil
}

func (s *stubDocumentService) OpenContent(ctx context.Context, doc *models.Document) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.content)), nil
}

func (s *stubDocumentService) PresignedURL(ctx context.Context, doc *models.Document) (string, error) {
	return "", xerr.ErrStorageError
}

func (s *stubDocumentService) OpenThumbnail(ctx context.Context, doc *models.Document) (io.ReadCloser, error) {
	return nil, xerr.ErrDocumentNotFound
}

func (s *stubDocumentService) Delete(ctx context.Context, requesterID uint64, requesterIsAdmin bool, documentID uint64) error {
	return xerr.ErrDocumentNotFound
}

func newSharedTestRouter(shareSvc *stubShareService, docSvc *stubDocumentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewShareHandler(shareSvc, docSvc)
	r := gin.New()
	r.GET("/shared/:token", h.ViewShared)
	r.GET("/shared/:token/download", h.DownloadShared)
	return r
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) xerr.Response {
	t.Helper()
	var resp xerr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestViewSharedGrantedRecordsAccess(t *testing.T) {
	shareSvc := &stubShareService{
		shares: map[string]*models.Share{
			"tok1": {Token: "tok1", DocumentID: 7, AllowDownload: true, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	docSvc := &stubDocumentService{
		docs: map[uint64]*models.Document{7: {ID: 7, OriginalFilename: "paper.pdf", Size: 1234}},
	}
	r := newSharedTestRouter(shareSvc, docSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shared/tok1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"tok1"}, shareSvc.recorded)
	resp := decodeResponse(t, w)
	require.Equal(t, xerr.SuccessCode, resp.Code)
}

func TestViewSharedErrorMapping(t *testing.T) {
	shareSvc := &stubShareService{
		resolve: map[string]error{
			"expired":  xerr.ErrShareExpired,
			"spent":    xerr.ErrShareQuotaExhausted,
			"needpass": xerr.ErrSharePasswordRequired,
			"badpass":  xerr.ErrSharePasswordIncorrect,
			"flaky":    xerr.ErrDatabaseError,
		},
	}
	r := newSharedTestRouter(shareSvc, &stubDocumentService{})

	cases := []struct {
		token      string
		wantStatus int
		wantCode   int
	}{
		{"missing", http.StatusNotFound, xerr.ShareNotFoundCode},
		{"expired", http.StatusGone, xerr.ShareExpiredCode},
		{"spent", http.StatusGone, xerr.ShareQuotaExhaustedCode},
		{"needpass", http.StatusForbidden, xerr.SharePasswordRequiredCode},
		{"badpass", http.StatusForbidden, xerr.SharePasswordIncorrectCode},
		// 基础设施故障不得伪装成 404
		{"flaky", http.StatusServiceUnavailable, xerr.DatabaseErrorCode},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/shared/"+tc.token, nil)
		r.ServeHTTP(w, req)

		require.Equal(t, tc.wantStatus, w.Code, "token %s", tc.token)
		require.Equal(t, tc.wantCode, decodeResponse(t, w).Code, "token %s", tc.token)
	}

	// 失败的访问一律不计数
	require.Empty(t, shareSvc.recorded)
}

func TestDownloadSharedDeniedWhenNotAllowed(t *testing.T) {
	shareSvc := &stubShareService{
		shares: map[string]*models.Share{
			"viewonly": {Token: "viewonly", DocumentID: 7, AllowDownload: false, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	r := newSharedTestRouter(shareSvc, &stubDocumentService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shared/viewonly/download", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, xerr.ShareDownloadDeniedCode, decodeResponse(t, w).Code)
}

func TestDownloadSharedStreamsContent(t *testing.T) {
	shareSvc := &stubShareService{
		shares: map[string]*models.Share{
			"dl": {Token: "dl", DocumentID: 7, AllowDownload: true, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	docSvc := &stubDocumentService{
		docs:    map[uint64]*models.Document{7: {ID: 7, OriginalFilename: "paper.pdf", Size: 11}},
		content: "pdf-content",
	}
	r := newSharedTestRouter(shareSvc, docSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shared/dl/download", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "paper.pdf")
	require.Equal(t, "pdf-content", w.Body.String())
	// 下载不重复计数
	require.Empty(t, shareSvc.recorded)
}

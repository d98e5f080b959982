package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"github.com/LJTian/RedTrend/internal/pipeline"
	"github.com/gin-gonic/gin"
)

type stubService struct {
	regenerated int
	refreshed   bool
}

func (s *stubService) ListPage(ctx context.Context, count, offset int) ([]pipeline.Summary, error) {
	out := make([]pipeline.Summary, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, pipeline.Summary{ID: offset + i + 1, Title: fmt.Sprintf("标题 %d", offset+i+1)})
	}
	return out, nil
}

func (s *stubService) GetPost(ctx context.Context, id int) (converter.Post, error) {
	if id == 404 {
		return converter.Post{}, pipeline.ErrNotFound
	}
	if id == 502 {
		return converter.Post{}, hackernews.ErrUpstream
	}
	return converter.Post{ID: id, Title: "生成标题"}, nil
}

func (s *stubService) Regenerate(ctx context.Context, id int) (converter.Post, error) {
	s.regenerated = id
	return converter.Post{ID: id, Title: "重新生成"}, nil
}

func (s *stubService) RefreshCatalog(ctx context.Context) ([]int, error) {
	s.refreshed = true
	return []int{1, 2, 3}, nil
}

func newTestRouter(adminUser, adminPass string) (*gin.Engine, *stubService) {
	gin.SetMode(gin.TestMode)
	svc := &stubService{}
	r := gin.New()
	NewServer(svc, adminUser, adminPass).RegisterRoutes(r)
	return r, svc
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListPosts(t *testing.T) {
	r, _ := newTestRouter("", "")
	w := doRequest(r, http.MethodGet, "/api/v1/posts?limit=2&offset=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Code string             `json:"code"`
		Data []pipeline.Summary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != "ok" || len(body.Data) != 2 || body.Data[0].ID != 6 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetPostStatusMapping(t *testing.T) {
	r, _ := newTestRouter("", "")

	if w := doRequest(r, http.MethodGet, "/api/v1/posts/1"); w.Code != http.StatusOK {
		t.Fatalf("ok id status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/v1/posts/404"); w.Code != http.StatusNotFound {
		t.Fatalf("not found status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/v1/posts/502"); w.Code != http.StatusBadGateway {
		t.Fatalf("upstream status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/v1/posts/abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestAdminRoutesRequireBasicAuthWhenConfigured(t *testing.T) {
	r, svc := newTestRouter("admin", "secret")

	// 未带凭证：拒绝
	if w := doRequest(r, http.MethodPost, "/api/v1/posts/1/regenerate"); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthorized status = %d", w.Code)
	}
	if svc.regenerated != 0 {
		t.Fatalf("regenerate must not run without auth")
	}

	// 正确凭证：放行
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	req.SetBasicAuth("admin", "secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authorized status = %d", w.Code)
	}
	if !svc.refreshed {
		t.Fatalf("refresh should have run")
	}

	// 读接口不受管理密码影响
	if w := doRequest(r, http.MethodGet, "/api/v1/posts/1"); w.Code != http.StatusOK {
		t.Fatalf("read path status = %d", w.Code)
	}
}

func TestRegenerateWithoutAuthConfigured(t *testing.T) {
	r, svc := newTestRouter("", "")
	if w := doRequest(r, http.MethodPost, "/api/v1/posts/7/regenerate"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.regenerated != 7 {
		t.Fatalf("regenerated id = %d, want 7", svc.regenerated)
	}
}

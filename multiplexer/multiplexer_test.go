package multiplexer_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campsite/cmd/multiplexer"
	"github.com/campsite/cmd/reloader"
	"github.com/campsite/cmd/unit"
	"github.com/campsite/cmd/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, names ...string) reloader.Apps {
	t.Helper()
	dir := t.TempDir()
	loader := unit.NewLoader(nil)
	apps := reloader.Apps{}
	for _, name := range names {
		path := filepath.Join(dir, name+".hcl")
		src := []byte(`app "` + name + `" {
  route "/{path...}" {
    content_type = "text/plain"
    body         = "${app.name}:${request.path}"
  }
}
`)
		require.NoError(t, os.WriteFile(path, src, 0o644))
		h, err := loader.Load(path)
		require.NoError(t, err)
		apps[h.MountName] = h
	}
	return apps
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBuildWithoutUnits(t *testing.T) {
	h := multiplexer.Build(reloader.Apps{})
	for _, target := range []string{"/", "/anything", "/code/blog"} {
		rec := get(h, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "I'm sorry, but I could not find any Camping apps")
	}
}

func TestBuildWithOneUnit(t *testing.T) {
	h := multiplexer.Build(load(t, "Blog"))

	rec := get(h, "/posts/1")
	assert.Equal(t, "Blog:/posts/1", rec.Body.String())
	assert.Equal(t, "Blog:/", get(h, "/").Body.String())
	assert.Equal(t, "Blog:/code/blog", get(h, "/code/blog").Body.String(), "a single unit owns every path")
}

func TestBuildWithSeveralUnits(t *testing.T) {
	apps := load(t, "Blog", "Wiki")
	h := multiplexer.Build(apps)

	rec := get(h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/blog">Blog</a>`)
	assert.Contains(t, rec.Body.String(), `<a href="/code/wiki">View source</a>`)

	assert.Equal(t, "Blog:/", get(h, "/blog").Body.String())
	assert.Equal(t, "Blog:/", get(h, "/blog/").Body.String())
	assert.Equal(t, "Wiki:/pages/Home", get(h, "/wiki/pages/Home").Body.String())

	rec = get(h, "/code/blog")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, apps["blog"].SourcePath, rec.Header().Get(unit.SendFileHeader))
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(h, "/blogger").Code, "mount names match whole segments")
	assert.Equal(t, http.StatusNotFound, get(h, "/Blog").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/code/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/code/blog/extra").Code)
}

func TestBrokenUnitStaysMounted(t *testing.T) {
	apps := load(t, "Blog", "Wiki")
	serr := utils.NewError("unit", "Unit Load Error", "/tmp/admin.hcl", "boom")
	apps["admin"] = unit.Broken("/tmp/admin.hcl", "admin", serr)
	h := multiplexer.Build(apps)

	assert.PanicsWithValue(t, serr, func() { get(h, "/admin/anything") })
	assert.Contains(t, get(h, "/").Body.String(), "failed to load")
	assert.Equal(t, "Blog:/", get(h, "/blog").Body.String())
}

func TestIndexPageIsDeterministic(t *testing.T) {
	apps := load(t, "Wiki", "Blog", "Admin")
	first := multiplexer.IndexPage(apps)
	assert.Equal(t, first, multiplexer.IndexPage(apps))

	page := string(first)
	assert.Contains(t, page, "<title>You are Camping</title>")
	assert.Less(t, strings.Index(page, "/admin"), strings.Index(page, "/blog"))
	assert.Less(t, strings.Index(page, "/blog"), strings.Index(page, "/wiki"))
}


func TestMountedRedirectsKeepTheMountPrefix(t *testing.T) {
	apps := load(t, "Wiki")
	dir := t.TempDir()
	path := filepath.Join(dir, "blog.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`app "Blog" {
  route "GET /posts/" {
    body = "posts"
  }
}
`), 0o644))
	h, err := unit.NewLoader(nil).Load(path)
	require.NoError(t, err)
	apps[h.MountName] = h

	rec := get(multiplexer.Build(apps), "/blog/posts")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/posts/", rec.Header().Get("Location"))

	rec = get(multiplexer.Build(reloader.Apps{"blog": h}), "/posts")
	assert.Equal(t, "/posts/", rec.Header().Get("Location"), "a unit mounted at the root is not rewritten")
}

func TestIndexPageAnswersHead(t *testing.T) {
	h := multiplexer.Build(load(t, "Blog", "Wiki"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, get(h, "/").Body.String(), rec.Body.String(), "net/http drops the body of HEAD responses")
}

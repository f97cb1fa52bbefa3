package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("sentinel")

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitepipe.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "sitepipe.yaml", file)
	})

	t.Run("Wrapped sentinel stays matchable", func(t *testing.T) {
		err := WrapError(errSentinel, CategoryBuild, "build failed").Fatal().Build()
		wrapped := fmt.Errorf("run: %w", err)

		assert.True(t, stderrors.Is(wrapped, errSentinel))
		assert.True(t, HasCategory(wrapped, CategoryBuild))
		assert.True(t, err.IsFatal())
		assert.Contains(t, err.Error(), "[build:fatal] build failed: sentinel")
	})

	t.Run("Is compares category and message", func(t *testing.T) {
		a := PublishError("transfer failed").Build()
		b := PublishError("transfer failed").WithContext("target", "git").Build()
		c := BuildError("transfer failed").Build()

		assert.True(t, stderrors.Is(a, b))
		assert.False(t, stderrors.Is(a, c))
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := ContentError("bad front matter").Build()
		derived := base.WithContext("path", "posts/a.md")

		_, ok := base.Context().Get("path")
		assert.False(t, ok)
		path, _ := derived.Context().GetString("path")
		assert.Equal(t, "posts/a.md", path)
	})
}

func TestRetryHints(t *testing.T) {
	assert.True(t, GitError("clone").Build().CanRetry())
	assert.False(t, ConfigError("bad").Build().CanRetry())
	assert.False(t, BuildError("empty").Build().CanRetry())
}

func TestGetters_Unclassified(t *testing.T) {
	err := stderrors.New("plain")
	assert.Equal(t, CategoryInternal, GetCategory(err))
	assert.Equal(t, SeverityError, GetSeverity(err))
	_, ok := AsClassified(err)
	assert.False(t, ok)
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{stderrors.New("plain"), ExitGeneral},
		{ValidationError("x").Build(), ExitUsage},
		{ConfigError("x").Build(), ExitConfig},
		{BuildError("x").Build(), ExitBuild},
		{PublishError("x").Build(), ExitExternal},
		{GitError("x").Build(), ExitExternal},
		{RuntimeError("x").Build(), ExitRuntime},
		{fmt.Errorf("ctx: %w", BuildError("x").Build()), ExitBuild},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ExitCodeFor(tc.err), "error %v", tc.err)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	err := WrapError(errSentinel, CategoryBuild, "no content").Fatal().Build()

	code := NewCLIErrorAdapter(false, nil).HandleError(err, &out)
	assert.Equal(t, ExitBuild, code)
	assert.Equal(t, "Error: no content (use -v for details)\n", out.String())

	out.Reset()
	NewCLIErrorAdapter(true, nil).HandleError(err, &out)
	assert.True(t, strings.Contains(out.String(), "sentinel"))
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", nil)

	a.WriteErrorResponse(rec, req, AuthError("bad signature").Build())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"auth"`)
	assert.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(stderrors.New("x")))
}

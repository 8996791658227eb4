package utils_test

import (
	"testing"

	"github.com/campsite/cmd/utils"
	"github.com/stretchr/testify/assert"
)

func TestSourceErrorMessage(t *testing.T) {
	err := utils.NewError("unit", "Unit Load Error", "apps/blog.hcl", "Missing app block")
	assert.Equal(t, "Unit Load Error (in apps/blog.hcl): Missing app block", err.Error())

	err.Line = 3
	assert.Equal(t, "Unit Load Error (in apps/blog.hcl:3): Missing app block", err.Error())

	assert.Equal(t, "Broken", (&utils.SourceError{Description: "Broken"}).Error())
}

func TestSourceErrorContextSource(t *testing.T) {
	err := &utils.SourceError{
		Line:        2,
		SourceLines: []string{"one", "two", "three"},
	}
	lines := err.ContextSource()
	if assert.Len(t, lines, 3) {
		assert.Equal(t, utils.SourceLine{Source: "one", Line: 1}, lines[0])
		assert.True(t, lines[1].IsError)
		assert.Equal(t, 3, lines[2].Line)
	}

	assert.Nil(t, (&utils.SourceError{}).ContextSource())
}

func TestNewStartupIfError(t *testing.T) {
	assert.Nil(t, utils.NewStartupIfError(nil, "ignored"))

	err := utils.NewStartupIfError(assert.AnError, "Failed to bind", "port", 3301)
	var serr *utils.StartupError
	if assert.ErrorAs(t, err, &serr) {
		assert.Equal(t, "Failed to bind", serr.Message)
		assert.Contains(t, serr.Args, 3301)
		assert.NotNil(t, serr.Stack)
	}

	again := utils.NewStartupIfError(err, "outer", "extra", true)
	assert.Same(t, serr, again)
	assert.Contains(t, serr.Args, "extra")
}
